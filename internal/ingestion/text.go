// Package ingestion turns uploaded team documents into clean text for the coaching analyzer.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/atlas-maximus/internal/types"
)

var (
	inlineSpace  = regexp.MustCompile(`\s+`)
	blankLineRun = regexp.MustCompile(`\n\n\n+`)
)

// noiseSelectors are removed from HTML before text is extracted.
const noiseSelectors = "script, style, noscript, nav, footer, header, form, iframe, svg, .sidebar, .cookie-banner"

// DefaultContentSelectors locate the main content of a wiki or document page.
func DefaultContentSelectors() []string {
	return []string{
		"main",
		"article",
		"#main-content",
		".wiki-content",
		".markdown-body",
		"#content",
	}
}

// CleanText normalizes line endings and whitespace while keeping headings and list items intact.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	// Markdown headings lose their indentation.
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := strings.Repeat(" ", len(line)-len(trimmed))
	if isBulletLine(trimmed) {
		return indent + trimmed
	}
	return indent + inlineSpace.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	for _, marker := range []string{"- ", "* ", "• ", "· "} {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// ExtractHTMLText parses HTML and returns the text of its main content. Noise such as
// scripts and navigation is dropped first. The first matching content selector wins;
// with no match the whole body is used.
func ExtractHTMLText(html string, contentSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelectors).Remove()

	if len(contentSelectors) == 0 {
		contentSelectors = DefaultContentSelectors()
	}

	content := doc.Find("body")
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			content = sel.First()
			break
		}
	}

	// Block elements become line breaks so paragraphs stay apart.
	content.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr, br").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var kept []string
	for _, line := range strings.Split(content.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, inlineSpace.ReplaceAllString(line, " "))
		}
	}
	return strings.Join(kept, "\n"), nil
}

// IsHTML reports whether a document should be treated as HTML, judged by its
// extension or, failing that, by its leading markup.
func IsHTML(name string, content []byte) bool {
	switch FileType(name) {
	case "html", "htm":
		return true
	case "":
		head := strings.ToLower(strings.TrimSpace(string(content[:min(len(content), 512)])))
		return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
	default:
		return false
	}
}

// FileType returns the lowercased extension of name without its dot.
func FileType(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ExtractText returns the cleaned text of an uploaded document.
func ExtractText(name string, content []byte) (string, error) {
	if IsHTML(name, content) {
		text, err := ExtractHTMLText(string(content))
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	}
	return CleanText(string(content)), nil
}

// FromFile reads a document from disk and returns it ready for analysis.
func FromFile(path string, now time.Time) (*types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	text, err := ExtractText(name, content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", name, err)
	}
	return &types.Document{OriginalName: name, ExtractedText: text, UploadedAt: now}, nil
}

// Package fetch retrieves shared team documents (wiki pages, exported retros) by URL.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/atlas-maximus/internal/ingestion"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; AtlasMaximus/1.0)"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 10 << 20

// Result holds the raw and processed content of a fetched document.
type Result struct {
	URL         string
	HTML        string
	Text        string
	ContentType string
	StatusCode  int
	Platform    Platform
	Rendered    bool // true when the text came from the headless browser
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// RenderFunc renders a page and returns its final HTML.
type RenderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// UseBrowser enables the headless-browser fallback for pages whose
	// extracted text is shorter than MinContentLength.
	UseBrowser bool
	// Render overrides the browser renderer. Nil means WithBrowser.
	Render RenderFunc
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Render:    WithBrowser,
	}
}

func (o *Options) withDefaults() *Options {
	out := DefaultOptions()
	if o == nil {
		return out
	}
	*out = *o
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.UserAgent == "" {
		out.UserAgent = DefaultUserAgent
	}
	if out.Render == nil {
		out.Render = WithBrowser
	}
	return out
}

// URL retrieves the raw content of a URL.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	opts = opts.withDefaults()

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	client := &http.Client{Timeout: opts.Timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Platform:    DetectPlatform(urlStr),
	}

	// The partial result is returned alongside the error.
	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return result, nil
}

// Document fetches a URL and extracts its readable text. HTML is reduced to the
// platform's main content; other content types are cleaned as plain text. When the
// browser fallback is enabled and the extracted text is too short, the page is
// rendered in a headless browser and extracted again.
func Document(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	opts = opts.withDefaults()

	result, err := URL(ctx, urlStr, opts)
	if err != nil {
		return result, err
	}

	result.Text, err = extract(result)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "content extraction failed", Cause: err}
	}

	if !opts.UseBrowser || !ShouldUseBrowser(result.Text) {
		return result, nil
	}

	logger := log.With().Str("url", urlStr).Int("chars", len(result.Text)).Logger()
	logger.Debug().Msg("extracted text too short, rendering in browser")

	html, err := opts.Render(ctx, urlStr, opts.Timeout)
	if err != nil {
		logger.Warn().Err(err).Msg("browser rendering failed, keeping HTTP content")
		return result, nil
	}

	rendered := &Result{URL: urlStr, HTML: html, ContentType: "text/html", StatusCode: result.StatusCode, Platform: result.Platform}
	text, err := extract(rendered)
	if err != nil || len(text) <= len(result.Text) {
		return result, nil
	}
	rendered.Text = text
	rendered.Rendered = true
	return rendered, nil
}

func extract(r *Result) (string, error) {
	if strings.Contains(r.ContentType, "html") || ingestion.IsHTML("", []byte(r.HTML)) {
		text, err := ingestion.ExtractHTMLText(r.HTML, PlatformContentSelectors(r.Platform)...)
		if err != nil {
			return "", err
		}
		return ingestion.CleanText(text), nil
	}
	return ingestion.CleanText(r.HTML), nil
}

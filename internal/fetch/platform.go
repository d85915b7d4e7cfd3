package fetch

import (
	"net/url"
	"strings"

	"github.com/jonathan/atlas-maximus/internal/ingestion"
)

// Platform is a known document hosting platform.
type Platform string

// Recognised platforms.
const (
	PlatformConfluence Platform = "confluence"
	PlatformNotion     Platform = "notion"
	PlatformGitHub     Platform = "github"
	PlatformGoogleDocs Platform = "google_docs"
	PlatformUnknown    Platform = "unknown"
)

// DetectPlatform identifies the hosting platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.HasSuffix(host, "atlassian.net") && strings.HasPrefix(parsed.Path, "/wiki"),
		strings.HasPrefix(host, "confluence."):
		return PlatformConfluence
	case host == "notion.so" || strings.HasSuffix(host, ".notion.so") || strings.HasSuffix(host, ".notion.site"):
		return PlatformNotion
	case host == "github.com" || host == "gist.github.com":
		return PlatformGitHub
	case host == "docs.google.com":
		return PlatformGoogleDocs
	default:
		return PlatformUnknown
	}
}

// PlatformContentSelectors returns content selectors tuned for a platform,
// falling back to the generic document selectors.
func PlatformContentSelectors(platform Platform) []string {
	var specific []string
	switch platform {
	case PlatformConfluence:
		specific = []string{"#main-content", ".wiki-content", "[data-testid='renderer-page']"}
	case PlatformNotion:
		specific = []string{".notion-page-content", ".notion-frame"}
	case PlatformGitHub:
		specific = []string{".markdown-body", "#readme"}
	case PlatformGoogleDocs:
		specific = []string{".kix-appview-editor", "#contents"}
	}
	return append(specific, ingestion.DefaultContentSelectors()...)
}

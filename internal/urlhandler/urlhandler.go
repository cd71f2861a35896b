package urlhandler

import (
	"net/url"
	"regexp"
	"strings"
)

// Extensions recognised as JavaScript assets, compared against the lowercased path.
var javaScriptExtensions = []string{".js", ".jsx", ".mjs", ".ts"}

var (
	// A bare ".ts" suffix only counts when it terminates a real path segment.
	typeScriptSegmentRegex = regexp.MustCompile(`/[^/]+\.ts$`)

	httpsDefaultPortRegex = regexp.MustCompile(`(https://[^/:]+):443(/|$)`)
	httpDefaultPortRegex  = regexp.MustCompile(`(http://[^/:]+):80(/|$)`)
)

// IsJavaScriptURL reports whether rawURL points at a JavaScript or TypeScript asset.
// Query string and fragment are ignored.
func IsJavaScriptURL(rawURL string) bool {
	path, _, _ := strings.Cut(rawURL, "?")
	path, _, _ = strings.Cut(path, "#")
	path = strings.ToLower(path)

	for _, ext := range javaScriptExtensions {
		if !strings.HasSuffix(path, ext) {
			continue
		}
		if ext == ".ts" {
			return typeScriptSegmentRegex.MatchString(path)
		}
		return true
	}
	return false
}

// Normalize drops the fragment and any explicit default port (443 for https,
// 80 for http) so that equivalent URLs compare equal. It is idempotent.
func Normalize(rawURL string) string {
	normalized, _, _ := strings.Cut(rawURL, "#")
	normalized = httpsDefaultPortRegex.ReplaceAllString(normalized, "${1}${2}")
	normalized = httpDefaultPortRegex.ReplaceAllString(normalized, "${1}${2}")
	return normalized
}

// Resolve turns reference into an absolute URL using baseURL.
// Absolute http(s) references are returned unchanged, protocol-relative
// references inherit the scheme of baseURL, everything else goes through
// standard relative resolution. Failures wrap ErrMalformedURL.
func Resolve(reference, baseURL string) (string, error) {
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return reference, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", newMalformedURLError(baseURL, "could not parse base url", err)
	}

	if strings.HasPrefix(reference, "//") {
		if base.Scheme == "" {
			return "", newMalformedURLError(baseURL, "base url has no scheme", nil)
		}
		return base.Scheme + ":" + reference, nil
	}

	if !base.IsAbs() {
		return "", newMalformedURLError(baseURL, "base url is not absolute", nil)
	}

	ref, err := url.Parse(reference)
	if err != nil {
		return "", newMalformedURLError(reference, "could not parse reference", err)
	}

	return base.ResolveReference(ref).String(), nil
}

// HostAndPath returns the lowercased host followed by the path of rawURL.
// Unparseable input falls back to the lowercased raw string.
func HostAndPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(parsed.Host + parsed.Path)
}

// ValidateURLFormat checks that rawURL is an absolute http(s) URL with a host.
func ValidateURLFormat(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return newMalformedURLError(rawURL, "url is empty", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return newMalformedURLError(rawURL, "could not parse url", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return newMalformedURLError(rawURL, "scheme must be http or https", nil)
	}
	if parsed.Host == "" {
		return newMalformedURLError(rawURL, "url lacks a hostname", nil)
	}
	return nil
}

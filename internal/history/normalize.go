package history

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// PlatformPrefix tags canonical keys derived from a recognized platform
// video ID, e.g. "yt:dQw4w9WgXcQ".
const PlatformPrefix = "yt"

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/(?:shorts|embed|live)/([A-Za-z0-9_-]{11})`),
}

var (
	bareVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	multiSlash  = regexp.MustCompile(`/{2,}`)
)

// ExtractVideoID pulls an 11-character platform video ID out of the common
// URL shapes (watch parameter, short link, embed/shorts/live path). Returns
// "" when none matches.
func ExtractVideoID(candidate string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(candidate); m != nil {
			return m[1]
		}
	}
	return ""
}

// Normalize maps a raw video identifier or URL onto its canonical history
// key. The function is pure and idempotent: normalizing an already-normalized
// key returns it unchanged, which makes re-imports safe.
//
// Resolution order:
//  1. a recognized platform video ID (URL shapes or a bare 11-character
//     token) becomes "yt:<id>";
//  2. anything that parses as a URL with a network location becomes a
//     normalized URL (scheme defaulted to https, host lowercased, duplicate
//     slashes collapsed, query sorted, fragment dropped);
//  3. everything else passes through trimmed.
//
// The bare-token rule is a heuristic: any unrelated 11-character token is
// misclassified as a platform ID. Callers handing in non-platform
// identifiers of that exact shape get a "yt:" key they did not ask for.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if id := ExtractVideoID(trimmed); id != "" {
		return PlatformPrefix + ":" + id
	}
	if bareVideoID.MatchString(trimmed) {
		return PlatformPrefix + ":" + trimmed
	}

	if normalized, ok := normalizeURL(trimmed); ok {
		return normalized
	}
	return trimmed
}

// normalizeURL canonicalizes a URL that carries a network location. Strings
// without a host (including opaque forms like "yt:<id>") are rejected so they
// fall through to the passthrough rule.
func normalizeURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}

	path := multiSlash.ReplaceAllString(u.EscapedPath(), "/")

	query := u.Query()
	for _, values := range query {
		sort.Strings(values)
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(strings.ToLower(u.Host))
	b.WriteString(path)
	if encoded := query.Encode(); encoded != "" {
		b.WriteString("?")
		b.WriteString(encoded)
	}
	return b.String(), true
}

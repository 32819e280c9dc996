package safety

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultMaxChars caps sanitized text forwarded to a summarizer.
const DefaultMaxChars = 1000

var (
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	passwordRe = regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`)
	apiKeyRe   = regexp.MustCompile(`(?i)api[_-]?key\s*[:=]\s*\S+`)
	bearerRe   = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`)
	tokenRe    = regexp.MustCompile(`[A-Za-z0-9+/=]{20,}`)
	spaceRe    = regexp.MustCompile(`[\s\p{Zs}]+`)

	bareDomainRe = regexp.MustCompile(`^[A-Za-z0-9.-]+\.[A-Za-z]{2,}(?:[/?#]\S*)?$`)
	schemeRe     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)
)

// Sanitize is SanitizeN with DefaultMaxChars.
func Sanitize(text string) string {
	return SanitizeN(text, DefaultMaxChars)
}

// SanitizeN strips markup, decodes entities, redacts credential-shaped
// substrings and collapses whitespace. The result holds at most maxChars
// runes; maxChars <= 0 disables truncation.
func SanitizeN(text string, maxChars int) string {
	if text == "" {
		return ""
	}

	clean := tagRe.ReplaceAllString(text, " ")
	clean = html.UnescapeString(clean)

	clean = passwordRe.ReplaceAllString(clean, "[REDACTED PASSWORD]")
	clean = apiKeyRe.ReplaceAllString(clean, "[REDACTED API KEY]")
	clean = bearerRe.ReplaceAllString(clean, "[REDACTED TOKEN]")
	clean = tokenRe.ReplaceAllString(clean, "[REDACTED TOKEN]")

	clean = strings.TrimSpace(spaceRe.ReplaceAllString(clean, " "))

	return truncateRunes(clean, maxChars)
}

// SanitizeURL normalizes u into an absolute http(s) URL or returns "".
// Applying it twice gives the same result as applying it once.
func SanitizeURL(u string) string {
	s := strings.TrimSpace(tagRe.ReplaceAllString(u, ""))
	if s == "" || strings.ContainsAny(s, "<>\"' \t\r\n") {
		return ""
	}

	if !strings.Contains(s, "://") {
		if schemeRe.MatchString(s) && !bareDomainRe.MatchString(s) {
			// javascript:, data:, mailto: and friends
			return ""
		}
		if !bareDomainRe.MatchString(s) {
			return ""
		}
		s = "https://" + s
	}

	parsed, err := url.Parse(s)
	if err != nil || parsed.Host == "" {
		return ""
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return ""
	}

	return s
}

func truncateRunes(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}

	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}

	return s
}

// Package extract mines free text for things the router and the chaining
// orchestrator can act on: URLs, image URLs, dates, times, email addresses,
// instructions and highlights. Every extractor is deterministic; the only
// clock input is the reference time passed by the caller.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hal9000y/mcp-chat/internal/safety"
)

// ExtractedURL is one URL candidate found in text.
type ExtractedURL struct {
	RawSpan string `json:"raw_text_span"`
	URL     string `json:"normalized_url"`
	Safe    bool   `json:"is_safe"`
}

var urlRe = regexp.MustCompile("https?://[^\\s<>\"'\\[\\]{}|\\\\^`]+")

var imageRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s<>"]+\.(?:jpg|jpeg|png|gif|bmp|webp|svg|ico)(?:[?#][^\s<>"]*)?`),
	regexp.MustCompile(`(?i)https?://[^\s<>"]+/(?:image|img|photo)[^\s<>"]*`),
}

// FindURLs returns every http(s) candidate in text in order of appearance,
// safe or not, without deduplication.
func FindURLs(text string) []ExtractedURL {
	var found []ExtractedURL
	for _, raw := range urlRe.FindAllString(text, -1) {
		u := cleanURL(raw)
		if !validURL(u) {
			continue
		}
		found = append(found, ExtractedURL{RawSpan: raw, URL: u, Safe: safety.IsSafeURL(u)})
	}
	return found
}

// URLs returns the safe URLs in text, deduplicated in first-seen order.
func URLs(text string) []string {
	return safeUnique(FindURLs(text))
}

// FindImageURLs is FindURLs narrowed to image-looking URLs.
func FindImageURLs(text string) []ExtractedURL {
	type hit struct {
		pos int
		raw string
	}

	var hits []hit
	for _, re := range imageRes {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{pos: loc[0], raw: text[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	found := make([]ExtractedURL, 0, len(hits))
	for _, h := range hits {
		u := strings.TrimRight(cleanURL(h.raw), ")")
		if !validURL(u) {
			continue
		}
		found = append(found, ExtractedURL{RawSpan: h.raw, URL: u, Safe: safety.IsSafeURL(u)})
	}
	return found
}

// ImageURLs returns the safe image URLs in text, deduplicated in first-seen
// order.
func ImageURLs(text string) []string {
	return safeUnique(FindImageURLs(text))
}

// IsImageURL reports whether u would be picked up by ImageURLs.
func IsImageURL(u string) bool {
	for _, re := range imageRes {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

func cleanURL(raw string) string {
	u := strings.TrimSpace(raw)
	for {
		prev := u
		u = strings.TrimRight(u, ".,;:!?")
		u = strings.TrimRight(u, `"'`)
		if strings.HasSuffix(u, ")") && strings.Count(u, "(") < strings.Count(u, ")") {
			u = u[:len(u)-1]
		}
		if u == prev {
			return u
		}
	}
}

func validURL(u string) bool {
	return len(u) > 10 && strings.Contains(u, "://")
}

func safeUnique(found []ExtractedURL) []string {
	seen := make(map[string]struct{}, len(found))
	out := make([]string, 0, len(found))
	for _, f := range found {
		if !f.Safe {
			continue
		}
		if _, ok := seen[f.URL]; ok {
			continue
		}
		seen[f.URL] = struct{}{}
		out = append(out, f.URL)
	}
	return out
}

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

const (
	defaultWikipediaEndpoint = "https://{lang}.wikipedia.org/w/api.php"
	defaultWikipediaLang     = "en"
)

var wikiLangRe = regexp.MustCompile(`^[a-z]{2,3}(?:-[a-z]{2,8})?$|^simple$`)

// WikiPage is the plain-text introduction of an article.
type WikiPage struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

type Wikipedia struct {
	client   *http.Client
	endpoint string
}

type WikipediaOption func(*Wikipedia)

// WithWikipediaEndpoint points the client at another MediaWiki api.php.
// A "{lang}" placeholder is replaced by the article language.
func WithWikipediaEndpoint(endpoint string) WikipediaOption {
	return func(w *Wikipedia) { w.endpoint = endpoint }
}

func WithWikipediaTimeout(d time.Duration) WikipediaOption {
	return func(w *Wikipedia) { w.client.Timeout = d }
}

func NewWikipedia(opts ...WikipediaOption) *Wikipedia {
	w := &Wikipedia{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: defaultWikipediaEndpoint,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// TitleFromURL returns the article title of a /wiki/ URL with underscores
// turned into spaces, or "" when u is not an article link.
func TitleFromURL(u string) string {
	_, rest, ok := strings.Cut(u, "wikipedia.org/wiki/")
	if !ok {
		return ""
	}
	rest, _, _ = strings.Cut(rest, "#")
	rest, _, _ = strings.Cut(rest, "?")
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	return strings.TrimSpace(strings.ReplaceAll(rest, "_", " "))
}

// LangFromURL returns the language subdomain of a wikipedia.org URL, or ""
// when the host carries none.
func LangFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	sub, ok := strings.CutSuffix(host, ".wikipedia.org")
	if !ok {
		return ""
	}
	sub, _, _ = strings.Cut(sub, ".")
	if sub == "www" || !wikiLangRe.MatchString(sub) {
		return ""
	}
	return sub
}

// Page fetches the introduction of title from the lang edition, English
// when lang is empty.
func (w *Wikipedia) Page(ctx context.Context, lang, title string) (WikiPage, error) {
	if title == "" {
		return WikiPage{}, apierr.InvalidParams("no wikipedia title or url provided")
	}
	if lang == "" {
		lang = defaultWikipediaLang
	}
	if !wikiLangRe.MatchString(lang) {
		return WikiPage{}, apierr.InvalidParams("invalid wikipedia language %q", lang)
	}

	q := url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"titles":      {title},
		"format":      {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.ReplaceAll(w.endpoint, "{lang}", lang)+"?"+q.Encode(), nil)
	if err != nil {
		return WikiPage{}, fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return WikiPage{}, apierr.Transport("wikipedia request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return WikiPage{}, apierr.Transport("wikipedia read failed", err)
	}
	if resp.StatusCode != http.StatusOK {
		return WikiPage{}, apierr.HTTP("wikipedia api request failed", resp.StatusCode, body)
	}

	var data struct {
		Query struct {
			Pages map[string]struct {
				Title   string  `json:"title"`
				Extract *string `json:"extract"`
				Missing *string `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return WikiPage{}, fmt.Errorf("json.Unmarshal failed: %w", err)
	}

	for _, p := range data.Query.Pages {
		if p.Missing != nil || p.Extract == nil {
			break
		}
		return WikiPage{Title: p.Title, Extract: *p.Extract}, nil
	}

	return WikiPage{}, apierr.HTTP("wikipedia page not found: "+title, http.StatusNotFound, nil)
}

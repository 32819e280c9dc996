package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/safety"
)

const (
	defaultWebMaxChars = 2000
	maxRedirects       = 10
)

var errUnsafeRedirect = errors.New("redirect target rejected by url safety check")

// WebPage is the readable text of a fetched URL.
type WebPage struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type Web struct {
	client      *http.Client
	maxBodySize int64
	maxChars    int
	userAgent   string
	allow       func(string) bool
}

type WebOption func(*Web)

func WithWebTimeout(d time.Duration) WebOption {
	return func(w *Web) { w.client.Timeout = d }
}

// WithMaxChars sets how much extracted text is kept.
func WithMaxChars(n int) WebOption {
	return func(w *Web) { w.maxChars = n }
}

// WithURLCheck replaces the URL safety classifier applied to the target and
// to every redirect.
func WithURLCheck(allow func(string) bool) WebOption {
	return func(w *Web) { w.allow = allow }
}

func NewWeb(opts ...WebOption) *Web {
	w := &Web{
		client:      &http.Client{Timeout: 10 * time.Second},
		maxBodySize: 2 << 20,
		maxChars:    defaultWebMaxChars,
		userAgent:   "mcp-chat/1.0",
		allow:       safety.IsSafeURL,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if !w.allow(req.URL.String()) {
			return errUnsafeRedirect
		}
		return nil
	}

	return w
}

// Fetch downloads u and extracts its text. Scripts and styles are dropped
// and whitespace is collapsed before truncation.
func (w *Web) Fetch(ctx context.Context, u string) (WebPage, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return WebPage{}, apierr.InvalidParams("url is required")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	if !w.allow(u) {
		return WebPage{}, apierr.InvalidParams("url rejected by safety check: %s", u)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return WebPage{}, apierr.InvalidParams("bad url %s: %v", u, err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		if errors.Is(err, errUnsafeRedirect) {
			return WebPage{}, apierr.InvalidParams("%v", err)
		}
		return WebPage{}, apierr.Transport("error fetching content", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBodySize))
	if err != nil {
		return WebPage{}, apierr.Transport("error reading content", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return WebPage{}, apierr.HTTP("http error fetching content", resp.StatusCode, nil)
	}

	page := WebPage{URL: u, ContentType: resp.Header.Get("Content-Type")}

	text := string(body)
	if isHTML(page.ContentType, body) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return WebPage{}, fmt.Errorf("goquery.NewDocumentFromReader failed: %w", err)
		}
		doc.Find("script, style, noscript, template").Remove()
		page.Title = collapse(doc.Find("title").First().Text())
		text = doc.Find("body").Text()
		if strings.TrimSpace(text) == "" {
			text = doc.Text()
		}
	}

	page.Content = truncateRunes(collapse(text), w.maxChars)
	return page, nil
}

func isHTML(contentType string, body []byte) bool {
	if contentType != "" {
		return strings.Contains(contentType, "html")
	}
	return strings.Contains(http.DetectContentType(body), "html")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

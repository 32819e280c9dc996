package chain

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/provider"
	"github.com/hal9000y/mcp-chat/internal/safety"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

const (
	ContentWikipedia = "wikipedia"
	ContentWeb       = "web_content"
	ContentError     = "error"
)

var actionWords = []string{"click", "download", "sign up", "register", "subscribe", "buy", "order", "contact", "call", "email"}

// URLResult is the outcome of fetching one URL found in a result.
type URLResult struct {
	URL            string  `json:"url"`
	Domain         string  `json:"domain"`
	ContentType    string  `json:"content_type"`
	Title          string  `json:"title,omitempty"`
	Content        string  `json:"content,omitempty"`
	ProcessingTime float64 `json:"processing_time"`
	IsSafe         bool    `json:"is_safe"`
	Actionable     bool    `json:"actionable"`
	Error          string  `json:"error,omitempty"`
}

// ImageResult is the outcome of analyzing one image URL.
type ImageResult struct {
	ImageURL            string               `json:"image_url"`
	SourceEmail         string               `json:"source_email,omitempty"`
	GoogleSearchResults []toolset.SearchItem `json:"google_search_results"`
	WebContent          string               `json:"web_content,omitempty"`
	ProcessingTime      float64              `json:"processing_time"`
	IsSafe              bool                 `json:"is_safe"`
	Error               string               `json:"error,omitempty"`
}

// fanOut applies fn to every item with at most limit calls in flight and
// returns the results in input order.
func fanOut[T, R any](limit int, items []T, fn func(T) R) []R {
	out := make([]R, len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			out[i] = fn(item)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (r *run) processURLs(ctx context.Context, urls []string) {
	urls = capped(urls, r.req.MaxURLs)
	results := fanOut(r.o.fanOut, urls, func(u string) URLResult {
		return r.processURL(ctx, u)
	})
	r.resp.ProcessedURLs = append(r.resp.ProcessedURLs, results...)
}

func (r *run) processURL(ctx context.Context, u string) (res URLResult) {
	start := time.Now()
	res = URLResult{URL: u, Domain: safety.Domain(u), IsSafe: safety.IsSafeURL(u)}
	defer func() { res.ProcessingTime = time.Since(start).Seconds() }()

	if !res.IsSafe {
		res.ContentType = ContentError
		res.Error = "blocked by url safety check"
		return res
	}

	if strings.Contains(strings.ToLower(res.Domain), "wikipedia.org") {
		title := provider.TitleFromURL(u)
		if title == "" {
			res.ContentType = ContentError
			res.Error = "no article title in wikipedia url"
			return res
		}

		out := r.o.d.Dispatch(ctx, dispatch.Invocation{
			Provider:  dispatch.Wikipedia,
			Operation: toolset.OpGetPage,
			Params:    dispatch.Params{"title": title, "url": u},
		})
		if page, ok := dispatch.PayloadAs[provider.WikiPage](out); ok && out.Success {
			res.ContentType = ContentWikipedia
			res.Title, res.Content = page.Title, page.Extract
		} else {
			res.ContentType = ContentError
			res.Error = out.Error
		}
	} else {
		out := r.o.d.Dispatch(ctx, dispatch.Invocation{
			Provider:  dispatch.WebAccess,
			Operation: toolset.OpGetContent,
			Params:    dispatch.Params{"url": u},
		})
		if page, ok := dispatch.PayloadAs[provider.WebPage](out); ok && out.Success {
			res.ContentType = ContentWeb
			res.Title, res.Content = page.Title, page.Content
		} else {
			res.ContentType = ContentError
			res.Error = out.Error
		}
	}

	res.Actionable = actionable(res.Content)

	return res
}

func actionable(content string) bool {
	lower := strings.ToLower(content)
	for _, w := range actionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

type imageRef struct {
	url    string
	source string
}

func (r *run) processImages(ctx context.Context, images []imageRef) {
	images = capped(images, r.req.MaxImages)
	results := fanOut(r.o.fanOut, images, func(img imageRef) ImageResult {
		return r.processImage(ctx, img)
	})
	r.resp.ProcessedImages = append(r.resp.ProcessedImages, results...)
}

// processImage searches for the image URL and fetches it. The two calls
// fail independently.
func (r *run) processImage(ctx context.Context, img imageRef) (res ImageResult) {
	start := time.Now()
	res = ImageResult{
		ImageURL:            img.url,
		SourceEmail:         img.source,
		GoogleSearchResults: []toolset.SearchItem{},
		IsSafe:              safety.IsSafeURL(img.url),
	}
	defer func() { res.ProcessingTime = time.Since(start).Seconds() }()

	if !res.IsSafe {
		res.Error = "blocked by url safety check"
		return res
	}

	var errs []string

	search := r.o.d.Dispatch(ctx, dispatch.Invocation{
		Provider:  dispatch.Google,
		Operation: toolset.OpSearch,
		Params:    dispatch.Params{"query": "image analysis " + img.url, "num_results": imageSearchResults},
	})
	if out, ok := dispatch.PayloadAs[toolset.SearchResponse](search); ok && search.Success {
		res.GoogleSearchResults = out.Items
	} else {
		errs = append(errs, "search: "+search.Error)
	}

	page := r.o.d.Dispatch(ctx, dispatch.Invocation{
		Provider:  dispatch.WebAccess,
		Operation: toolset.OpGetContent,
		Params:    dispatch.Params{"url": img.url},
	})
	if out, ok := dispatch.PayloadAs[provider.WebPage](page); ok && page.Success {
		res.WebContent = out.Content
	} else {
		errs = append(errs, "web: "+page.Error)
	}

	res.Error = strings.Join(errs, "; ")

	return res
}

func capped[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

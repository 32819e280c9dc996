package toolset

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/format"
)

type SearchRequest struct {
	Query      string `json:"query" jsonschema:"the search query"`
	NumResults int64  `json:"num_results,omitempty" jsonschema:"number of results, 1 to 10"`
}

type SearchResponse struct {
	Items        []SearchItem `json:"items"`
	TotalResults string       `json:"total_results,omitempty"`
}

type SearchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"display_link,omitempty"`
}

type searchSvc interface {
	Search(ctx context.Context, q string, num int64) (*customsearch.Search, error)
}

func NewSearch(svc searchSvc) *Search {
	return &Search{svc: svc}
}

type Search struct {
	svc searchSvc
}

func (t *Search) Search(ctx context.Context, input SearchRequest) (SearchResponse, error) {
	q := strings.TrimSpace(input.Query)
	if q == "" {
		return SearchResponse{}, apierr.InvalidParams("query cannot be empty")
	}
	if input.NumResults <= 0 {
		input.NumResults = 10
	}

	res, err := t.svc.Search(ctx, q, input.NumResults)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("svc.Search failed: %w", err)
	}

	out := SearchResponse{Items: make([]SearchItem, 0, len(res.Items))}
	if res.SearchInformation != nil {
		out.TotalResults = res.SearchInformation.TotalResults
	}

	for _, item := range res.Items {
		out.Items = append(out.Items, SearchItem{
			Title:       format.HTML2Text([]byte(item.Title)),
			Link:        item.Link,
			Snippet:     format.HTML2Text([]byte(item.Snippet)),
			DisplayLink: item.DisplayLink,
		})
	}

	return out, nil
}

package gservice

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

// Search queries a Programmable Search Engine. It authenticates with an API
// key rather than the user's OAuth token.
type Search struct {
	apiKey string
	cx     string
	opts   []option.ClientOption
}

func NewSearch(apiKey, cx string, opts ...option.ClientOption) *Search {
	return &Search{apiKey: apiKey, cx: cx, opts: opts}
}

// Configured reports whether both the key and the engine id are set.
func (s *Search) Configured() bool {
	return s.apiKey != "" && s.cx != ""
}

// Search returns up to num results, num clamped to the API's 1..10.
func (s *Search) Search(ctx context.Context, q string, num int64) (*customsearch.Search, error) {
	if !s.Configured() {
		return nil, apierr.Config("google api key or cse id")
	}

	num = max(1, min(num, 10))

	opts := append([]option.ClientOption{option.WithAPIKey(s.apiKey)}, s.opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("customsearch.NewService failed: %w", err)
	}

	res, err := svc.Cse.List().Q(q).Cx(s.cx).Num(num).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("cse.List failed: %w", err)
	}

	return res, nil
}

// Package gservice wraps the Google APIs used by the providers: Gmail,
// Calendar, Drive, Docs and Custom Search. A service client is built per
// call from the current OAuth token, so a token obtained after startup is
// picked up without a restart.
package gservice

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/auth"
)

type tokenSource interface {
	OAuthToken() (*oauth2.Token, error)
}

// Google holds what every OAuth-backed service needs to authenticate.
type Google struct {
	cfg  *oauth2.Config
	tok  tokenSource
	opts []option.ClientOption
}

// NewGoogle creates the shared client factory. Extra options are appended
// to every service constructor call.
func NewGoogle(cfg *oauth2.Config, tok tokenSource, opts ...option.ClientOption) *Google {
	if cfg == nil {
		cfg = &oauth2.Config{}
	}
	return &Google{cfg: cfg, tok: tok, opts: opts}
}

func (g *Google) clientOptions(ctx context.Context) ([]option.ClientOption, error) {
	t, err := g.tok.OAuthToken()
	if errors.Is(err, auth.ErrTokenNotSet) {
		return nil, apierr.Config("google oauth token")
	}
	if err != nil {
		return nil, fmt.Errorf("tok.OAuthToken failed: %w", err)
	}

	opts := make([]option.ClientOption, 0, len(g.opts)+1)
	opts = append(opts, option.WithHTTPClient(g.cfg.Client(ctx, t)))
	return append(opts, g.opts...), nil
}

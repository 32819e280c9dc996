// Package auth holds the Google user token: the authorization code flow,
// a JSON cache on disk and a static access token from the environment.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var (
	// ErrTokenNotSet means no token was loaded, supplied or authorized yet.
	ErrTokenNotSet = errors.New("no token defined")
	// ErrNoOAuthConfig is returned by flow operations without an OAuth client.
	ErrNoOAuthConfig = errors.New("oauth client not configured")
	// ErrInvalidState rejects callbacks whose state was never issued or expired.
	ErrInvalidState = errors.New("invalid or expired state parameter")
)

type Token struct {
	cfg    *oauth2.Config
	path   string
	states *states

	mu    sync.RWMutex
	token *oauth2.Token
	dirty bool
}

// NewToken returns a token backed by the OAuth client cfg, which may be
// nil. A non-empty path is read now, when it exists, and written by
// Persist.
func NewToken(cfg *oauth2.Config, path string) (*Token, error) {
	t := &Token{cfg: cfg, path: path, states: newStates()}
	if path == "" {
		return t, nil
	}

	tok, err := readToken(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", path).Msg("token file doesn't exist, it will be created on shutdown")
		return t, nil
	}
	if err != nil {
		return nil, err
	}
	t.token = tok

	return t, nil
}

// NewStaticToken wraps a bearer token obtained elsewhere. It never
// refreshes and cannot run the authorization flow.
func NewStaticToken(accessToken string) *Token {
	t := &Token{states: newStates()}
	if accessToken != "" {
		t.token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	}
	return t
}

// RedirectURL returns the consent page URL for a fresh state value.
func (t *Token) RedirectURL() (string, error) {
	if t.cfg == nil {
		return "", ErrNoOAuthConfig
	}

	state, err := t.states.issue()
	if err != nil {
		return "", fmt.Errorf("states.issue failed: %w", err)
	}

	return t.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// AuthorizeCode exchanges the code of an OAuth callback for a token.
func (t *Token) AuthorizeCode(ctx context.Context, code, state string) error {
	if t.cfg == nil {
		return ErrNoOAuthConfig
	}
	if !t.states.consume(state) {
		return ErrInvalidState
	}

	tok, err := t.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	t.mu.Lock()
	t.token, t.dirty = tok, true
	t.mu.Unlock()

	return nil
}

// OAuthToken returns the current token.
func (t *Token) OAuthToken() (*oauth2.Token, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.token == nil {
		return nil, ErrTokenNotSet
	}

	return t.token, nil
}

// Persist writes a token authorized during this run to the cache path.
func (t *Token) Persist() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.path == "" || t.token == nil || !t.dirty {
		return nil
	}
	if err := writeToken(t.path, t.token); err != nil {
		return err
	}
	t.dirty = false

	return nil
}

func readToken(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile failed: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(raw, tok); err != nil {
		return nil, fmt.Errorf("json.Unmarshal failed: %w", err)
	}

	return tok, nil
}

// writeToken replaces path atomically, creating its directory.
func writeToken(path string, tok *oauth2.Token) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("os.MkdirAll failed: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("os.CreateTemp failed: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tmp.Write failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("os.Rename failed: %w", err)
	}

	return nil
}

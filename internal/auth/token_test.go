package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hal9000y/mcp-chat/internal/auth"
)

func TestStaticToken(t *testing.T) {
	tok := auth.NewStaticToken("ya29.secret-value")

	ot, err := tok.OAuthToken()
	require.NoError(t, err)
	assert.Equal(t, "ya29.secret-value", ot.AccessToken)
	assert.True(t, ot.Valid())

	_, err = tok.RedirectURL()
	assert.ErrorIs(t, err, auth.ErrNoOAuthConfig)

	err = tok.AuthorizeCode(context.Background(), "code", "state")
	assert.ErrorIs(t, err, auth.ErrNoOAuthConfig)

	_, err = auth.NewStaticToken("").OAuthToken()
	assert.ErrorIs(t, err, auth.ErrTokenNotSet)
}

func TestTokenRedirectURL(t *testing.T) {
	cfg := &oauth2.Config{
		ClientID:    "client",
		RedirectURL: "http://localhost/oauth",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://accounts.example.org/auth"},
	}

	tok, err := auth.NewToken(cfg, "")
	require.NoError(t, err)

	u, err := tok.RedirectURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://accounts.example.org/auth?"))
	assert.Contains(t, u, "state=")
	assert.Contains(t, u, "access_type=offline")

	err = tok.AuthorizeCode(context.Background(), "code", "unknown-state")
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestTokenPersistMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	tok, err := auth.NewToken(&oauth2.Config{}, path)
	require.NoError(t, err)

	_, err = tok.OAuthToken()
	assert.ErrorIs(t, err, auth.ErrTokenNotSet)

	require.NoError(t, tok.Persist())
	assert.NoFileExists(t, path)
}

func TestAuthorizeCodePersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.fresh","token_type":"Bearer","refresh_token":"r"}`))
	}))
	defer srv.Close()

	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/oauth",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"},
	}
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	tok, err := auth.NewToken(cfg, path)
	require.NoError(t, err)

	redirect, err := tok.RedirectURL()
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	require.NoError(t, tok.AuthorizeCode(context.Background(), "the-code", state))
	assert.ErrorIs(t, tok.AuthorizeCode(context.Background(), "the-code", state), auth.ErrInvalidState)

	require.NoError(t, tok.Persist())
	assert.FileExists(t, path)

	reloaded, err := auth.NewToken(cfg, path)
	require.NoError(t, err)
	ot, err := reloaded.OAuthToken()
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", ot.AccessToken)
	assert.Equal(t, "r", ot.RefreshToken)
}

func TestHTTPHandler(t *testing.T) {
	cases := []struct {
		name           string
		tok            *auth.Token
		query          string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no_token",
			tok:            auth.NewStaticToken(""),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Token not found",
		},
		{
			name:           "masked_token",
			tok:            auth.NewStaticToken("abcdefgh1234"),
			expectedStatus: http.StatusOK,
			expectedBody:   "Token: XXXXXXXX1234, expires: never",
		},
		{
			name:           "redirect_without_oauth_client",
			tok:            auth.NewStaticToken("abcdefgh1234"),
			query:          "?redirect=1",
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "bad_code",
			tok:            auth.NewStaticToken(""),
			query:          "?code=abc&state=xyz",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/oauth"+tc.query, nil)

			auth.NewHTTPHandler(tc.tok).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tc.expectedBody)
			}
		})
	}
}

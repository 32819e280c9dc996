package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type tokenFlow interface {
	AuthorizeCode(ctx context.Context, code, state string) error
	OAuthToken() (*oauth2.Token, error)
	RedirectURL() (string, error)
}

// HTTPHandler serves the OAuth flow on one path:
//
//	?redirect=1          sends the browser to the consent page
//	?code=..&state=..    completes the flow
//	otherwise            shows the masked current token
type HTTPHandler struct {
	flow tokenFlow
}

func NewHTTPHandler(flow tokenFlow) *HTTPHandler {
	return &HTTPHandler{flow: flow}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch {
	case q.Get("redirect") != "":
		h.consent(w, r)
	case q.Get("code") != "":
		h.callback(w, r, q.Get("code"), q.Get("state"))
	default:
		h.status(w)
	}
}

func (h *HTTPHandler) consent(w http.ResponseWriter, r *http.Request) {
	u, err := h.flow.RedirectURL()
	if err != nil {
		log.Error().Err(err).Msg("flow.RedirectURL failed")
		http.Error(w, "OAuth flow is not available", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, u, http.StatusFound)
}

func (h *HTTPHandler) callback(w http.ResponseWriter, r *http.Request, code, state string) {
	if err := h.flow.AuthorizeCode(r.Context(), code, state); err != nil {
		log.Error().Err(err).Msg("flow.AuthorizeCode failed")
		http.Error(w, "Unable to authorize provided code", http.StatusBadRequest)
		return
	}
	log.Info().Msg("google account authorized")
	http.Redirect(w, r, r.URL.EscapedPath(), http.StatusFound)
}

func (h *HTTPHandler) status(w http.ResponseWriter) {
	t, err := h.flow.OAuthToken()
	switch {
	case errors.Is(err, ErrTokenNotSet):
		http.Error(w, "Token not found", http.StatusUnauthorized)
		return
	case err != nil:
		http.Error(w, "Token unavailable", http.StatusInternalServerError)
		return
	}

	expires := "never"
	if !t.Expiry.IsZero() {
		expires = t.Expiry.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Token: %s, expires: %s", mask(t.AccessToken, 4), expires)
}

// mask hides all but the last keep runes of s.
func mask(s string, keep int) string {
	rs := []rune(s)
	if len(rs) <= keep {
		return s
	}
	return strings.Repeat("X", len(rs)-keep) + string(rs[len(rs)-keep:])
}

package apierr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		kind      apierr.Kind
		retryable bool
	}{
		{name: "nil", err: nil, kind: apierr.KindNone},
		{name: "config", err: apierr.Config("SLACK_BOT_TOKEN"), kind: apierr.KindConfig},
		{name: "wrapped_config", err: fmt.Errorf("slack: %w", apierr.Config("SLACK_BOT_TOKEN")), kind: apierr.KindConfig},
		{name: "http_400", err: apierr.HTTP("search failed", http.StatusBadRequest, []byte("bad")), kind: apierr.KindUpstream},
		{name: "http_429", err: apierr.HTTP("search failed", http.StatusTooManyRequests, nil), kind: apierr.KindTransient, retryable: true},
		{name: "google_404", err: &googleapi.Error{Code: http.StatusNotFound}, kind: apierr.KindUpstream},
		{name: "google_429", err: fmt.Errorf("list: %w", &googleapi.Error{Code: http.StatusTooManyRequests}), kind: apierr.KindTransient, retryable: true},
		{name: "canceled", err: context.Canceled, kind: apierr.KindUpstream},
		{name: "plain", err: errors.New("boom"), kind: apierr.KindInternal},
		{name: "invalid", err: apierr.InvalidParams("to is required"), kind: apierr.KindInvalidParams},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, apierr.KindOf(tc.err))
			assert.Equal(t, tc.retryable, apierr.Retryable(tc.err))
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := apierr.HTTP("Google search failed", http.StatusForbidden, []byte(`{"error":"quota"}`))

	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), `{"error":"quota"}`)
}

func TestHTTPErrorBodyKeepsRunes(t *testing.T) {
	body := "a" + strings.Repeat("é", 300)

	err := apierr.HTTP("fetch failed", http.StatusBadGateway, []byte(body))

	var ae *apierr.Error
	assert.True(t, errors.As(err, &ae))
	kept := ae.Err.Error()
	assert.True(t, utf8.ValidString(kept))
	assert.Len(t, kept, 511)
	assert.True(t, strings.HasPrefix(body, kept))
}

// Package apierr classifies provider failures so callers can decide whether
// to retry, report or give up.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"unicode/utf8"

	"google.golang.org/api/googleapi"
)

// Kind groups failures by how the dispatcher should treat them.
type Kind string

const (
	KindNone          Kind = ""
	KindConfig        Kind = "config"
	KindUpstream      Kind = "upstream"
	KindTransient     Kind = "transient"
	KindNotFound      Kind = "not_found"
	KindInvalidParams Kind = "invalid_params"
	KindInternal      Kind = "internal"
)

// ErrNotConfigured is wrapped by every missing-credential failure.
var ErrNotConfigured = errors.New("provider not configured")

// Error is a classified failure.
type Error struct {
	Kind   Kind
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Msg, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", e.Msg, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config reports a missing credential or setting.
func Config(what string) error {
	return &Error{Kind: KindConfig, Msg: what + " not configured", Err: ErrNotConfigured}
}

// InvalidParams reports a request that cannot be executed as given.
func InvalidParams(format string, args ...any) error {
	return &Error{Kind: KindInvalidParams, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown provider or operation.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

const maxBodyInError = 512

// HTTP maps a non-2xx response to an upstream or transient error. The body
// is embedded in the message, trimmed to keep logs readable.
func HTTP(msg string, status int, body []byte) error {
	kind := KindUpstream
	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		kind = KindTransient
	}

	b := string(body)
	if len(b) > maxBodyInError {
		cut := maxBodyInError
		for cut > 0 && !utf8.RuneStart(b[cut]) {
			cut--
		}
		b = b[:cut]
	}

	return &Error{Kind: kind, Status: status, Msg: msg, Err: errors.New(b)}
}

// Transport wraps a network-level failure.
func Transport(msg string, err error) error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// KindOf classifies any error. Unclassified errors are inspected for known
// library error types before being treated as internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}

	if errors.Is(err, ErrNotConfigured) {
		return KindConfig
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code == http.StatusServiceUnavailable {
			return KindTransient
		}
		return KindUpstream
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindUpstream
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return KindTransient
	}

	return KindInternal
}

// Retryable reports whether another attempt may succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

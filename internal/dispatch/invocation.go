// Package dispatch forwards tool invocations to the handler registered for
// their (provider, operation) pair and normalizes every outcome into a
// Result.
package dispatch

import (
	"github.com/hal9000y/mcp-chat/internal/apierr"
)

// Provider names a third-party backend.
type Provider string

const (
	Gmail     Provider = "gmail"
	Calendar  Provider = "calendar"
	Drive     Provider = "drive"
	Google    Provider = "google"
	Slack     Provider = "slack"
	Maps      Provider = "maps"
	Wikipedia Provider = "wikipedia"
	WebAccess Provider = "web_access"
	LLM       Provider = "llm"
)

// Params carries JSON-compatible invocation parameters.
type Params map[string]any

// Invocation is one planned provider call.
type Invocation struct {
	Provider  Provider `json:"provider"`
	Operation string   `json:"operation"`
	Params    Params   `json:"parameters"`
}

// Name returns "provider.operation".
func (i Invocation) Name() string {
	return string(i.Provider) + "." + i.Operation
}

// Result is the outcome of one invocation. Exactly one of Payload and Error
// is meaningful, depending on Success.
type Result struct {
	Invocation Invocation  `json:"invocation"`
	Success    bool        `json:"success"`
	Payload    any         `json:"payload,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       apierr.Kind `json:"error_kind,omitempty"`
}

// PayloadAs returns the payload of a successful result as T.
func PayloadAs[T any](r Result) (T, bool) {
	var zero T
	if !r.Success {
		return zero, false
	}

	switch p := r.Payload.(type) {
	case T:
		return p, true
	case *T:
		if p != nil {
			return *p, true
		}
	}

	return zero, false
}

// Status records which providers have their credentials configured.
type Status map[Provider]bool

// Configured reports whether p may be called.
func (s Status) Configured(p Provider) bool {
	if s == nil {
		return true
	}
	return s[p]
}

// AnyCredentialed reports whether at least one provider that needs
// credentials is configured.
func (s Status) AnyCredentialed() bool {
	for _, p := range []Provider{Gmail, Calendar, Drive, Google, Slack, Maps, LLM} {
		if s[p] {
			return true
		}
	}
	return false
}

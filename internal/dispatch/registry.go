package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

// Handler executes one operation.
type Handler func(ctx context.Context, params Params) (any, error)

type registryKey struct {
	provider  Provider
	operation string
}

type entry struct {
	handler  Handler
	readOnly bool
}

// HandlerOption tunes a registered handler.
type HandlerOption func(*entry)

// ReadOnly marks an operation as safe to retry.
func ReadOnly() HandlerOption {
	return func(e *entry) { e.readOnly = true }
}

// Registry maps (provider, operation) pairs to handlers. It is populated at
// startup and read-only afterwards.
type Registry struct {
	entries map[registryKey]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[registryKey]entry)}
}

// Handle registers h, replacing any previous handler for the same pair.
func (r *Registry) Handle(p Provider, op string, h Handler, opts ...HandlerOption) {
	e := entry{handler: h}
	for _, opt := range opts {
		opt(&e)
	}
	r.entries[registryKey{provider: p, operation: op}] = e
}

// Add registers a typed handler. Parameters are decoded into In through
// their JSON form, so field names follow In's json tags.
func Add[In, Out any](r *Registry, p Provider, op string, fn func(context.Context, In) (Out, error), opts ...HandlerOption) {
	r.Handle(p, op, func(ctx context.Context, params Params) (any, error) {
		var in In
		if err := decodeParams(params, &in); err != nil {
			return nil, apierr.InvalidParams("%s.%s: %v", p, op, err)
		}
		return fn(ctx, in)
	}, opts...)
}

// Has reports whether a handler exists for the pair.
func (r *Registry) Has(p Provider, op string) bool {
	_, ok := r.entries[registryKey{provider: p, operation: op}]
	return ok
}

// Operations lists every registered "provider.operation", sorted.
func (r *Registry) Operations() []string {
	ops := make([]string, 0, len(r.entries))
	for k := range r.entries {
		ops = append(ops, string(k.provider)+"."+k.operation)
	}
	sort.Strings(ops)
	return ops
}

func (r *Registry) lookup(p Provider, op string) (entry, error) {
	e, ok := r.entries[registryKey{provider: p, operation: op}]
	if !ok {
		return entry{}, apierr.NotFound("unknown operation %s.%s", p, op)
	}
	return e, nil
}

func decodeParams(params Params, out any) error {
	if len(params) == 0 {
		return nil
	}

	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("json.Marshal failed: %w", err)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %w", err)
	}

	return nil
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/hal9000y/mcp-chat/internal/apierr"
	"github.com/hal9000y/mcp-chat/internal/safety"
)

const defaultMaxRetries = 2

type metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)

	return &metrics{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpchat_tool_calls_total",
				Help: "Total number of dispatched tool calls",
			},
			[]string{"provider", "operation", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "mcpchat_tool_call_duration_seconds",
				Help: "Tool call duration in seconds, retries included",
			},
			[]string{"provider", "operation"},
		),
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBackOff replaces the retry schedule used for transient failures of
// read-only operations.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(d *Dispatcher) { d.newBackOff = newBackOff }
}

// WithMaxRetries bounds the number of retries after the first attempt.
func WithMaxRetries(n uint64) Option {
	return func(d *Dispatcher) { d.maxRetries = n }
}

// WithRegisterer registers the dispatcher metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Dispatcher) { d.metrics = newMetrics(reg) }
}

// Dispatcher executes invocations against a Registry.
type Dispatcher struct {
	reg        *Registry
	status     Status
	newBackOff func() backoff.BackOff
	maxRetries uint64
	metrics    *metrics
}

// New creates a Dispatcher. Providers missing from status fail with a
// config error without reaching their handler; a nil status allows all.
func New(reg *Registry, status Status, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:        reg,
		status:     status,
		newBackOff: defaultBackOff,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = newMetrics(nil)
	}

	return d
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

// Status returns the provider configuration the dispatcher was built with.
func (d *Dispatcher) Status() Status {
	return d.status
}

// Dispatch runs inv and never returns an error: failures are folded into
// the Result with their kind.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) Result {
	start := time.Now()
	payload, err := d.call(ctx, inv)
	elapsed := time.Since(start)

	res := Result{Invocation: inv, Success: err == nil, Payload: payload}
	outcome := "success"
	if err != nil {
		res.Payload = nil
		res.Kind = apierr.KindOf(err)
		res.Error = safety.Sanitize(err.Error())
		outcome = string(res.Kind)

		log.Warn().
			Str("invocation", inv.Name()).
			Str("kind", string(res.Kind)).
			Dur("took", elapsed).
			Msg(res.Error)
	} else {
		log.Debug().
			Str("invocation", inv.Name()).
			Dur("took", elapsed).
			Msg("tool call succeeded")
	}

	d.metrics.calls.WithLabelValues(string(inv.Provider), inv.Operation, outcome).Inc()
	d.metrics.duration.WithLabelValues(string(inv.Provider), inv.Operation).Observe(elapsed.Seconds())

	return res
}

// DispatchAll runs invocations one after another, keeping input order.
func (d *Dispatcher) DispatchAll(ctx context.Context, invs []Invocation) []Result {
	results := make([]Result, 0, len(invs))
	for _, inv := range invs {
		results = append(results, d.Dispatch(ctx, inv))
	}
	return results
}

func (d *Dispatcher) call(ctx context.Context, inv Invocation) (any, error) {
	e, err := d.reg.lookup(inv.Provider, inv.Operation)
	if err != nil {
		return nil, err
	}

	if !d.status.Configured(inv.Provider) {
		return nil, apierr.Config(string(inv.Provider) + " credentials")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request ended before call: %w", err)
	}

	if !e.readOnly {
		return e.handler(ctx, inv.Params)
	}

	var payload any
	attempt := 0
	op := func() error {
		attempt++
		p, err := e.handler(ctx, inv.Params)
		if err == nil {
			payload = p
			return nil
		}
		if !apierr.Retryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		log.Debug().Str("invocation", inv.Name()).Int("attempt", attempt).Err(err).Msg("retrying")
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), d.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}

	return payload, nil
}

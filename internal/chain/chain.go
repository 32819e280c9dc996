// Package chain runs a routed plan and feeds the text its results carry
// (email bodies, calendar events, document content) into follow-up
// provider calls.
package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/router"
	"github.com/hal9000y/mcp-chat/internal/safety"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

const (
	DefaultMaxURLs   = 3
	DefaultMaxImages = 3

	gmailReadLimit     = 5
	maxDriveFiles      = 3
	imageSearchResults = 5
	defaultFanOut      = 4
)

// Request is one chat turn. Use NewRequest for the documented defaults.
type Request struct {
	Message            string `json:"message" jsonschema:"the user utterance"`
	MaxURLs            int    `json:"max_urls" jsonschema:"cap on URLs fetched from results"`
	MaxImages          int    `json:"max_images" jsonschema:"cap on image URLs analyzed"`
	EnableToolChaining bool   `json:"enable_tool_chaining" jsonschema:"run follow-up calls on results"`
	ProcessImages      bool   `json:"process_images" jsonschema:"analyze image URLs separately"`
	EnableSummary      bool   `json:"enable_summary" jsonschema:"summarize email bodies with the LLM"`
}

func NewRequest(message string) Request {
	return Request{
		Message:            message,
		MaxURLs:            DefaultMaxURLs,
		MaxImages:          DefaultMaxImages,
		EnableToolChaining: true,
		ProcessImages:      true,
	}
}

type Response struct {
	RequestID       string                   `json:"request_id"`
	Success         bool                     `json:"success"`
	Message         string                   `json:"message"`
	ToolResults     []dispatch.Result        `json:"tool_results"`
	ProcessedURLs   []URLResult              `json:"processed_urls"`
	ProcessedImages []ImageResult            `json:"processed_images"`
	CalendarUpdates []CalendarUpdate         `json:"calendar_updates"`
	Instructions    []InstructionOutcome     `json:"instructions"`
	Emails          []toolset.MessageContent `json:"emails,omitempty"`
	Error           string                   `json:"error,omitempty"`
}

type dispatcher interface {
	Dispatch(ctx context.Context, inv dispatch.Invocation) dispatch.Result
	Status() dispatch.Status
}

type planner interface {
	Route(text string) router.Plan
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithAutoApply controls whether computed calendar changes are written
// back or only reported.
func WithAutoApply(apply bool) Option {
	return func(o *Orchestrator) { o.autoApply = apply }
}

// WithFanOut bounds concurrent follow-up calls within one request.
func WithFanOut(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.fanOut = n
		}
	}
}

func WithDateOptions(opts ...extract.DateOption) Option {
	return func(o *Orchestrator) { o.dateOpts = opts }
}

type Orchestrator struct {
	d         dispatcher
	p         planner
	now       func() time.Time
	autoApply bool
	fanOut    int
	dateOpts  []extract.DateOption
}

func New(d dispatcher, p planner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		d:         d,
		p:         p,
		now:       time.Now,
		autoApply: true,
		fanOut:    defaultFanOut,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan routes a message without calling any provider.
func (o *Orchestrator) Plan(message string) router.Plan {
	return o.p.Route(message)
}

// Connected reports whether any credentialed provider is configured.
func (o *Orchestrator) Connected() bool {
	return o.d.Status().AnyCredentialed()
}

// Chat routes the message, runs the plan and, when enabled, the chains
// its results trigger. Provider failures are reported inside the response.
func (o *Orchestrator) Chat(ctx context.Context, req Request) Response {
	resp := Response{
		RequestID:       uuid.NewString(),
		ToolResults:     []dispatch.Result{},
		ProcessedURLs:   []URLResult{},
		ProcessedImages: []ImageResult{},
		CalendarUpdates: []CalendarUpdate{},
		Instructions:    []InstructionOutcome{},
	}
	logger := log.With().Str("request_id", resp.RequestID).Logger()

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		resp.Error = "message is required"
		resp.Message = resp.Error
		return resp
	}
	req.MaxURLs = max(req.MaxURLs, 0)
	req.MaxImages = max(req.MaxImages, 0)

	plan := o.p.Route(msg)
	logger.Info().
		Str("message", safety.Sanitize(msg)).
		Int("invocations", len(plan.Invocations)).
		Bool("gmail_read", plan.GmailRead).
		Msg("routed")

	r := &run{o: o, req: req, resp: &resp}
	if plan.GmailRead {
		r.gmailRead(ctx)
	} else {
		r.execute(ctx, plan)
	}

	resp.Success = len(resp.ToolResults) == 0
	for _, res := range resp.ToolResults {
		if res.Success {
			resp.Success = true
			break
		}
	}
	if !resp.Success {
		resp.Error = resp.ToolResults[0].Error
	}
	resp.Message = describe(&resp)

	logger.Info().
		Bool("success", resp.Success).
		Int("tool_results", len(resp.ToolResults)).
		Int("urls", len(resp.ProcessedURLs)).
		Int("images", len(resp.ProcessedImages)).
		Msg("chat done")

	return resp
}

// run carries the state of one Chat call.
type run struct {
	o    *Orchestrator
	req  Request
	resp *Response
}

func (r *run) dispatch(ctx context.Context, inv dispatch.Invocation) dispatch.Result {
	res := r.o.d.Dispatch(ctx, inv)
	r.resp.ToolResults = append(r.resp.ToolResults, res)
	return res
}

func (r *run) execute(ctx context.Context, plan router.Plan) {
	var (
		events []toolset.Event
		files  []toolset.DriveFile
		seen   = make(map[string]struct{})
	)

	for _, inv := range plan.Invocations {
		res := r.dispatch(ctx, inv)
		if !res.Success {
			continue
		}

		switch inv.Name() {
		case "calendar." + toolset.OpGetEvents:
			if out, ok := dispatch.PayloadAs[toolset.GetEventsResponse](res); ok {
				events = append(events, out.Events...)
			}
		case "drive." + toolset.OpSearch:
			if out, ok := dispatch.PayloadAs[toolset.DriveSearchResponse](res); ok {
				for _, f := range out.Files {
					if _, dup := seen[f.ID]; dup {
						continue
					}
					seen[f.ID] = struct{}{}
					files = append(files, f)
				}
			}
		}
	}

	if !r.req.EnableToolChaining {
		return
	}
	if len(events) > 0 {
		r.calendarChain(ctx, events)
	}
	if plan.ProcessContent && len(files) > 0 {
		r.driveChain(ctx, files)
	}
}

func describe(resp *Response) string {
	if len(resp.ToolResults) == 0 {
		return "No tools were called."
	}

	ok := 0
	for _, res := range resp.ToolResults {
		if res.Success {
			ok++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Processed your request with %d tool calls (%d succeeded).", len(resp.ToolResults), ok)
	if n := len(resp.ProcessedURLs); n > 0 {
		fmt.Fprintf(&b, " URLs processed: %d.", n)
	}
	if n := len(resp.ProcessedImages); n > 0 {
		fmt.Fprintf(&b, " Images processed: %d.", n)
	}
	if n := len(resp.CalendarUpdates); n > 0 {
		fmt.Fprintf(&b, " Calendar events analyzed: %d.", n)
	}
	if n := len(resp.Instructions); n > 0 {
		fmt.Fprintf(&b, " Instructions processed: %d.", n)
	}

	return b.String()
}

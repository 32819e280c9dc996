// Package router turns a free-text utterance into a plan of provider
// invocations using an ordered table of keyword rules.
package router

import (
	"regexp"
	"strings"
	"time"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

// Plan is the routing outcome. When GmailRead is set the invocations are
// empty and the caller runs the Gmail read chain instead. ProcessContent
// asks for the Drive instruction chain over any files found.
type Plan struct {
	Invocations    []dispatch.Invocation `json:"invocations"`
	GmailRead      bool                  `json:"gmail_read"`
	ProcessContent bool                  `json:"process_content"`
}

type utterance struct {
	raw   string
	lower string
	urls  []string
}

func (u utterance) has(words ...string) bool {
	for _, w := range words {
		if strings.Contains(u.lower, w) {
			return true
		}
	}
	return false
}

type rule struct {
	name  string
	match func(u utterance) bool
	build func(r *Router, u utterance, p *Plan)
}

type Option func(*Router)

// WithClock sets the time source used for relative dates and default
// event times.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// WithLocation sets the zone new calendar events are created in.
func WithLocation(loc *time.Location) Option {
	return func(r *Router) { r.loc = loc }
}

// WithDateOptions tunes date extraction for calendar events.
func WithDateOptions(opts ...extract.DateOption) Option {
	return func(r *Router) { r.dateOpts = opts }
}

type Router struct {
	now      func() time.Time
	loc      *time.Location
	dateOpts []extract.DateOption
}

func New(opts ...Option) *Router {
	r := &Router{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var rules = []rule{
	{name: "drive", match: isDrive, build: (*Router).driveSearch},
	{name: "web_search", match: isWebSearch, build: (*Router).webSearch},
	{name: "slack", match: isSlack, build: (*Router).slackMessage},
	{name: "location", match: isLocation, build: (*Router).geocode},
	{name: "file_listing", match: isFileListing, build: (*Router).listFiles},
	{name: "calendar", match: isCalendar, build: (*Router).calendar},
	{name: "gmail", match: isGmail, build: (*Router).gmail},
	{name: "urls", match: hasURLs, build: (*Router).fetchURLs},
	{name: "reference", match: isReference, build: (*Router).webSearch},
}

// Route applies every matching rule in order. A Gmail read request stops
// routing; an utterance no rule matched becomes a web search.
func (r *Router) Route(text string) Plan {
	u := utterance{raw: text, lower: strings.ToLower(text), urls: extract.URLs(text)}

	p := Plan{ProcessContent: u.has("read", "content", "instructions", "process", "open", "view", "summarize")}

	fired := false
	for _, rl := range rules {
		if !rl.match(u) {
			continue
		}
		fired = true
		rl.build(r, u, &p)
		if p.GmailRead {
			p.Invocations = nil
			return p
		}
	}

	if !fired {
		r.webSearch(u, &p)
	}

	return p
}

// Rules lists the rule names in evaluation order.
func Rules() []string {
	names := make([]string, 0, len(rules))
	for _, rl := range rules {
		names = append(names, rl.name)
	}
	return names
}

func isDrive(u utterance) bool {
	return u.has("drive", "file", "search", "retrieve") && !u.has("web", "internet", "news", "weather")
}

func isWebSearch(u utterance) bool {
	if isDrive(u) {
		return false
	}
	return u.has("search", "find", "google", "look up", "what is", "how to", "weather", "news", "information about", "tell me about") ||
		u.has("capital of", "population of", "temperature", "forecast", "definition of", "meaning of", "who is", "where is")
}

func isSlack(u utterance) bool {
	return u.has("slack") && !u.has("gmail", "email", "mail")
}

func isLocation(u utterance) bool {
	return u.has("location", "map", "address", "where")
}

func isFileListing(u utterance) bool {
	return u.has("list files", "show files", "what files", "drive files", "all files")
}

func isCalendar(u utterance) bool {
	return u.has("calendar", "calender", "events", "schedule", "meeting", "event", "appointment")
}

func isGmail(u utterance) bool {
	return u.has("gmail", "email", "mail", "inbox", "emails", "messages")
}

func hasURLs(u utterance) bool {
	return len(u.urls) > 0
}

func isReference(u utterance) bool {
	return len(u.urls) == 0 &&
		u.has("reference", "access", "website", "page", "article") &&
		u.has("wikipedia", "wiki", "site", "url")
}

func invocation(p dispatch.Provider, op string, params dispatch.Params) dispatch.Invocation {
	return dispatch.Invocation{Provider: p, Operation: op, Params: params}
}

func (r *Router) webSearch(u utterance, p *Plan) {
	p.Invocations = append(p.Invocations, invocation(dispatch.Google, toolset.OpSearch, dispatch.Params{"query": u.raw}))
}

func (r *Router) slackMessage(u utterance, p *Plan) {
	p.Invocations = append(p.Invocations, invocation(dispatch.Slack, toolset.OpSendMessage, dispatch.Params{
		"channel": "#general",
		"text":    u.raw,
	}))
}

func (r *Router) geocode(u utterance, p *Plan) {
	p.Invocations = append(p.Invocations, invocation(dispatch.Maps, toolset.OpGeocode, dispatch.Params{"address": u.raw}))
}

func (r *Router) listFiles(_ utterance, p *Plan) {
	p.Invocations = append(p.Invocations, invocation(dispatch.Drive, toolset.OpSearch, dispatch.Params{"query": ""}))
}

func (r *Router) driveSearch(u utterance, p *Plan) {
	q := DriveQuery(u.raw)
	p.Invocations = append(p.Invocations, invocation(dispatch.Drive, toolset.OpSearch, dispatch.Params{"query": q}))

	if u.has("named", "called") || strings.Contains(strings.ToLower(q), "example") {
		for _, alt := range DriveAlternates(q) {
			p.Invocations = append(p.Invocations, invocation(dispatch.Drive, toolset.OpSearch, dispatch.Params{"query": alt}))
		}
	}
}

func (r *Router) calendar(u utterance, p *Plan) {
	if u.has("create", "add", "new", "make", "set up", "setup") {
		ev := r.NewEvent(u.raw)
		p.Invocations = append(p.Invocations, invocation(dispatch.Calendar, toolset.OpCreateEvent, dispatch.Params{
			"summary":     ev.Summary,
			"start_time":  ev.Start.Format(time.RFC3339),
			"end_time":    ev.End.Format(time.RFC3339),
			"description": ev.Description,
		}))
		return
	}

	now := r.now()
	p.Invocations = append(p.Invocations, invocation(dispatch.Calendar, toolset.OpGetEvents, dispatch.Params{
		"time_min":    now.AddDate(0, 0, -1).Format(time.RFC3339),
		"time_max":    now.AddDate(0, 0, 1).Format(time.RFC3339),
		"max_results": 20,
	}))
}

const (
	defaultDigestTarget = "user@example.com"
	defaultEmailSubject = "Test Email"
)

func (r *Router) gmail(u utterance, p *Plan) {
	email, _ := extract.Email(u.raw)

	switch {
	case u.has("summarize", "summary", "summarise"):
		if email == "" {
			email = defaultDigestTarget
		}
		p.Invocations = append(p.Invocations, invocation(dispatch.Gmail, toolset.OpSummarizeAndSend, dispatch.Params{
			"target_email": email,
			"max_emails":   10,
		}))
	case u.has("send", "compose", "write", "create"):
		p.Invocations = append(p.Invocations, invocation(dispatch.Gmail, toolset.OpSendMessage, dispatch.Params{
			"to":      email,
			"subject": emailSubject(u.raw),
			"body":    u.raw,
		}))
	default:
		p.GmailRead = true
	}
}

func (r *Router) fetchURLs(u utterance, p *Plan) {
	for _, link := range u.urls {
		if strings.Contains(strings.ToLower(link), "wikipedia.org") {
			p.Invocations = append(p.Invocations, invocation(dispatch.Wikipedia, toolset.OpGetPage, dispatch.Params{
				"title": wikiTitle(link),
				"url":   link,
			}))
			continue
		}
		p.Invocations = append(p.Invocations, invocation(dispatch.WebAccess, toolset.OpGetContent, dispatch.Params{"url": link}))
	}
}

func wikiTitle(link string) string {
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	return strings.ReplaceAll(link, "_", " ")
}

var subjectRe = regexp.MustCompile(`(?i)\bsubject\s*:?\s*["']([^"']+)["']`)

func emailSubject(text string) string {
	if m := subjectRe.FindStringSubmatch(text); m != nil {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	return defaultEmailSubject
}

package chain

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hal9000y/mcp-chat/internal/dispatch"
	"github.com/hal9000y/mcp-chat/internal/extract"
	"github.com/hal9000y/mcp-chat/internal/toolset"
)

var (
	addCues    = []string{"add email", "invite", "add attendee", "include"}
	removeCues = []string{"remove email", "uninvite", "remove attendee", "exclude"}
)

// CalendarUpdate reports what was read from one event and the change, if
// any, derived from it. Applied is set once the change was written.
type CalendarUpdate struct {
	EventID        string         `json:"event_id"`
	Summary        string         `json:"summary"`
	ExtractedDate  string         `json:"extracted_date,omitempty"`
	ExtractedTime  string         `json:"extracted_time,omitempty"`
	ExtractedEmail string         `json:"extracted_email,omitempty"`
	StartTime      string         `json:"start_time,omitempty"`
	EndTime        string         `json:"end_time,omitempty"`
	Attendees      []string       `json:"attendees,omitempty"`
	Applied        bool           `json:"applied"`
	Result         *toolset.Event `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
}

func (u CalendarUpdate) changed() bool {
	return u.StartTime != "" || u.Attendees != nil
}

func (r *run) calendarChain(ctx context.Context, events []toolset.Event) {
	var urls []string
	seen := make(map[string]struct{})

	for _, ev := range events {
		text := eventText(ev)

		for _, u := range extract.URLs(text) {
			if _, ok := seen[u]; !ok {
				seen[u] = struct{}{}
				urls = append(urls, u)
			}
		}

		upd := proposeUpdate(ev, text, r.o.now(), r.o.dateOpts...)
		if upd.ExtractedDate == "" && upd.ExtractedTime == "" && upd.ExtractedEmail == "" {
			continue
		}

		if upd.changed() && r.o.autoApply {
			r.applyUpdate(ctx, &upd)
		}
		r.resp.CalendarUpdates = append(r.resp.CalendarUpdates, upd)
	}

	r.processURLs(ctx, urls)
}

func eventText(ev toolset.Event) string {
	return strings.TrimSpace(strings.Join([]string{ev.Summary, ev.Description, ev.Location}, " "))
}

// proposeUpdate moves a timed event to the extracted date and/or time,
// keeping its duration, and edits attendees according to cues in the
// description. Remove cues win over add cues.
func proposeUpdate(ev toolset.Event, text string, now time.Time, opts ...extract.DateOption) CalendarUpdate {
	upd := CalendarUpdate{EventID: ev.ID, Summary: ev.Summary}
	upd.ExtractedDate, _ = extract.Date(text, now, opts...)
	upd.ExtractedTime, _ = extract.Time(text)
	upd.ExtractedEmail, _ = extract.Email(text)

	if (upd.ExtractedDate != "" || upd.ExtractedTime != "") && !ev.AllDay {
		if start, end, ok := reschedule(ev, upd.ExtractedDate, upd.ExtractedTime); ok {
			upd.StartTime = start.Format(time.RFC3339)
			upd.EndTime = end.Format(time.RFC3339)
		}
	}

	if email := upd.ExtractedEmail; email != "" {
		desc := strings.ToLower(ev.Description)
		present := slices.Contains(ev.Attendees, email)

		switch {
		case containsAny(desc, removeCues...):
			if present {
				upd.Attendees = slices.DeleteFunc(slices.Clone(ev.Attendees), func(a string) bool { return a == email })
			}
		case containsAny(desc, addCues...):
			if !present {
				upd.Attendees = append(slices.Clone(ev.Attendees), email)
			}
		}
	}

	return upd
}

// reschedule returns the new start and end, or false when the event has
// no parsable start or nothing moves.
func reschedule(ev toolset.Event, date, clock string) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, ev.Start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	duration := time.Hour
	if end, err := time.Parse(time.RFC3339, ev.End); err == nil {
		duration = end.Sub(start)
	}

	moved := start
	if date != "" {
		if d, err := time.Parse("2006-01-02", date); err == nil {
			moved = time.Date(d.Year(), d.Month(), d.Day(), moved.Hour(), moved.Minute(), moved.Second(), 0, moved.Location())
		}
	}
	if clock != "" {
		if h, m, ok := extract.ParseClock(clock); ok {
			moved = time.Date(moved.Year(), moved.Month(), moved.Day(), h, m, 0, 0, moved.Location())
		}
	}

	if moved.Equal(start) {
		return time.Time{}, time.Time{}, false
	}

	return moved, moved.Add(duration), true
}

func (r *run) applyUpdate(ctx context.Context, upd *CalendarUpdate) {
	params := dispatch.Params{"event_id": upd.EventID}
	if upd.StartTime != "" {
		params["start_time"] = upd.StartTime
		params["end_time"] = upd.EndTime
	}
	if upd.Attendees != nil {
		params["attendees"] = upd.Attendees
	}

	res := r.dispatch(ctx, dispatch.Invocation{
		Provider:  dispatch.Calendar,
		Operation: toolset.OpUpdateEvent,
		Params:    params,
	})
	if !res.Success {
		upd.Error = res.Error
		return
	}

	upd.Applied = true
	if ev, ok := dispatch.PayloadAs[toolset.Event](res); ok {
		upd.Result = &ev
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

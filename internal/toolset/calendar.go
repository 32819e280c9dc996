package toolset

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/hal9000y/mcp-chat/internal/apierr"
)

type GetEventsRequest struct {
	TimeMin    string `json:"time_min,omitempty" jsonschema:"RFC 3339 lower bound, defaults to a week ago"`
	TimeMax    string `json:"time_max,omitempty" jsonschema:"RFC 3339 upper bound, defaults to 30 days ahead"`
	MaxResults int64  `json:"max_results,omitempty" jsonschema:"max events to return"`
}

type GetEventsResponse struct {
	Events        []Event `json:"events"`
	Total         int     `json:"total"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Event is a calendar event. Start and End hold RFC 3339 date-times for
// timed events and plain dates for all-day ones.
type Event struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	AllDay      bool     `json:"all_day,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
	HTMLLink    string   `json:"html_link,omitempty"`
}

type CreateEventRequest struct {
	Summary     string   `json:"summary" jsonschema:"event title"`
	StartTime   string   `json:"start_time" jsonschema:"RFC 3339 start"`
	EndTime     string   `json:"end_time" jsonschema:"RFC 3339 end"`
	Description string   `json:"description,omitempty" jsonschema:"event description"`
	Attendees   []string `json:"attendees,omitempty" jsonschema:"attendee addresses"`
}

// UpdateEventRequest patches an event. Nil fields are left untouched; a
// non-nil empty Attendees clears the list.
type UpdateEventRequest struct {
	EventID     string    `json:"event_id" jsonschema:"the event ID"`
	Summary     *string   `json:"summary,omitempty"`
	StartTime   *string   `json:"start_time,omitempty"`
	EndTime     *string   `json:"end_time,omitempty"`
	Description *string   `json:"description,omitempty"`
	Attendees   *[]string `json:"attendees,omitempty"`
}

type calendarSvc interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) (*calendar.Events, error)
	InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error)
	PatchEvent(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error)
}

func NewCalendar(svc calendarSvc, now func() time.Time) *Calendar {
	if now == nil {
		now = time.Now
	}
	return &Calendar{svc: svc, now: now}
}

type Calendar struct {
	svc calendarSvc
	now func() time.Time
}

func (t *Calendar) GetEvents(ctx context.Context, input GetEventsRequest) (GetEventsResponse, error) {
	now := t.now()

	timeMin, err := parseOptionalTime("time_min", input.TimeMin, now.AddDate(0, 0, -7))
	if err != nil {
		return GetEventsResponse{}, err
	}
	timeMax, err := parseOptionalTime("time_max", input.TimeMax, now.AddDate(0, 0, 30))
	if err != nil {
		return GetEventsResponse{}, err
	}
	if input.MaxResults <= 0 {
		input.MaxResults = 10
	}

	events, err := t.svc.ListEvents(ctx, timeMin, timeMax, input.MaxResults)
	if err != nil {
		return GetEventsResponse{}, fmt.Errorf("svc.ListEvents failed: %w", err)
	}

	out := make([]Event, 0, len(events.Items))
	for _, ev := range events.Items {
		out = append(out, toEvent(ev))
	}

	return GetEventsResponse{Events: out, Total: len(out), NextPageToken: events.NextPageToken}, nil
}

func (t *Calendar) CreateEvent(ctx context.Context, input CreateEventRequest) (Event, error) {
	if _, err := parseTime("start_time", input.StartTime); err != nil {
		return Event{}, err
	}
	if _, err := parseTime("end_time", input.EndTime); err != nil {
		return Event{}, err
	}

	ev := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start:       &calendar.EventDateTime{DateTime: input.StartTime},
		End:         &calendar.EventDateTime{DateTime: input.EndTime},
		Attendees:   toAttendees(input.Attendees),
	}

	created, err := t.svc.InsertEvent(ctx, ev)
	if err != nil {
		return Event{}, fmt.Errorf("svc.InsertEvent failed: %w", err)
	}

	return toEvent(created), nil
}

func (t *Calendar) UpdateEvent(ctx context.Context, input UpdateEventRequest) (Event, error) {
	if input.EventID == "" {
		return Event{}, apierr.InvalidParams("event ID cannot be empty")
	}

	ev := &calendar.Event{}
	if input.Summary != nil {
		ev.Summary = *input.Summary
		ev.ForceSendFields = append(ev.ForceSendFields, "Summary")
	}
	if input.Description != nil {
		ev.Description = *input.Description
		ev.ForceSendFields = append(ev.ForceSendFields, "Description")
	}
	if input.StartTime != nil {
		if _, err := parseTime("start_time", *input.StartTime); err != nil {
			return Event{}, err
		}
		ev.Start = &calendar.EventDateTime{DateTime: *input.StartTime}
	}
	if input.EndTime != nil {
		if _, err := parseTime("end_time", *input.EndTime); err != nil {
			return Event{}, err
		}
		ev.End = &calendar.EventDateTime{DateTime: *input.EndTime}
	}
	if input.Attendees != nil {
		ev.Attendees = toAttendees(*input.Attendees)
		if len(ev.Attendees) == 0 {
			ev.ForceSendFields = append(ev.ForceSendFields, "Attendees")
		}
	}

	updated, err := t.svc.PatchEvent(ctx, input.EventID, ev)
	if err != nil {
		return Event{}, fmt.Errorf("svc.PatchEvent failed: %w", err)
	}

	return toEvent(updated), nil
}

func toEvent(ev *calendar.Event) Event {
	out := Event{
		ID:          ev.Id,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		HTMLLink:    ev.HtmlLink,
	}

	if ev.Start != nil {
		out.Start = ev.Start.DateTime
		if out.Start == "" {
			out.Start = ev.Start.Date
			out.AllDay = ev.Start.Date != ""
		}
	}
	if ev.End != nil {
		out.End = ev.End.DateTime
		if out.End == "" {
			out.End = ev.End.Date
		}
	}

	for _, a := range ev.Attendees {
		if a != nil && a.Email != "" {
			out.Attendees = append(out.Attendees, a.Email)
		}
	}

	return out
}

func toAttendees(emails []string) []*calendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	out := make([]*calendar.EventAttendee, 0, len(emails))
	for _, e := range emails {
		out = append(out, &calendar.EventAttendee{Email: e})
	}
	return out
}

func parseOptionalTime(field, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	return parseTime(field, value)
}

func parseTime(field, value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apierr.InvalidParams("%s must be RFC 3339: %q", field, value)
	}
	return ts, nil
}

package gservice

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
)

const primaryCalendar = "primary"

func NewCalendar(g *Google) *Calendar {
	return &Calendar{g: g}
}

type Calendar struct {
	g *Google
}

// ListEvents returns single (expanded) events of the primary calendar in
// start time order.
func (c *Calendar) ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) (*calendar.Events, error) {
	svc, err := c.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	call := svc.Events.List(primaryCalendar).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults)
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.List failed: %w", err)
	}

	return events, nil
}

func (c *Calendar) InsertEvent(ctx context.Context, ev *calendar.Event) (*calendar.Event, error) {
	svc, err := c.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	created, err := svc.Events.Insert(primaryCalendar, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.Insert failed: %w", err)
	}

	return created, nil
}

// PatchEvent updates only the fields set on ev.
func (c *Calendar) PatchEvent(ctx context.Context, eventID string, ev *calendar.Event) (*calendar.Event, error) {
	svc, err := c.newSvc(ctx)
	if err != nil {
		return nil, fmt.Errorf("newSvc failed: %w", err)
	}

	updated, err := svc.Events.Patch(primaryCalendar, eventID, ev).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("events.Patch failed: %w", err)
	}

	return updated, nil
}

func (c *Calendar) newSvc(ctx context.Context) (*calendar.Service, error) {
	opts, err := c.g.clientOptions(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar.NewService failed: %w", err)
	}

	return svc, nil
}

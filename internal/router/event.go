package router

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hal9000y/mcp-chat/internal/extract"
)

const (
	defaultEventHour     = 15
	defaultEventDuration = 10 * time.Minute
	defaultEventSummary  = "Test Event"
)

var (
	clockRe       = regexp.MustCompile(`(?i)\b(\d{1,2}):?(\d{2})(?:\s*(am|pm)\b|\b)`)
	durationRe    = regexp.MustCompile(`(?i)\b(\d+)\s*(?:minutes|minute|mins|min)\b`)
	summaryCues   = []string{"name it as", "name it", "called"}
)

// Event is a calendar event described by an utterance.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// NewEvent reads the date, clock time, duration and name of an event from
// text. Missing parts default to today, 15:00, ten minutes and
// "Test Event".
func (r *Router) NewEvent(text string) Event {
	now := r.now().In(r.loc)

	day := now
	if d, ok := extract.Date(text, now, r.dateOpts...); ok {
		if t, err := time.ParseInLocation("2006-01-02", d, r.loc); err == nil {
			day = t
		}
	}

	hour, minute := defaultEventHour, 0
	if h, m, ok := eventClock(text); ok {
		hour, minute = h, m
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, r.loc)

	duration := defaultEventDuration
	if m := durationRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			duration = time.Duration(n) * time.Minute
		}
	}

	summary := eventSummary(text)

	return Event{
		Summary:     summary,
		Description: "Event created via MCP integration: " + summary,
		Start:       start,
		End:         start.Add(duration),
	}
}

// eventClock reads "3:30pm", "1045pm" or "1430" outside any date, then
// falls back to the time extractor for forms like "at 3pm".
func eventClock(text string) (hour, minute int, ok bool) {
	if m := clockRe.FindStringSubmatch(extract.MaskDates(text)); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		switch strings.ToLower(m[3]) {
		case "pm":
			if hour != 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour <= 23 && minute <= 59 {
			return hour, minute, true
		}
	}

	if hm, found := extract.Time(text); found {
		return extract.ParseClock(hm)
	}
	return 0, 0, false
}

// eventSummary returns the text after the last naming cue in its original
// casing.
func eventSummary(text string) string {
	lower := strings.ToLower(text)
	if len(lower) != len(text) {
		text = lower
	}

	for _, cue := range summaryCues {
		i := strings.LastIndex(lower, cue)
		if i < 0 {
			continue
		}
		s := strings.TrimRight(strings.TrimSpace(text[i+len(cue):]), ".!")
		if s = strings.Trim(s, `"' `); s != "" {
			return s
		}
	}

	return defaultEventSummary
}

package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

const (
	monthNames = `january|february|march|april|may|june|july|august|september|october|november|december`
	monthAbbr  = `jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`
)

type dateRule struct {
	re    *regexp.Regexp
	parse func(m []string, now time.Time, o dateOptions) (time.Time, bool)
}

type dateOptions struct {
	swapDayMonth bool
}

// DateOption tunes Date.
type DateOption func(*dateOptions)

// WithoutDayMonthSwap reads A/B/YYYY strictly as month/day: a first
// component above 12 makes the match invalid instead of being swapped.
func WithoutDayMonthSwap() DateOption {
	return func(o *dateOptions) { o.swapDayMonth = false }
}

var dateRules = []dateRule{
	{
		re: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		parse: func(m []string, _ time.Time, _ dateOptions) (time.Time, bool) {
			return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`),
		parse: func(m []string, _ time.Time, o dateOptions) (time.Time, bool) {
			month, day := atoi(m[1]), atoi(m[2])
			// 13/02/2024 is taken as 13 February. A known source of wrong
			// answers for genuinely ambiguous input like 03/04/2024.
			if o.swapDayMonth && month > 12 && day <= 12 {
				month, day = day, month
			}
			return ymd(atoi(m[3]), month, day)
		},
	},
	{
		re: regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`),
		parse: func(m []string, _ time.Time, _ dateOptions) (time.Time, bool) {
			return ymd(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{1,2}),?\s+(\d{4})\b`),
		parse: func(m []string, _ time.Time, _ dateOptions) (time.Time, bool) {
			return ymd(atoi(m[3]), int(months[strings.ToLower(m[1])]), atoi(m[2]))
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(` + monthAbbr + `)\s+(\d{1,2}),?\s+(\d{4})\b`),
		parse: func(m []string, _ time.Time, _ dateOptions) (time.Time, bool) {
			return ymd(atoi(m[3]), int(months[strings.ToLower(m[1])]), atoi(m[2]))
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`),
		parse: func(m []string, now time.Time, _ dateOptions) (time.Time, bool) {
			switch strings.ToLower(m[1]) {
			case "tomorrow":
				return now.AddDate(0, 0, 1), true
			case "yesterday":
				return now.AddDate(0, 0, -1), true
			default:
				return now, true
			}
		},
	},
	{
		re: regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthNames + `)\s+(\d{4})\b`),
		parse: func(m []string, _ time.Time, _ dateOptions) (time.Time, bool) {
			return ymd(atoi(m[3]), int(months[strings.ToLower(m[2])]), atoi(m[1]))
		},
	},
}

// MaskDates blanks every span Date would read as a date, keeping byte
// offsets, so digits inside dates are not taken for clock times.
func MaskDates(text string) string {
	for _, r := range dateRules {
		text = r.re.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}
	return text
}

// Date returns the first date found in text as YYYY-MM-DD. Patterns are
// tried in a fixed order and only the first match of each is considered;
// an invalid calendar date falls through to the next pattern. Relative
// words resolve against now.
func Date(text string, now time.Time, opts ...DateOption) (string, bool) {
	o := dateOptions{swapDayMonth: true}
	for _, opt := range opts {
		opt(&o)
	}

	for _, r := range dateRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if d, ok := r.parse(m, now, o); ok {
			return d.Format(dateLayout), true
		}
	}

	return "", false
}

type timeRule struct {
	re                   *regexp.Regexp
	hour, minute, suffix int
}

// Group indexes into the submatch slice; 0 means absent.
var timeRules = []timeRule{
	{re: regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)\b`), hour: 1, minute: 2, suffix: 3},
	{re: regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`), hour: 1, minute: 2},
	{re: regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`), hour: 1, suffix: 2},
	{re: regexp.MustCompile(`(?i)(?:\bat|@)\s*(\d{1,2}):(\d{2})\s*(am|pm)?\b`), hour: 1, minute: 2, suffix: 3},
	{re: regexp.MustCompile(`(?i)(?:\bat|@)\s*(\d{1,2})\s*(am|pm)\b`), hour: 1, suffix: 2},
	{re: regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(?:o'?clock)\b`), hour: 1, minute: 2},
}

// Time returns the first clock time found in text as HH:MM.
func Time(text string) (string, bool) {
	for _, r := range timeRules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		hour := atoi(m[r.hour])
		minute := 0
		if r.minute != 0 {
			minute = atoi(m[r.minute])
		}
		if r.suffix != 0 {
			hour = to24h(hour, m[r.suffix])
		}

		if hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59 {
			return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format(timeLayout), true
		}
	}

	return "", false
}

// ParseClock splits an HH:MM value produced by Time.
func ParseClock(hhmm string) (hour, minute int, ok bool) {
	t, err := time.Parse(timeLayout, hhmm)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

func to24h(hour int, suffix string) int {
	switch strings.ToLower(suffix) {
	case "pm":
		if hour != 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

func ymd(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

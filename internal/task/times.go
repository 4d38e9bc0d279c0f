package task

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// coerceLayouts are tried in order by CoerceTime.
var coerceLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CoerceTime parses a stored timestamp field that may have been written as
// text. Unparseable values, empty strings, and the literal "N/A" are treated
// as absent rather than errors, so one bad field never fails a whole
// reconciliation.
func CoerceTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "n/a") || strings.EqualFold(raw, "null") {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range coerceLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	clockWithMinutes = regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	clockHourOnly    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(am|pm)\b`)
)

// ParseClock extracts a time-of-day token from a task name and anchors it to
// the given day. Recognized forms, in priority order: "H:MM am/pm",
// "H:MM" (24-hour), "H am/pm". Returns false when no token parses.
func ParseClock(name string, day time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	if m := clockWithMinutes.FindStringSubmatch(name); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if t, ok := clockTime(day, loc, hour, minute, m[3]); ok {
			return t, true
		}
	}
	if m := clockHourOnly.FindStringSubmatch(name); m != nil {
		hour, _ := strconv.Atoi(m[1])
		if t, ok := clockTime(day, loc, hour, 0, m[2]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func clockTime(day time.Time, loc *time.Location, hour, minute int, meridiem string) (time.Time, bool) {
	if minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	switch strings.ToLower(meridiem) {
	case "am":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return time.Time{}, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return time.Time{}, false
		}
	}
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), true
}

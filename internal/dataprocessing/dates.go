package dataprocessing

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// sentDateLayouts are tried in order before the general parser. They pin
// the forms point-of-sale exports use: US month-first dates, with or
// without seconds and with either clock.
var sentDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 3:04:05 PM",
	"2006-01-02 3:04 PM",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"1/2/06 15:04:05",
	"1/2/06 15:04",
	"1/2/06 3:04:05 PM",
	"1/2/06 3:04 PM",
	"1/2/06",
	"1-2-2006 15:04:05",
	"1-2-2006 15:04",
	"1-2-2006",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"January 2, 2006",
}

// ParseSentDate parses a timestamp. A value carrying a zone offset keeps
// its wall clock in that offset; one without is read as UTC. Values with
// no calendar date are rejected.
func ParseSentDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	value = normalizeMeridiem(value)

	for _, layout := range sentDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil || t.Year() < 1 {
		return time.Time{}, false
	}
	return t, true
}

// normalizeMeridiem rewrites a trailing "am"/"pm", with or without a space
// before it, as " AM"/" PM" so the 12-hour layouts match it.
func normalizeMeridiem(value string) string {
	n := len(value)
	if n < 3 {
		return value
	}
	suffix := strings.ToUpper(value[n-2:])
	if suffix != "AM" && suffix != "PM" {
		return value
	}
	head := strings.TrimRight(value[:n-2], " ")
	if head == "" || head[len(head)-1] < '0' || head[len(head)-1] > '9' {
		return value
	}
	return head + " " + suffix
}

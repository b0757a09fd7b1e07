package helper

import (
	"strings"
	"time"
)

// DisplayDateLayout is the layout dates are shown with in answers and timelines
const DisplayDateLayout = "2006-01-02 15:04"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses the date formats found in message metadata
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders value with DisplayDateLayout, or returns it unchanged
// when it cannot be parsed
func FormatDate(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return value
	}
	return t.Format(DisplayDateLayout)
}

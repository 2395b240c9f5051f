package domain

import (
	"strings"
	"time"
)

// acceptedDateLayouts are tried in order when a date arrives from a client.
var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	LayoutDetailDate,
	LayoutSummaryDate,
	"01/02/06",
}

// ParseDate reads a client supplied date and returns it as UTC midnight of
// the same calendar day.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

package formatting

import (
	"fmt"
	"time"

	"calltracker/internal/feed"
)

// responseDateLayouts covers the timestamp shapes the feed has produced.
// Zone-less values are interpreted in the configured local zone.
var responseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseResponseTime parses a call's Response_Date string. The feed
// sometimes emits malformed values; callers degrade to an unknown-time
// placeholder instead of failing.
func ParseResponseTime(value string, loc *time.Location) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range responseDateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// ResponseClock renders the local time-of-day of a call's response
// timestamp, or "Unknown Time" when it does not parse.
func ResponseClock(call feed.Call, loc *time.Location) string {
	t, ok := ParseResponseTime(call.ResponseDate, loc)
	if !ok {
		return "Unknown Time"
	}
	return t.Format("03:04 PM")
}

// CallLine renders one historical-log line for a call change event.
func CallLine(call feed.Call, status string, loc *time.Location) string {
	return fmt.Sprintf("[%s] %s | %s | %s | Response: %s",
		status,
		call.DisplayIncidentID(),
		call.DisplayDescription(),
		call.DisplayAddress(),
		ResponseClock(call, loc))
}

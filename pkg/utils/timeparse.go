package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp is the single normalization boundary for timestamps
// arriving from clients. Older clients sent ISO-8601 strings, some sent
// Unix seconds; everything is converted to UTC time.Time here and the
// API only ever emits RFC 3339.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

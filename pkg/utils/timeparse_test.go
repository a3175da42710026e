package utils

import (
	"testing"
	"time"
)

func TestParseTimestampISO(t *testing.T) {
	got, err := ParseTimestamp("2025-01-10T17:34:28-05:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 10, 22, 34, 28, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got.Location() != time.UTC {
		t.Fatal("parsed timestamps must be normalized to UTC")
	}
}

func TestParseTimestampUnixSeconds(t *testing.T) {
	got, err := ParseTimestamp("1736548468")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Unix() != 1736548468 {
		t.Fatalf("expected unix 1736548468, got %d", got.Unix())
	}
}

func TestParseTimestampLocalDateTime(t *testing.T) {
	// The schedule picker sends "YYYY-MM-DDTHH:MM" with no zone.
	got, err := ParseTimestamp("2025-01-12T09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Fatalf("unexpected time: %v", got)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "next tuesday"} {
		if _, err := ParseTimestamp(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

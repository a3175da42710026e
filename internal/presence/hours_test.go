package presence

import (
	"math"
	"testing"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
)

func change(online bool, at time.Time) models.DriverStatusChange {
	return models.DriverStatusChange{DriverID: 1, IsOnline: online, ChangedAt: at}
}

func closeTo(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestIntegrateClosedIntervals(t *testing.T) {
	now := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	log := []models.DriverStatusChange{
		change(true, now.Add(-6*time.Hour)),
		change(false, now.Add(-4*time.Hour)),
		change(true, now.Add(-3*time.Hour)),
		change(false, now.Add(-2*time.Hour)),
	}

	h := Integrate(log, now)
	if !closeTo(h.Total, 3) {
		t.Fatalf("expected 3 total hours, got %f", h.Total)
	}
	if !closeTo(h.Today, 3) {
		t.Fatalf("expected 3 today hours, got %f", h.Today)
	}
}

func TestIntegrateOpenIntervalStartedToday(t *testing.T) {
	now := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	log := []models.DriverStatusChange{change(true, now.Add(-90 * time.Minute))}

	h := Integrate(log, now)
	if !closeTo(h.Total, 1.5) {
		t.Fatalf("open interval must contribute up to now, got %f", h.Total)
	}
	if !closeTo(h.Today, 1.5) {
		t.Fatalf("interval started today must count toward today, got %f", h.Today)
	}
}

func TestIntegrateOpenIntervalFromBeforeMidnight(t *testing.T) {
	now := time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)
	// Went online at 22:00 yesterday and never toggled off.
	log := []models.DriverStatusChange{change(true, now.Add(-8 * time.Hour))}

	h := Integrate(log, now)
	if !closeTo(h.Total, 8) {
		t.Fatalf("expected 8 lifetime hours, got %f", h.Total)
	}
	if !closeTo(h.Today, 0) {
		t.Fatalf("interval started before midnight must not count toward today, got %f", h.Today)
	}
}

func TestIntegrateIgnoresDuplicateOnlineRows(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	// A duplicate online row must not restart or double the open interval.
	log := []models.DriverStatusChange{
		change(true, now.Add(-4*time.Hour)),
		change(true, now.Add(-2*time.Hour)),
	}

	h := Integrate(log, now)
	if !closeTo(h.Total, 4) {
		t.Fatalf("expected 4 hours from the first online row, got %f", h.Total)
	}
}

func TestIntegrateUnorderedInput(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	log := []models.DriverStatusChange{
		change(false, now.Add(-1 * time.Hour)),
		change(true, now.Add(-3 * time.Hour)),
	}

	h := Integrate(log, now)
	if !closeTo(h.Total, 2) {
		t.Fatalf("expected 2 hours after sorting, got %f", h.Total)
	}
}

func TestShouldRecordIsIdempotent(t *testing.T) {
	on := change(true, time.Now())
	off := change(false, time.Now())

	if ShouldRecord(&on, true) {
		t.Fatal("online -> online must not record a transition")
	}
	if ShouldRecord(&off, false) {
		t.Fatal("offline -> offline must not record a transition")
	}
	if !ShouldRecord(&on, false) || !ShouldRecord(&off, true) {
		t.Fatal("real flips must record")
	}
	if !ShouldRecord(nil, true) {
		t.Fatal("first online must record")
	}
	if ShouldRecord(nil, false) {
		t.Fatal("offline with no history records nothing")
	}
}

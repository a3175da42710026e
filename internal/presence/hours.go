// Package presence turns a driver's online/offline transition log into
// hours-online metrics. The log is append-only and only grows when the
// flag actually flips, so integration is a straight walk over pairs of
// transitions.
package presence

import (
	"sort"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
)

// Hours holds derived online-time metrics in fractional hours.
type Hours struct {
	Total float64 `json:"hoursOnline"`
	Today float64 `json:"todayHours"`
}

// Integrate sums every interval the driver was online. An online
// transition with no matching offline transition is still open and
// contributes elapsed time up to now. An interval counts toward today
// only when it started at or after the local midnight boundary; an open
// interval carried over from before midnight contributes to the
// lifetime total alone.
func Integrate(changes []models.DriverStatusChange, now time.Time) Hours {
	sorted := make([]models.DriverStatusChange, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChangedAt.Before(sorted[j].ChangedAt)
	})

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var h Hours
	var openStart *time.Time
	for i := range sorted {
		c := sorted[i]
		if c.ChangedAt.After(now) {
			break
		}
		if c.IsOnline {
			if openStart == nil {
				t := c.ChangedAt
				openStart = &t
			}
			continue
		}
		if openStart != nil {
			h.add(*openStart, c.ChangedAt, midnight)
			openStart = nil
		}
	}
	if openStart != nil {
		h.add(*openStart, now, midnight)
	}
	return h
}

func (h *Hours) add(start, end, midnight time.Time) {
	if !end.After(start) {
		return
	}
	hours := end.Sub(start).Hours()
	h.Total += hours
	if !start.Before(midnight) {
		h.Today += hours
	}
}

// ShouldRecord reports whether flipping to desired is an actual
// transition. Toggling to the value already in effect must not append a
// duplicate row, or integration would double-count the open interval.
func ShouldRecord(last *models.DriverStatusChange, desired bool) bool {
	if last == nil {
		return desired
	}
	return last.IsOnline != desired
}

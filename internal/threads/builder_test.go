package threads

import (
	"testing"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func rideAt(id uint, riderID, driverID uint, status string, created time.Time) models.Ride {
	return models.Ride{
		ID:             id,
		RiderID:        uintPtr(riderID),
		DriverID:       driverID,
		Status:         status,
		CreatedAt:      created,
		DriverSnapshot: models.PartySnapshot{Name: "Driver"},
		RiderSnapshot:  models.PartySnapshot{Name: "Rider"},
	}
}

func TestBuildOneThreadPerRideSortedByActivity(t *testing.T) {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	rides := []models.Ride{
		rideAt(1, 10, 20, models.RideStatusAccepted, base),
		rideAt(2, 10, 20, models.RideStatusCompleted, base.Add(time.Hour)),
		rideAt(3, 10, 30, models.RideStatusInProgress, base.Add(2*time.Hour)),
		rideAt(4, 10, 40, models.RideStatusPending, base.Add(3*time.Hour)),  // no thread yet
		rideAt(5, 10, 50, models.RideStatusDeclined, base.Add(4*time.Hour)), // never a thread
	}
	latest := map[uint]*models.Message{
		1: {RideID: 1, Content: "see you soon", CreatedAt: base.Add(5 * time.Hour)},
	}

	got := Build(10, rides, latest, map[uint]int{1: 2})

	if len(got) != 3 {
		t.Fatalf("expected 3 threads, got %d", len(got))
	}
	// Ride 1's latest message is the newest activity overall.
	if got[0].RideID != 1 || got[1].RideID != 3 || got[2].RideID != 2 {
		t.Fatalf("unexpected order: %d, %d, %d", got[0].RideID, got[1].RideID, got[2].RideID)
	}
	if got[0].LastMessage != "see you soon" || got[0].Unread != 2 {
		t.Fatalf("latest message not zipped in: %+v", got[0])
	}
	// Same counterparty on rides 1 and 2 still yields separate threads.
	if got[0].CounterpartyID != 20 || got[2].CounterpartyID != 20 {
		t.Fatal("threads must be keyed per ride, not per counterparty")
	}
}

func TestBuildEmptyViewerYieldsEmptyList(t *testing.T) {
	rides := []models.Ride{rideAt(1, 10, 20, models.RideStatusAccepted, time.Now())}
	if got := Build(0, rides, nil, nil); len(got) != 0 {
		t.Fatalf("expected empty list for missing identity, got %d threads", len(got))
	}
}

func TestBuildSkipsRidesViewerIsNotPartyTo(t *testing.T) {
	rides := []models.Ride{rideAt(1, 10, 20, models.RideStatusAccepted, time.Now())}
	if got := Build(99, rides, nil, nil); len(got) != 0 {
		t.Fatalf("expected no threads for a stranger, got %d", len(got))
	}
}

func TestBuildRideWithoutMessagesUsesRideTimestamp(t *testing.T) {
	created := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	rides := []models.Ride{rideAt(1, 10, 20, models.RideStatusAccepted, created)}

	got := Build(10, rides, nil, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(got))
	}
	if !got[0].LastActivity.Equal(created) {
		t.Fatalf("expected ride timestamp fallback, got %v", got[0].LastActivity)
	}
	if got[0].LastMessage != "" {
		t.Fatalf("expected empty last message, got %q", got[0].LastMessage)
	}
}

func TestBuildDriverViewOfGuestRide(t *testing.T) {
	ride := models.Ride{
		ID:           7,
		DriverID:     20,
		CustomerName: "Jane",
		Status:       models.RideStatusAccepted,
		CreatedAt:    time.Now(),
	}

	got := Build(20, []models.Ride{ride}, nil, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(got))
	}
	if got[0].CounterpartyID != 0 || got[0].CounterpartyName != "Jane" {
		t.Fatalf("guest thread should show customer name: %+v", got[0])
	}
}

func TestAggregateByCounterparty(t *testing.T) {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	rides := []models.Ride{
		rideAt(1, 10, 20, models.RideStatusAccepted, base.Add(time.Hour)),
		rideAt(2, 10, 20, models.RideStatusCompleted, base),
		rideAt(3, 10, 30, models.RideStatusAccepted, base.Add(2*time.Hour)),
	}
	unread := map[uint]int{1: 1, 2: 3}

	got := AggregateByCounterparty(10, Build(10, rides, nil, unread))
	if len(got) != 2 {
		t.Fatalf("expected 2 aggregated threads, got %d", len(got))
	}
	for _, th := range got {
		if th.CounterpartyID == 20 {
			if th.RideID != 1 {
				t.Fatalf("expected newest ride kept, got ride %d", th.RideID)
			}
			if th.Unread != 4 {
				t.Fatalf("expected summed unread 4, got %d", th.Unread)
			}
		}
	}
}

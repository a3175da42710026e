// Package threads derives conversation threads for a signed-in party by
// joining their rides to the latest message per ride. Threads are a
// view, never persisted; they are recomputed on every request and on
// every live update.
package threads

import (
	"fmt"
	"sort"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
)

// Thread is one entry in a messages list. Threads are keyed per ride so
// message routing stays unambiguous even when the same counterparty
// appears on several rides; AggregateByCounterparty collapses them for
// display when a screen wants one row per contact.
type Thread struct {
	RideID            uint      `json:"rideId"`
	CounterpartyID    uint      `json:"counterpartyId,omitempty"`
	CounterpartyName  string    `json:"counterpartyName"`
	CounterpartyPhoto string    `json:"counterpartyPhoto,omitempty"`
	RideStatus        string    `json:"rideStatus"`
	LastMessage       string    `json:"lastMessage"`
	LastActivity      time.Time `json:"timestamp"`
	Unread            int       `json:"unreadCount"`
}

// Build zips rides with their latest message into a thread list sorted
// by latest activity, newest first. A zero viewer id yields an empty
// list, not an error. Rides whose status does not produce a chat thread
// are skipped.
func Build(viewerID uint, rides []models.Ride, latest map[uint]*models.Message, unread map[uint]int) []Thread {
	if viewerID == 0 {
		return nil
	}

	threads := make([]Thread, 0, len(rides))
	for _, ride := range rides {
		if !chatStatus(ride.Status) || !ride.IsParty(viewerID) {
			continue
		}

		t := Thread{
			RideID:       ride.ID,
			RideStatus:   ride.Status,
			LastActivity: ride.CreatedAt,
			Unread:       unread[ride.ID],
		}

		if cp, ok := ride.CounterpartyID(viewerID); ok {
			t.CounterpartyID = cp
		}
		snapshot := counterpartySnapshot(viewerID, ride)
		t.CounterpartyName = snapshot.Name
		t.CounterpartyPhoto = snapshot.Photo

		if msg := latest[ride.ID]; msg != nil {
			t.LastMessage = msg.Content
			t.LastActivity = msg.CreatedAt
		}

		threads = append(threads, t)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		if !threads[i].LastActivity.Equal(threads[j].LastActivity) {
			return threads[i].LastActivity.After(threads[j].LastActivity)
		}
		return threads[i].RideID > threads[j].RideID
	})
	return threads
}

// AggregateByCounterparty collapses a per-ride thread list to one row
// per contact, keyed by the participant-pair conversation id, keeping
// the most recent ride's thread and summing unread counts. Guest rides
// have no counterparty account and stay per ride.
func AggregateByCounterparty(viewerID uint, list []Thread) []Thread {
	seen := make(map[string]int)
	out := make([]Thread, 0, len(list))
	for _, t := range list {
		key := models.ConversationID(viewerID, t.CounterpartyID)
		if t.CounterpartyID == 0 {
			key = fmt.Sprintf("ride:%d", t.RideID)
		}
		if idx, ok := seen[key]; ok {
			out[idx].Unread += t.Unread
			continue
		}
		seen[key] = len(out)
		out = append(out, t)
	}
	return out
}

func counterpartySnapshot(viewerID uint, ride models.Ride) models.PartySnapshot {
	if ride.DriverID == viewerID {
		if ride.RiderSnapshot.Name == "" && ride.CustomerName != "" {
			return models.PartySnapshot{Name: ride.CustomerName}
		}
		return ride.RiderSnapshot
	}
	return ride.DriverSnapshot
}

func chatStatus(status string) bool {
	for _, s := range models.ThreadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

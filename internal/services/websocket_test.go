package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
)

func testClient() *Client {
	return &Client{
		ID:    1,
		Send:  make(chan []byte, 16),
		rides: make(map[uint]bool),
		seen:  make(map[uint]map[uint]bool),
	}
}

func TestSortMessagesByTimestampAscending(t *testing.T) {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	// Arrival order T+3, T+1, T+2 must render as T+1, T+2, T+3.
	arrived := []models.Message{
		{ID: 3, Content: "third", CreatedAt: base.Add(3 * time.Second)},
		{ID: 1, Content: "first", CreatedAt: base.Add(1 * time.Second)},
		{ID: 2, Content: "second", CreatedAt: base.Add(2 * time.Second)},
	}

	got := SortMessages(arrived)
	want := []string{"first", "second", "third"}
	for i, content := range want {
		if got[i].Content != content {
			t.Fatalf("position %d: expected %q, got %q", i, content, got[i].Content)
		}
	}

	// Input slice must not be reordered in place.
	if arrived[0].Content != "third" {
		t.Fatal("SortMessages must not mutate its input")
	}
}

func TestSortMessagesTiesBreakOnID(t *testing.T) {
	at := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	got := SortMessages([]models.Message{
		{ID: 9, CreatedAt: at},
		{ID: 4, CreatedAt: at},
	})
	if got[0].ID != 4 || got[1].ID != 9 {
		t.Fatalf("equal timestamps must order by id, got %d, %d", got[0].ID, got[1].ID)
	}
}

func TestDeliverMessageExactlyOncePerSubscription(t *testing.T) {
	c := testClient()
	c.rides[7] = true
	c.seen[7] = make(map[uint]bool)

	msg := models.Message{ID: 42, RideID: 7, Content: "hello", CreatedAt: time.Now()}

	if !c.DeliverMessage(msg) {
		t.Fatal("first delivery should succeed")
	}
	// The fan-out layer may redeliver the same document any number of
	// times; the subscription must suppress every repeat.
	for i := 0; i < 5; i++ {
		if c.DeliverMessage(msg) {
			t.Fatal("duplicate delivery must be suppressed")
		}
	}
	if len(c.Send) != 1 {
		t.Fatalf("expected exactly 1 frame queued, got %d", len(c.Send))
	}
}

func TestDeliverMessageIgnoresUnsubscribedRides(t *testing.T) {
	c := testClient()
	msg := models.Message{ID: 1, RideID: 99, Content: "stray"}
	if c.DeliverMessage(msg) {
		t.Fatal("message for an unsubscribed ride must not be delivered")
	}
	if len(c.Send) != 0 {
		t.Fatal("nothing should be queued")
	}
}

func TestUnsubscribeResetsSeenSet(t *testing.T) {
	c := testClient()
	c.rides[7] = true
	c.seen[7] = make(map[uint]bool)
	msg := models.Message{ID: 42, RideID: 7, Content: "hello"}

	c.DeliverMessage(msg)
	c.unsubscribe(7)

	// A fresh subscription starts a new delivery lifetime.
	c.rides[7] = true
	c.seen[7] = make(map[uint]bool)
	if !c.DeliverMessage(msg) {
		t.Fatal("fresh subscription should deliver the message again")
	}
}

// racingBackend lands a live message via DeliverMessage while the
// history query is still in flight, then returns that same message in
// the snapshot, the worst-case interleaving for subscribe.
type racingBackend struct {
	client *Client
	msg    models.Message
}

func (b *racingBackend) CanSubscribe(userID, rideID uint) bool { return true }

func (b *racingBackend) History(rideID uint) ([]models.Message, error) {
	b.client.DeliverMessage(b.msg)
	return []models.Message{b.msg}, nil
}

func TestSubscribeSnapshotExcludesLiveDeliveredMessages(t *testing.T) {
	c := testClient()
	msg := models.Message{ID: 42, RideID: 7, Content: "hello", CreatedAt: time.Now()}
	c.Hub = NewHub(&racingBackend{client: c, msg: msg})

	c.subscribe(7)

	// The message may arrive as a live frame or inside the snapshot,
	// but across both it must show up exactly once.
	delivered := 0
	for len(c.Send) > 0 {
		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(<-c.Send, &frame); err != nil {
			t.Fatalf("invalid frame: %v", err)
		}
		switch frame.Type {
		case "new_message":
			var m models.Message
			if err := json.Unmarshal(frame.Data, &m); err != nil {
				t.Fatalf("invalid new_message payload: %v", err)
			}
			if m.ID == msg.ID {
				delivered++
			}
		case "message_history":
			var h MessageHistory
			if err := json.Unmarshal(frame.Data, &h); err != nil {
				t.Fatalf("invalid message_history payload: %v", err)
			}
			for _, m := range h.Messages {
				if m.ID == msg.ID {
					delivered++
				}
			}
		}
	}
	if delivered != 1 {
		t.Fatalf("message delivered %d times within one subscription lifetime; want exactly once", delivered)
	}
}

func TestDriverStatusUpdateReachesEveryClient(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	a := testClient()
	b := testClient()
	b.ID = 2
	hub.register <- a
	hub.register <- b

	hub.SendDriverStatusUpdate(DriverStatusUpdate{DriverID: 9, IsOnline: true})

	for _, c := range []*Client{a, b} {
		select {
		case data := <-c.Send:
			var frame struct {
				Type string             `json:"type"`
				Data DriverStatusUpdate `json:"data"`
			}
			if err := json.Unmarshal(data, &frame); err != nil {
				t.Fatalf("invalid frame: %v", err)
			}
			if frame.Type != "driver_status_update" || frame.Data.DriverID != 9 || !frame.Data.IsOnline {
				t.Fatalf("unexpected frame: %+v", frame)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %d never received the broadcast", c.ID)
		}
	}
}

func TestDeliveredFrameShape(t *testing.T) {
	c := testClient()
	c.rides[7] = true
	c.seen[7] = make(map[uint]bool)
	c.DeliverMessage(models.Message{ID: 1, RideID: 7, Content: "hi", CreatedAt: time.Now()})

	var frame struct {
		Type string         `json:"type"`
		Data models.Message `json:"data"`
	}
	if err := json.Unmarshal(<-c.Send, &frame); err != nil {
		t.Fatalf("invalid frame: %v", err)
	}
	if frame.Type != "new_message" || frame.Data.Content != "hi" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/segmentio/kafka-go"
)

// Ride lifecycle event types streamed for downstream analytics.
const (
	EventRideRequested = "ride_requested"
	EventRideAccepted  = "ride_accepted"
	EventRideDeclined  = "ride_declined"
	EventRideStarted   = "ride_started"
	EventRideCompleted = "ride_completed"
	EventRideCancelled = "ride_cancelled"
)

var statusEvents = map[string]string{
	models.RideStatusAccepted:   EventRideAccepted,
	models.RideStatusDeclined:   EventRideDeclined,
	models.RideStatusInProgress: EventRideStarted,
	models.RideStatusCompleted:  EventRideCompleted,
	models.RideStatusCancelled:  EventRideCancelled,
}

// RideEvent is the wire shape published to the ride events topic.
type RideEvent struct {
	Type       string    `json:"type"`
	RideID     uint      `json:"rideId"`
	RiderID    *uint     `json:"riderId,omitempty"`
	DriverID   uint      `json:"driverId"`
	Status     string    `json:"status"`
	LocationID string    `json:"locationId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventProducer streams ride lifecycle events to Kafka. It is optional:
// without KAFKA_BROKERS configured the producer is nil and every publish
// is a no-op, matching how Firebase is treated.
type EventProducer struct {
	writer *kafka.Writer
}

// NewEventProducerFromEnv returns nil when Kafka is not configured.
func NewEventProducerFromEnv() *EventProducer {
	brokers := strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))
	if brokers == "" {
		log.Println("Warning: KAFKA_BROKERS not set. Ride event streaming disabled.")
		return nil
	}

	topic := os.Getenv("KAFKA_RIDE_EVENTS_TOPIC")
	if topic == "" {
		topic = "ride-events"
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  strings.Split(brokers, ","),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &EventProducer{writer: w}
}

// PublishRideEvent records one lifecycle transition. Failures are logged
// and swallowed; the event stream is observational and never blocks a
// booking.
func (p *EventProducer) PublishRideEvent(eventType string, ride *models.Ride) {
	if p == nil || p.writer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	event := RideEvent{
		Type:       eventType,
		RideID:     ride.ID,
		RiderID:    ride.RiderID,
		DriverID:   ride.DriverID,
		Status:     ride.Status,
		LocationID: ride.LocationID,
		Timestamp:  time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling ride event: %v", err)
		return
	}

	key := []byte(fmt.Sprintf("%d", ride.ID))
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		log.Printf("Error publishing ride event %s for ride %d: %v", eventType, ride.ID, err)
	}
}

// PublishRideStatus maps a new status to its event type and publishes.
func (p *EventProducer) PublishRideStatus(ride *models.Ride) {
	eventType, ok := statusEvents[ride.Status]
	if !ok {
		return
	}
	p.PublishRideEvent(eventType, ride)
}

// Close flushes and closes the underlying writer.
func (p *EventProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

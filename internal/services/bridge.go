package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// BridgeState is the lifecycle of the Redis subscription feeding the
// hub. A bare callback registration with no reconnect discipline leaves
// a dropped connection undetected, so the bridge is an explicit state
// machine with backoff instead.
type BridgeState string

const (
	BridgeIdle       BridgeState = "idle"
	BridgeConnecting BridgeState = "connecting"
	BridgeLive       BridgeState = "live"
	BridgeRetrying   BridgeState = "retrying"
)

// Bridge subscribes to the cross-instance pub/sub channels and replays
// every event into the local hub.
type Bridge struct {
	hub   *Hub
	redis *redis.Client

	state      BridgeState
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewBridge(hub *Hub, client *redis.Client) *Bridge {
	return &Bridge{
		hub:        hub,
		redis:      client,
		state:      BridgeIdle,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
	}
}

func (b *Bridge) State() BridgeState { return b.state }

// Run blocks until ctx is cancelled, resubscribing with exponential
// backoff whenever the pub/sub connection drops.
func (b *Bridge) Run(ctx context.Context) {
	backoff := b.minBackoff
	for {
		if ctx.Err() != nil {
			b.state = BridgeIdle
			return
		}

		b.state = BridgeConnecting
		sub := b.redis.Subscribe(ctx, ChannelMessages, ChannelRideUpdates, ChannelPresence)
		if _, err := sub.Receive(ctx); err != nil {
			sub.Close()
			if ctx.Err() != nil {
				b.state = BridgeIdle
				return
			}
			b.state = BridgeRetrying
			log.Printf("Redis bridge subscribe failed, retrying in %s: %v", backoff, err)
			backoff = b.sleep(ctx, backoff)
			continue
		}

		b.state = BridgeLive
		backoff = b.minBackoff
		log.Printf("Redis bridge live on %s, %s, %s", ChannelMessages, ChannelRideUpdates, ChannelPresence)

		b.consume(ctx, sub)
		sub.Close()

		if ctx.Err() != nil {
			b.state = BridgeIdle
			return
		}
		b.state = BridgeRetrying
		log.Printf("Redis bridge connection lost, retrying in %s", backoff)
		backoff = b.sleep(ctx, backoff)
	}
}

// consume returns when the channel closes (connection lost or ctx done).
func (b *Bridge) consume(ctx context.Context, sub *redis.PubSub) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (b *Bridge) dispatch(channel string, payload []byte) {
	switch channel {
	case ChannelMessages:
		var msg models.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("Redis bridge: bad message payload: %v", err)
			return
		}
		b.hub.SendNewMessage(msg)

	case ChannelRideUpdates:
		var update struct {
			RideID  uint   `json:"rideId"`
			Status  string `json:"status"`
			UserIDs []uint `json:"userIds"`
		}
		if err := json.Unmarshal(payload, &update); err != nil {
			log.Printf("Redis bridge: bad ride update payload: %v", err)
			return
		}
		b.hub.SendRideStatusUpdate(RideStatusUpdate{RideID: update.RideID, Status: update.Status}, update.UserIDs...)

	case ChannelPresence:
		var update DriverStatusUpdate
		if err := json.Unmarshal(payload, &update); err != nil {
			log.Printf("Redis bridge: bad presence payload: %v", err)
			return
		}
		b.hub.SendDriverStatusUpdate(update)
	}
}

func (b *Bridge) sleep(ctx context.Context, backoff time.Duration) time.Duration {
	select {
	case <-ctx.Done():
	case <-time.After(backoff):
	}
	next := backoff * 2
	if next > b.maxBackoff {
		next = b.maxBackoff
	}
	return next
}

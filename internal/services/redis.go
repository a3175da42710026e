package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// Pub/sub channels bridging live updates across API instances.
const (
	ChannelMessages    = "goldline:messages"
	ChannelRideUpdates = "goldline:ride:updates"
	ChannelPresence    = "goldline:driver:presence"
)

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// SetDriverOnline mirrors a driver's presence flag into Redis so
// booking-time availability checks see flips from other instances
// immediately. The store row stays authoritative.
func SetDriverOnline(ctx context.Context, driverID uint, isOnline bool) error {
	key := fmt.Sprintf("driver:online:%d", driverID)
	value := "false"
	if isOnline {
		value = "true"
	}
	return RedisClient.Set(ctx, key, value, time.Hour).Err()
}

// GetDriverOnline reads the cached presence flag. redis.Nil means the
// cache has no opinion and the caller should fall back to the store.
func GetDriverOnline(ctx context.Context, driverID uint) (bool, error) {
	key := fmt.Sprintf("driver:online:%d", driverID)
	result, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result == "true", nil
}

// PublishMessage fans a new chat message out to every API instance.
func PublishMessage(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return RedisClient.Publish(ctx, ChannelMessages, data).Err()
}

// PublishRideUpdate publishes a ride status change to Redis pub/sub.
func PublishRideUpdate(ctx context.Context, rideID uint, status string, userIDs []uint) error {
	updateData := map[string]interface{}{
		"rideId":    rideID,
		"status":    status,
		"userIds":   userIDs,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, ChannelRideUpdates, jsonData).Err()
}

// PublishDriverPresence publishes an online/offline flip.
func PublishDriverPresence(ctx context.Context, driverID uint, isOnline bool) error {
	data, err := json.Marshal(DriverStatusUpdate{DriverID: driverID, IsOnline: isOnline})
	if err != nil {
		return err
	}
	return RedisClient.Publish(ctx, ChannelPresence, data).Err()
}

package handlers

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/internal/observability"
	"github.com/goldlinerides/goldline-backend/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GuestRideInput is the unauthenticated booking form: no rider account,
// just a name and phone number to reach the customer.
type GuestRideInput struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Pickup     string `json:"pickup" binding:"required"`
	Dropoff    string `json:"dropoff" binding:"required"`
	LocationID string `json:"locationId" binding:"required"`
	DriverID   uint   `json:"driverId" binding:"required"`
}

// buildGuestBooking turns the form into exactly one pending ride and
// one introductory message addressed to the chosen driver. The message
// ride id is filled in once the ride row exists.
func buildGuestBooking(input GuestRideInput, driver *models.User) (models.Ride, models.Message) {
	ride := models.Ride{
		DriverID:       input.DriverID,
		CustomerName:   input.Name,
		Phone:          input.Phone,
		Pickup:         input.Pickup,
		Dropoff:        input.Dropoff,
		LocationID:     input.LocationID,
		Status:         models.RideStatusPending,
		DriverSnapshot: driver.Snapshot(),
		RiderSnapshot:  models.PartySnapshot{Name: input.Name},
		TrackingCode:   uuid.NewString(),
	}

	intro := models.Message{
		ReceiverID: input.DriverID,
		SenderName: input.Name,
		Content:    fmt.Sprintf("Hi! I've booked a ride from %s to %s. Looking forward to the trip!", input.Pickup, input.Dropoff),
	}

	return ride, intro
}

// CreateGuestRide handles unauthenticated bookings from the landing page.
func CreateGuestRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input GuestRideInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var driver models.User
		if err := db.Where("id = ? AND user_type = ?", input.DriverID, models.UserTypeDriver).First(&driver).Error; err != nil {
			c.JSON(404, gin.H{"error": "Selected driver not found"})
			return
		}

		// Prefer the presence cache; the store row is the fallback.
		online := driver.IsOnline
		if services.RedisClient != nil {
			if cached, err := services.GetDriverOnline(c.Request.Context(), driver.ID); err == nil {
				online = cached
			}
		}
		if !online || driver.Status != models.AccountStatusActive {
			c.JSON(409, gin.H{"error": "This driver is not available right now"})
			return
		}

		ride, intro := buildGuestBooking(input, &driver)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&ride).Error; err != nil {
				return err
			}
			intro.RideID = ride.ID
			return tx.Create(&intro).Error
		})
		if err != nil {
			log.Printf("Error creating guest ride: %v", err)
			c.JSON(500, gin.H{"error": "Failed to book ride. Please try again."})
			return
		}

		observability.RidesCreated.Inc()
		observability.MessagesSent.Inc()
		events.PublishRideEvent(services.EventRideRequested, &ride)

		// Tell the driver a request came in.
		notification := services.WebSocketMessage{
			Type: "ride_request",
			Data: gin.H{
				"rideId":       ride.ID,
				"customerName": ride.CustomerName,
				"pickup":       ride.Pickup,
				"dropoff":      ride.Dropoff,
				"locationId":   ride.LocationID,
			},
		}
		if data, err := json.Marshal(notification); err == nil {
			hub.BroadcastToUser(ride.DriverID, data)
		}
		services.NotifyNewMessage(c.Request.Context(), db, intro)

		c.JSON(201, gin.H{
			"rideId":       ride.ID,
			"trackingCode": ride.TrackingCode,
			"status":       ride.Status,
		})
	}
}

// GetGuestRide resolves a tracking code for the confirmation page.
func GetGuestRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("trackingCode")
		if _, err := uuid.Parse(code); err != nil {
			c.JSON(400, gin.H{"error": "Invalid tracking code"})
			return
		}

		var ride models.Ride
		if err := db.Where("tracking_code = ?", code).First(&ride).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		c.JSON(200, gin.H{
			"rideId":       ride.ID,
			"customerName": ride.CustomerName,
			"pickup":       ride.Pickup,
			"dropoff":      ride.Dropoff,
			"locationId":   ride.LocationID,
			"status":       ride.Status,
			"created_at":   ride.CreatedAt,
			"driver":       ride.DriverSnapshot,
		})
	}
}

package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/internal/observability"
	"github.com/goldlinerides/goldline-backend/internal/services"
	"github.com/goldlinerides/goldline-backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateRideInput struct {
	DriverID      uint   `json:"driverId" binding:"required"`
	Pickup        string `json:"pickup" binding:"required"`
	Dropoff       string `json:"dropoff" binding:"required"`
	LocationID    string `json:"locationId"`
	ScheduledTime string `json:"scheduled_time"`
}

// CreateRide books a ride for the signed-in rider, capturing display
// snapshots of both parties and opening the conversation with an
// introductory message.
func CreateRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return createRideHandler(db, hub, events, false)
}

// ScheduleRide books a ride for a future pickup time. Identical to
// CreateRide except scheduled_time is mandatory.
func ScheduleRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return createRideHandler(db, hub, events, true)
}

func createRideHandler(db *gorm.DB, hub *services.Hub, events *services.EventProducer, requireSchedule bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		riderID := c.GetUint("userId")

		var input CreateRideInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if requireSchedule && input.ScheduledTime == "" {
			c.JSON(400, gin.H{"error": "scheduled_time is required"})
			return
		}

		var scheduled *time.Time
		if input.ScheduledTime != "" {
			t, err := utils.ParseTimestamp(input.ScheduledTime)
			if err != nil {
				c.JSON(400, gin.H{"error": "Invalid scheduled_time"})
				return
			}
			if t.Before(time.Now()) {
				c.JSON(400, gin.H{"error": "Scheduled time must be in the future"})
				return
			}
			scheduled = &t
		}

		var rider models.User
		if err := db.First(&rider, riderID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Rider profile not found"})
			return
		}

		var driver models.User
		if err := db.Where("id = ? AND user_type = ?", input.DriverID, models.UserTypeDriver).First(&driver).Error; err != nil {
			c.JSON(404, gin.H{"error": "Selected driver not found"})
			return
		}

		ride := models.Ride{
			RiderID:        &riderID,
			DriverID:       driver.ID,
			Pickup:         input.Pickup,
			Dropoff:        input.Dropoff,
			LocationID:     input.LocationID,
			Status:         models.RideStatusPending,
			ScheduledTime:  scheduled,
			DriverSnapshot: driver.Snapshot(),
			RiderSnapshot:  rider.Snapshot(),
			TrackingCode:   uuid.NewString(),
		}

		intro := models.Message{
			SenderID:   &riderID,
			SenderName: rider.Name,
			ReceiverID: driver.ID,
			Content:    fmt.Sprintf("Hi! I've booked a ride from %s to %s. Looking forward to the trip!", input.Pickup, input.Dropoff),
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&ride).Error; err != nil {
				return err
			}
			intro.RideID = ride.ID
			return tx.Create(&intro).Error
		})
		if err != nil {
			log.Printf("Error creating ride: %v", err)
			c.JSON(500, gin.H{"error": "Failed to book ride. Please try again."})
			return
		}

		observability.RidesCreated.Inc()
		observability.MessagesSent.Inc()
		events.PublishRideEvent(services.EventRideRequested, &ride)

		notification := services.WebSocketMessage{
			Type: "ride_request",
			Data: gin.H{
				"rideId":  ride.ID,
				"riderId": riderID,
				"rider":   ride.RiderSnapshot,
				"pickup":  ride.Pickup,
				"dropoff": ride.Dropoff,
			},
		}
		if data, err := json.Marshal(notification); err == nil {
			hub.BroadcastToUser(driver.ID, data)
		}
		services.NotifyNewMessage(c.Request.Context(), db, intro)

		c.JSON(201, ride)
	}
}

// GetRiderRides lists the signed-in rider's rides, newest first.
func GetRiderRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		riderID := c.GetUint("userId")

		var rides []models.Ride
		if err := db.Where("rider_id = ?", riderID).Order("created_at desc").Find(&rides).Error; err != nil {
			log.Printf("Error fetching rides for rider %d: %v", riderID, err)
			c.JSON(200, gin.H{"rides": []models.Ride{}})
			return
		}

		c.JSON(200, gin.H{"rides": rides})
	}
}

// GetDriverRides lists rides assigned to the signed-in driver, with
// pending requests first so the dashboard can surface them.
func GetDriverRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")

		var rides []models.Ride
		if err := db.Where("driver_id = ?", driverID).Order("created_at desc").Find(&rides).Error; err != nil {
			log.Printf("Error fetching rides for driver %d: %v", driverID, err)
			c.JSON(200, gin.H{"rides": []models.Ride{}})
			return
		}

		pending := make([]models.Ride, 0, len(rides))
		past := make([]models.Ride, 0, len(rides))
		for _, r := range rides {
			if r.Status == models.RideStatusPending {
				pending = append(pending, r)
			} else {
				past = append(past, r)
			}
		}

		c.JSON(200, gin.H{"pending": pending, "rides": past})
	}
}

// GetRide returns one ride to either of its parties.
func GetRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		ride, ok := loadRideForParty(c, db, userID)
		if !ok {
			return
		}

		c.JSON(200, ride)
	}
}

// UpdateRideStatus handles PATCH-style status writes from older clients
// by translating the target status into an action, then running it
// through the same transition validation as the action endpoints.
func UpdateRideStatus(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		action, err := models.ActionForStatus(input.Status)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		applyRideAction(c, db, hub, events, action)
	}
}

// AcceptRide handles a driver accepting a pending request.
func AcceptRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return rideActionHandler(db, hub, events, models.ActionAccept)
}

// DeclineRide handles a driver declining a pending request.
func DeclineRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return rideActionHandler(db, hub, events, models.ActionDecline)
}

// StartRide moves an accepted ride to in_progress.
func StartRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return rideActionHandler(db, hub, events, models.ActionStart)
}

// CompleteRide finishes an in_progress ride.
func CompleteRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return rideActionHandler(db, hub, events, models.ActionComplete)
}

// CancelRide is available to both parties while the ride is live.
func CancelRide(db *gorm.DB, hub *services.Hub, events *services.EventProducer) gin.HandlerFunc {
	return rideActionHandler(db, hub, events, models.ActionCancel)
}

func rideActionHandler(db *gorm.DB, hub *services.Hub, events *services.EventProducer, action models.RideAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		applyRideAction(c, db, hub, events, action)
	}
}

// applyRideAction is the single code path for every status change:
// authorize the caller as a party, validate the transition, persist,
// then fan the update out to live subscribers, other API instances,
// push notifications and the event stream.
func applyRideAction(c *gin.Context, db *gorm.DB, hub *services.Hub, events *services.EventProducer, action models.RideAction) {
	userID := c.GetUint("userId")
	userType := models.UserType(c.GetString("userType"))

	ride, ok := loadRideForParty(c, db, userID)
	if !ok {
		return
	}

	next, err := models.NextRideStatus(ride.Status, action, userType)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	ride.Status = next
	if err := db.Save(ride).Error; err != nil {
		log.Printf("Error updating ride %d status: %v", ride.ID, err)
		c.JSON(500, gin.H{"error": "Failed to update ride status"})
		return
	}

	observability.RideTransitions.WithLabelValues(next).Inc()
	events.PublishRideStatus(ride)

	// Notify both parties over their live streams, on this instance and
	// every other one.
	parties := []uint{ride.DriverID}
	if ride.RiderID != nil {
		parties = append(parties, *ride.RiderID)
	}
	hub.SendRideStatusUpdate(services.RideStatusUpdate{RideID: ride.ID, Status: next}, parties...)
	if services.RedisClient != nil {
		if err := services.PublishRideUpdate(c.Request.Context(), ride.ID, next, parties); err != nil {
			log.Printf("Error publishing ride update: %v", err)
		}
	}
	for _, id := range parties {
		if id != userID {
			services.NotifyRideStatus(c.Request.Context(), db, id, ride)
		}
	}

	c.JSON(200, gin.H{
		"message": "Ride status updated successfully",
		"rideId":  ride.ID,
		"status":  ride.Status,
	})
}

type RateRideInput struct {
	Rating  float64 `json:"rating" binding:"required,min=1,max=5"`
	Comment string  `json:"comment"`
}

// RateRide lets the rider rate a completed trip and refreshes the
// driver's average.
func RateRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input RateRideInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		ride, ok := loadRideForParty(c, db, userID)
		if !ok {
			return
		}
		if ride.RiderID == nil || *ride.RiderID != userID {
			c.JSON(403, gin.H{"error": "Only the rider can rate a trip"})
			return
		}
		if ride.Status != models.RideStatusCompleted {
			c.JSON(400, gin.H{"error": "Only completed rides can be rated"})
			return
		}

		ride.Rating = input.Rating
		if err := db.Save(ride).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save rating"})
			return
		}

		// Keep the driver's average in step with their rated rides.
		var avg float64
		row := db.Model(&models.Ride{}).
			Where("driver_id = ? AND status = ? AND rating > 0", ride.DriverID, models.RideStatusCompleted).
			Select("AVG(rating)").Row()
		if err := row.Scan(&avg); err == nil && avg > 0 {
			db.Model(&models.User{}).Where("id = ?", ride.DriverID).Update("rating", avg)
		}

		c.JSON(200, gin.H{"message": "Thanks for your feedback", "rideId": ride.ID})
	}
}

// loadRideForParty parses :rideId, loads the ride and verifies the
// caller is one of its parties. On failure it writes the error response
// and returns ok=false.
func loadRideForParty(c *gin.Context, db *gorm.DB, userID uint) (*models.Ride, bool) {
	rideID, err := strconv.ParseUint(c.Param("rideId"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid ride ID"})
		return nil, false
	}

	var ride models.Ride
	if err := db.First(&ride, rideID).Error; err != nil {
		c.JSON(404, gin.H{"error": "Ride not found"})
		return nil, false
	}

	if !ride.IsParty(userID) {
		c.JSON(403, gin.H{"error": "Unauthorized to view this ride"})
		return nil, false
	}

	return &ride, true
}

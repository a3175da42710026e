package handlers

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/internal/observability"
	"github.com/goldlinerides/goldline-backend/internal/services"
	"github.com/goldlinerides/goldline-backend/internal/threads"
	"gorm.io/gorm"
)

// ChatBackend wraps the database for the WebSocket hub: it answers
// subscription authorization and history lookups.
type ChatBackend struct {
	DB *gorm.DB
}

// CanSubscribe allows only a ride's parties onto its message stream.
func (b *ChatBackend) CanSubscribe(userID, rideID uint) bool {
	var ride models.Ride
	if err := b.DB.First(&ride, rideID).Error; err != nil {
		return false
	}
	return ride.IsParty(userID)
}

// History returns every message on a ride. The hub sorts before sending.
func (b *ChatBackend) History(rideID uint) ([]models.Message, error) {
	var messages []models.Message
	err := b.DB.Where("ride_id = ?", rideID).Find(&messages).Error
	return messages, err
}

// GetThreads returns the viewer's conversation list: one thread per
// chat-eligible ride, newest activity first. Pass ?aggregate=true to
// collapse to one thread per contact.
func GetThreads(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewerID := c.GetUint("userId")

		var rides []models.Ride
		err := db.Where("(rider_id = ? OR driver_id = ?) AND status IN ?",
			viewerID, viewerID, models.ThreadStatuses).Find(&rides).Error
		if err != nil {
			log.Printf("Error fetching threads for user %d: %v", viewerID, err)
			c.JSON(200, gin.H{"threads": []threads.Thread{}})
			return
		}

		latest := make(map[uint]*models.Message, len(rides))
		unread := make(map[uint]int, len(rides))
		for _, ride := range rides {
			var msg models.Message
			err := db.Where("ride_id = ?", ride.ID).
				Order("created_at desc, id desc").First(&msg).Error
			if err == nil {
				latest[ride.ID] = &msg
			}

			var count int64
			db.Model(&models.Message{}).
				Where("ride_id = ? AND receiver_id = ? AND read = ?", ride.ID, viewerID, false).
				Count(&count)
			unread[ride.ID] = int(count)
		}

		list := threads.Build(viewerID, rides, latest, unread)
		if c.Query("aggregate") == "true" {
			list = threads.AggregateByCounterparty(viewerID, list)
		}
		if list == nil {
			list = []threads.Thread{}
		}

		c.JSON(200, gin.H{"threads": list})
	}
}

// GetMessages returns a ride's chat history in ascending timestamp
// order, the same order the live stream replays it.
func GetMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		ride, ok := loadRideForParty(c, db, userID)
		if !ok {
			return
		}

		var messages []models.Message
		if err := db.Where("ride_id = ?", ride.ID).Find(&messages).Error; err != nil {
			log.Printf("Error fetching messages for ride %d: %v", ride.ID, err)
			c.JSON(500, gin.H{"error": "Failed to fetch messages"})
			return
		}

		c.JSON(200, gin.H{"messages": services.SortMessages(messages)})
	}
}

type SendMessageInput struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage appends a message to a ride's conversation. The server
// assigns the timestamp; client clocks are not trusted for ordering.
func SendMessage(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input SendMessageInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		content := strings.TrimSpace(input.Content)
		if content == "" {
			c.JSON(400, gin.H{"error": "Message cannot be empty"})
			return
		}

		ride, ok := loadRideForParty(c, db, userID)
		if !ok {
			return
		}
		if !chatOpen(ride.Status) {
			c.JSON(400, gin.H{"error": "This conversation is closed"})
			return
		}

		var sender models.User
		if err := db.First(&sender, userID).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		receiverID := ride.DriverID
		if userID == ride.DriverID {
			id, ok := ride.CounterpartyID(userID)
			if !ok {
				c.JSON(400, gin.H{"error": "Guest riders cannot receive messages"})
				return
			}
			receiverID = id
		}

		message := models.Message{
			RideID:     ride.ID,
			SenderID:   &userID,
			SenderName: sender.Name,
			ReceiverID: receiverID,
			Content:    content,
		}
		if err := db.Create(&message).Error; err != nil {
			log.Printf("Error saving message: %v", err)
			c.JSON(500, gin.H{"error": "Failed to send message"})
			return
		}

		observability.MessagesSent.Inc()
		hub.SendNewMessage(message)
		if services.RedisClient != nil {
			if err := services.PublishMessage(c.Request.Context(), message); err != nil {
				log.Printf("Error publishing message: %v", err)
			}
		}
		services.NotifyNewMessage(c.Request.Context(), db, message)

		c.JSON(201, message)
	}
}

// MarkMessagesRead clears the unread flag on every message addressed to
// the caller in this ride.
func MarkMessagesRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		ride, ok := loadRideForParty(c, db, userID)
		if !ok {
			return
		}

		result := db.Model(&models.Message{}).
			Where("ride_id = ? AND receiver_id = ? AND read = ?", ride.ID, userID, false).
			Update("read", true)
		if result.Error != nil {
			log.Printf("Error marking messages read for ride %d: %v", ride.ID, result.Error)
			c.JSON(500, gin.H{"error": "Failed to mark messages as read"})
			return
		}

		c.JSON(200, gin.H{"updated": result.RowsAffected})
	}
}

func chatOpen(status string) bool {
	for _, s := range models.ThreadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

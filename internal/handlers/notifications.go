package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"gorm.io/gorm"
)

type DeviceTokenInput struct {
	Token string `json:"token" binding:"required"`
}

// RegisterDeviceToken stores an FCM registration token for the caller.
// Re-registering the same token is a no-op.
func RegisterDeviceToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input DeviceTokenInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var existing models.DeviceToken
		err := db.Where("user_id = ? AND token = ?", userID, input.Token).First(&existing).Error
		if err == nil {
			c.JSON(200, gin.H{"message": "Token already registered"})
			return
		}

		token := models.DeviceToken{UserID: userID, Token: input.Token}
		if err := db.Create(&token).Error; err != nil {
			log.Printf("Error registering device token for user %d: %v", userID, err)
			c.JSON(500, gin.H{"error": "Failed to register token"})
			return
		}

		c.JSON(201, gin.H{"message": "Token registered"})
	}
}

// RemoveDeviceToken deletes a token, typically on sign-out.
func RemoveDeviceToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		var input DeviceTokenInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := db.Where("user_id = ? AND token = ?", userID, input.Token).
			Delete(&models.DeviceToken{}).Error; err != nil {
			log.Printf("Error removing device token for user %d: %v", userID, err)
			c.JSON(500, gin.H{"error": "Failed to remove token"})
			return
		}

		c.JSON(200, gin.H{"message": "Token removed"})
	}
}

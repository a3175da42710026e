package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"gorm.io/gorm"
)

func profileResponse(user *models.User) gin.H {
	resp := gin.H{
		"id":               user.ID,
		"email":            user.Email,
		"name":             user.Name,
		"phone":            user.Phone,
		"photo":            user.Photo,
		"type":             user.UserType,
		"serviceLocations": user.ServiceLocations,
	}
	if user.UserType == string(models.UserTypeDriver) {
		resp["vehicleMake"] = user.VehicleMake
		resp["vehicleModel"] = user.VehicleModel
		resp["vehicleYear"] = user.VehicleYear
		resp["vehicleColor"] = user.VehicleColor
		resp["vehiclePlate"] = user.VehiclePlate
		resp["isOnline"] = user.IsOnline
		resp["status"] = user.Status
		resp["rating"] = user.Rating
	}
	return resp
}

// GetProfile retrieves the user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, profileResponse(&user))
	}
}

// UpdateProfile updates the user's profile information. Photo is a URL
// or absent; the API never handles file content.
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Name             *string   `json:"name"`
			Phone            *string   `json:"phone"`
			Photo            *string   `json:"photo"`
			ServiceLocations *[]string `json:"serviceLocations"`
			VehicleMake      *string   `json:"vehicleMake"`
			VehicleModel     *string   `json:"vehicleModel"`
			VehicleYear      *string   `json:"vehicleYear"`
			VehicleColor     *string   `json:"vehicleColor"`
			VehiclePlate     *string   `json:"vehiclePlate"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		// Update fields individually to handle empty strings properly
		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.Phone != nil {
			user.Phone = *input.Phone
		}
		if input.Photo != nil {
			user.Photo = *input.Photo
		}
		if input.ServiceLocations != nil {
			user.ServiceLocations = *input.ServiceLocations
		}
		if input.VehicleMake != nil {
			user.VehicleMake = *input.VehicleMake
		}
		if input.VehicleModel != nil {
			user.VehicleModel = *input.VehicleModel
		}
		if input.VehicleYear != nil {
			user.VehicleYear = *input.VehicleYear
		}
		if input.VehicleColor != nil {
			user.VehicleColor = *input.VehicleColor
		}
		if input.VehiclePlate != nil {
			user.VehiclePlate = *input.VehiclePlate
		}

		// Use Save() instead of Updates() to persist all fields including empty strings
		if err := db.Save(&user).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, profileResponse(&user))
	}
}

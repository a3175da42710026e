package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name             string   `json:"name" binding:"required,min=2"`
	Email            string   `json:"email" binding:"required,email"`
	Password         string   `json:"password" binding:"required,min=6"`
	Phone            string   `json:"phone" binding:"required,min=10"`
	Photo            string   `json:"photo"`
	UserType         string   `json:"type" binding:"required,oneof=rider driver"`
	ServiceLocations []string `json:"serviceLocations"`

	// Driver-only vehicle details.
	VehicleMake  string `json:"vehicleMake"`
	VehicleModel string `json:"vehicleModel"`
	VehicleYear  string `json:"vehicleYear"`
	VehicleColor string `json:"vehicleColor"`
	VehiclePlate string `json:"vehiclePlate"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.UserType == string(models.UserTypeDriver) {
			if input.VehicleMake == "" || input.VehicleModel == "" || input.VehiclePlate == "" {
				c.JSON(400, gin.H{"error": "Vehicle make, model and plate are required for drivers"})
				return
			}
		}

		// Hash the password
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to hash password"})
			return
		}

		user := models.User{
			Name:             input.Name,
			Email:            strings.ToLower(strings.TrimSpace(input.Email)),
			PasswordHash:     string(hashedPassword),
			Phone:            input.Phone,
			Photo:            input.Photo,
			UserType:         input.UserType,
			ServiceLocations: input.ServiceLocations,
			VehicleMake:      input.VehicleMake,
			VehicleModel:     input.VehicleModel,
			VehicleYear:      input.VehicleYear,
			VehicleColor:     input.VehicleColor,
			VehiclePlate:     input.VehiclePlate,
			Status:           models.AccountStatusActive,
			Rating:           5.0,
		}

		if result := db.Create(&user); result.Error != nil {
			if strings.Contains(result.Error.Error(), "duplicate") || strings.Contains(result.Error.Error(), "unique") {
				c.JSON(409, gin.H{"error": "An account with this email already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create account"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(201, gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"name":  user.Name,
				"phone": user.Phone,
				"type":  user.UserType,
			},
		})
	}
}

func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(401, gin.H{"error": "Invalid credentials"})
			return
		}

		if user.Status == models.AccountStatusSuspended {
			c.JSON(403, gin.H{"error": "This account has been disabled"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
				"name":  user.Name,
				"phone": user.Phone,
				"type":  user.UserType,
			},
		})
	}
}

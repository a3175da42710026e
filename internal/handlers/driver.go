package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goldlinerides/goldline-backend/internal/models"
	"github.com/goldlinerides/goldline-backend/internal/observability"
	"github.com/goldlinerides/goldline-backend/internal/presence"
	"github.com/goldlinerides/goldline-backend/internal/services"
	"gorm.io/gorm"
)

type AvailabilityInput struct {
	IsOnline *bool `json:"isOnline" binding:"required"`
}

// UpdateDriverAvailability flips the driver's online flag. The flip is
// idempotent: toggling to the value already in effect changes nothing
// and appends no transition record.
func UpdateDriverAvailability(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")

		var input AvailabilityInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		desired := *input.IsOnline

		var driver models.User
		if err := db.First(&driver, driverID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Driver not found"})
			return
		}

		var last models.DriverStatusChange
		lastPtr := &last
		if err := db.Where("driver_id = ?", driverID).
			Order("changed_at desc, id desc").First(&last).Error; err != nil {
			lastPtr = nil
		}

		if !presence.ShouldRecord(lastPtr, desired) && driver.IsOnline == desired {
			c.JSON(200, gin.H{"isOnline": driver.IsOnline, "changed": false})
			return
		}

		now := time.Now()
		err := db.Transaction(func(tx *gorm.DB) error {
			driver.IsOnline = desired
			driver.LastOnlineChange = &now
			if driver.Status == "" {
				driver.Status = models.AccountStatusActive
			}
			if err := tx.Save(&driver).Error; err != nil {
				return err
			}
			if presence.ShouldRecord(lastPtr, desired) {
				return tx.Create(&models.DriverStatusChange{
					DriverID:  driverID,
					IsOnline:  desired,
					ChangedAt: now,
				}).Error
			}
			return nil
		})
		if err != nil {
			log.Printf("Error updating availability for driver %d: %v", driverID, err)
			c.JSON(500, gin.H{"error": "Failed to update availability"})
			return
		}

		if desired {
			observability.DriversOnline.Inc()
		} else {
			observability.DriversOnline.Dec()
		}

		if services.RedisClient != nil {
			ctx := c.Request.Context()
			if err := services.SetDriverOnline(ctx, driverID, desired); err != nil {
				log.Printf("Error caching driver presence: %v", err)
			}
			if err := services.PublishDriverPresence(ctx, driverID, desired); err != nil {
				log.Printf("Error publishing driver presence: %v", err)
			}
		}
		hub.SendDriverStatusUpdate(services.DriverStatusUpdate{DriverID: driverID, IsOnline: desired})

		c.JSON(200, gin.H{"isOnline": desired, "changed": true})
	}
}

// GetDriverStatus reports the driver's current availability.
func GetDriverStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")

		var driver models.User
		if err := db.First(&driver, driverID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Driver not found"})
			return
		}

		c.JSON(200, gin.H{
			"isOnline":         driver.IsOnline,
			"status":           driver.Status,
			"lastOnlineChange": driver.LastOnlineChange,
		})
	}
}

// GetDriverMetrics computes the driver dashboard numbers: hours online
// (lifetime and today), ride counts and average rating.
func GetDriverMetrics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")

		var changes []models.DriverStatusChange
		if err := db.Where("driver_id = ?", driverID).Find(&changes).Error; err != nil {
			log.Printf("Error fetching status log for driver %d: %v", driverID, err)
		}
		now := time.Now()
		hours := presence.Integrate(changes, now)

		var totalRides, todayRides int64
		db.Model(&models.Ride{}).
			Where("driver_id = ? AND status = ?", driverID, models.RideStatusCompleted).
			Count(&totalRides)
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		db.Model(&models.Ride{}).
			Where("driver_id = ? AND status = ? AND updated_at >= ?", driverID, models.RideStatusCompleted, midnight).
			Count(&todayRides)

		var rating float64
		db.Model(&models.User{}).Where("id = ?", driverID).Select("rating").Row().Scan(&rating)

		c.JSON(200, gin.H{
			"hoursOnline": hours.Total,
			"todayHours":  hours.Today,
			"totalRides":  totalRides,
			"todayRides":  todayRides,
			"rating":      rating,
		})
	}
}

// GetAvailableDrivers lists online active drivers, optionally filtered
// to those serving a location. Open to guests: the booking page shows
// this list before any sign-in.
func GetAvailableDrivers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var drivers []models.User
		query := db.Where("user_type = ? AND is_online = ? AND status = ?",
			models.UserTypeDriver, true, models.AccountStatusActive)
		if err := query.Find(&drivers).Error; err != nil {
			log.Printf("Error fetching available drivers: %v", err)
			c.JSON(200, gin.H{"drivers": []gin.H{}})
			return
		}

		locationID := c.Query("locationId")
		out := make([]gin.H, 0, len(drivers))
		for _, d := range drivers {
			if locationID != "" && !serves(d.ServiceLocations, locationID) {
				continue
			}
			out = append(out, gin.H{
				"id":               d.ID,
				"name":             d.Name,
				"photo":            d.Photo,
				"rating":           d.Rating,
				"vehicle":          d.Snapshot().Vehicle,
				"serviceLocations": d.ServiceLocations,
			})
		}

		c.JSON(200, gin.H{"drivers": out})
	}
}

func serves(locations []string, locationID string) bool {
	for _, l := range locations {
		if l == locationID {
			return true
		}
	}
	return false
}

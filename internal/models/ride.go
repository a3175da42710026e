package models

import (
	"time"

	"gorm.io/gorm"
)

// RideStatus constants
const (
	RideStatusPending    = "pending"
	RideStatusAccepted   = "accepted"
	RideStatusDeclined   = "declined"
	RideStatusInProgress = "in_progress"
	RideStatusCompleted  = "completed"
	RideStatusCancelled  = "cancelled"
)

// Ride is a trip request. RiderID is nil for guest bookings, which are
// identified by CustomerName/Phone and looked up with the tracking code.
type Ride struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RiderID      *uint  `gorm:"column:rider_id;index" json:"riderId,omitempty"`
	DriverID     uint   `gorm:"column:driver_id;not null;index" json:"driverId"`
	CustomerName string `gorm:"column:customer_name" json:"customerName,omitempty"`
	Phone        string `gorm:"column:phone" json:"phone,omitempty"`
	Pickup       string `gorm:"column:pickup;not null" json:"pickup"`
	Dropoff      string `gorm:"column:dropoff;not null" json:"dropoff"`
	LocationID   string `gorm:"column:location_id" json:"locationId,omitempty"`
	Status       string `gorm:"column:status;not null;default:'pending'" json:"status"`

	ScheduledTime *time.Time `gorm:"column:scheduled_time" json:"scheduled_time,omitempty"`

	// Display snapshots captured at creation so neither party reads the
	// other's account document.
	DriverSnapshot PartySnapshot `gorm:"column:driver_snapshot;serializer:json" json:"driver"`
	RiderSnapshot  PartySnapshot `gorm:"column:rider_snapshot;serializer:json" json:"rider"`

	// Opaque handle for unauthenticated confirmation lookups.
	TrackingCode string `gorm:"column:tracking_code;uniqueIndex" json:"-"`

	Rating float64 `gorm:"column:rating" json:"rating,omitempty"`

	Rider  *User `gorm:"foreignKey:RiderID" json:"-"`
	Driver *User `gorm:"foreignKey:DriverID" json:"-"`
}

// TableName specifies the table name
func (Ride) TableName() string {
	return "rides"
}

// IsParty reports whether the user id is the rider or the driver on
// this ride.
func (r *Ride) IsParty(userID uint) bool {
	if r.DriverID == userID {
		return true
	}
	return r.RiderID != nil && *r.RiderID == userID
}

// CounterpartyID returns the other side of the ride relative to userID.
// Guest rides have no rider account; the second return is false when
// there is no counterparty id to resolve.
func (r *Ride) CounterpartyID(userID uint) (uint, bool) {
	if r.DriverID == userID {
		if r.RiderID == nil {
			return 0, false
		}
		return *r.RiderID, true
	}
	return r.DriverID, true
}

// Terminal reports whether a ride status admits no further transitions.
func Terminal(status string) bool {
	switch status {
	case RideStatusCompleted, RideStatusDeclined, RideStatusCancelled:
		return true
	}
	return false
}

// ThreadStatuses are the ride statuses that produce a chat thread.
var ThreadStatuses = []string{RideStatusAccepted, RideStatusInProgress, RideStatusCompleted}

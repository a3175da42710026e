package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeRider  UserType = "rider"
	UserTypeDriver UserType = "driver"
)

// Account status values for drivers. Riders are always "active".
const (
	AccountStatusActive    = "active"
	AccountStatusInactive  = "inactive"
	AccountStatusSuspended = "suspended"
)

// User is a rider or driver account. The API exposes riders and drivers
// as separate resources but both live in one table discriminated by
// user_type.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string `gorm:"column:name;not null" json:"name"`
	Email        string `gorm:"column:email;unique;not null" json:"email"`
	Password     string `gorm:"-:all" json:"-"` // transient, never persisted
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	Phone        string `gorm:"column:phone" json:"phone"`
	Photo        string `gorm:"column:photo" json:"photo,omitempty"`
	UserType     string `gorm:"column:user_type;not null" json:"type"`

	// Cities the account serves (drivers) or prefers (riders).
	ServiceLocations []string `gorm:"column:service_locations;serializer:json" json:"serviceLocations"`

	// Driver-only vehicle fields.
	VehicleMake  string `gorm:"column:vehicle_make" json:"vehicleMake,omitempty"`
	VehicleModel string `gorm:"column:vehicle_model" json:"vehicleModel,omitempty"`
	VehicleYear  string `gorm:"column:vehicle_year" json:"vehicleYear,omitempty"`
	VehicleColor string `gorm:"column:vehicle_color" json:"vehicleColor,omitempty"`
	VehiclePlate string `gorm:"column:vehicle_plate" json:"vehiclePlate,omitempty"`

	// Presence. lastOnlineChange pairs with the driver_status transition
	// log; the flag here is the authoritative current value.
	IsOnline         bool       `gorm:"column:is_online;not null;default:false" json:"isOnline"`
	LastOnlineChange *time.Time `gorm:"column:last_online_change" json:"lastOnlineChange,omitempty"`
	Status           string     `gorm:"column:status;not null;default:'active'" json:"status"`

	Rating float64 `gorm:"column:rating;not null;default:5.0" json:"rating"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) HashPassword() error {
	if u.Password == "" {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// Snapshot returns the denormalized display fields embedded in rides at
// creation time, so counterparties never read the account doc directly.
func (u *User) Snapshot() PartySnapshot {
	s := PartySnapshot{Name: u.Name, Photo: u.Photo}
	if u.UserType == string(UserTypeDriver) {
		s.Vehicle = u.vehicleSummary()
	}
	return s
}

func (u *User) vehicleSummary() string {
	var parts []string
	for _, p := range []string{u.VehicleColor, u.VehicleMake, u.VehicleModel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	summary := strings.Join(parts, " ")
	if u.VehicleYear != "" {
		summary += " (" + u.VehicleYear + ")"
	}
	return summary
}

// PartySnapshot is display info copied into a ride when it is created.
type PartySnapshot struct {
	Name    string `json:"name"`
	Photo   string `json:"photo,omitempty"`
	Vehicle string `json:"vehicle,omitempty"`
}

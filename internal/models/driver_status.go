package models

import "time"

// DriverStatusChange is one row in the presence transition log. Hours
// online metrics are derived by integrating these transitions; the log
// only grows when the flag actually flips.
type DriverStatusChange struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DriverID  uint      `gorm:"column:driver_id;not null;index" json:"driverId"`
	IsOnline  bool      `gorm:"column:is_online;not null" json:"isOnline"`
	ChangedAt time.Time `gorm:"column:changed_at;not null" json:"lastOnlineChange"`
}

// TableName specifies the table name
func (DriverStatusChange) TableName() string {
	return "driver_status"
}

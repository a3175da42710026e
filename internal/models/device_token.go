package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceToken is an FCM registration token for push notifications.
type DeviceToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID   uint   `gorm:"column:user_id;not null;index" json:"userId"`
	Token    string `gorm:"column:token;not null;uniqueIndex" json:"token"`
	Platform string `gorm:"column:platform" json:"platform"` // ios, android, web
	User     *User  `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name
func (DeviceToken) TableName() string {
	return "fcm_tokens"
}

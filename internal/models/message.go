package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Message belongs to exactly one ride. Ride-scoped addressing is the
// canonical scheme; the participant-pair conversation id is derived
// on demand (see ConversationID) and never stored.
type Message struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"timestamp"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	RideID     uint   `gorm:"column:ride_id;not null;index" json:"rideId"`
	SenderID   *uint  `gorm:"column:sender_id;index" json:"senderId,omitempty"`
	SenderName string `gorm:"column:sender_name" json:"senderName,omitempty"`
	ReceiverID uint   `gorm:"column:receiver_id;not null;index" json:"receiverId"`
	Content    string `gorm:"column:content;not null" json:"content"`
	Read       bool   `gorm:"column:read;not null;default:false" json:"read"`
}

// TableName specifies the table name
func (Message) TableName() string {
	return "messages"
}

// ConversationID derives the participant-pair key used by counterparty
// level thread aggregation: the two ids in ascending order joined with
// an underscore.
func ConversationID(a, b uint) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("%d_%d", a, b)
}

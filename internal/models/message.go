package models

import (
	"time"
)

// MessageStatus represents the status of a message
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Message represents a chat message between a patient and clinic staff
type Message struct {
	BaseModel
	SenderID   uint          `gorm:"index;not null" json:"senderId"`
	ReceiverID uint          `gorm:"index;not null" json:"receiverId"`
	Content    string        `gorm:"type:text" json:"content"`
	FileName   string        `gorm:"size:255" json:"fileName,omitempty"`
	FileType   string        `gorm:"size:100" json:"fileType,omitempty"`
	FileData   []byte        `gorm:"type:longblob" json:"-"`
	Status     MessageStatus `gorm:"size:20;default:'sent'" json:"status"`
	ReadAt     *time.Time    `json:"readAt,omitempty"`

	// Relations
	Sender   User `gorm:"foreignKey:SenderID" json:"sender"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"receiver"`
}

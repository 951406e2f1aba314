package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one direct message between two users. Sender, recipient, body and
// CreatedAt are immutable after insert; ReadAt only ever moves null -> non-null.
type Message struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair" json:"sender_id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index:idx_messages_pair" json:"recipient_id"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	ReadAt      *time.Time `json:"read_at"`

	// Display data joined from the sender's user row when the message is
	// returned from Send, never stored on the message itself.
	SenderName   string  `gorm:"-" json:"sender_name,omitempty"`
	SenderAvatar *string `gorm:"-" json:"sender_avatar,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

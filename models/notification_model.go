package models

import (
	"time"

	"github.com/google/uuid"
)

// InboxNotification mirrors the payload handed to the notification-inbox
// collaborator for every delivered message.
type InboxNotification struct {
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
	SenderID  uuid.UUID `json:"sender_id"`
	MessageID uuid.UUID `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

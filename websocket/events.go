package websocket

import (
	"github.com/google/uuid"

	"github.com/wavechat/wavechat-backend/models"
)

// Event type tags. Inbound and outbound payloads form a closed set; anything
// else on the wire is answered with an error event.
const (
	EventJoin     = "join"
	EventTyping   = "typing"
	EventMarkRead = "mark_read"

	EventJoined       = "joined"
	EventNewMessage   = "new_message"
	EventMessageSent  = "message_sent"
	EventUserTyping   = "user_typing"
	EventMessagesRead = "messages_read"
	EventError        = "error"
)

// InboundEvent is the envelope read from a client socket. Only the fields
// relevant to the tagged type are populated.
type InboundEvent struct {
	Type        string `json:"type"`
	UserID      string `json:"userId,omitempty"`
	SenderID    string `json:"senderId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	OtherUserID string `json:"otherUserId,omitempty"`
	IsTyping    bool   `json:"isTyping,omitempty"`
}

type JoinedEvent struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connectionId"`
}

type MessageEvent struct {
	Type    string          `json:"type"`
	Message *models.Message `json:"message"`
}

type UserTypingEvent struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"userId"`
	IsTyping bool      `json:"isTyping"`
}

type MessagesReadEvent struct {
	Type   string    `json:"type"`
	ReadBy uuid.UUID `json:"readBy"`
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func Joined(connID string) JoinedEvent {
	return JoinedEvent{Type: EventJoined, ConnectionID: connID}
}

func NewMessage(msg *models.Message) MessageEvent {
	return MessageEvent{Type: EventNewMessage, Message: msg}
}

func MessageSent(msg *models.Message) MessageEvent {
	return MessageEvent{Type: EventMessageSent, Message: msg}
}

func UserTyping(userID uuid.UUID, isTyping bool) UserTypingEvent {
	return UserTypingEvent{Type: EventUserTyping, UserID: userID, IsTyping: isTyping}
}

func MessagesRead(readBy uuid.UUID) MessagesReadEvent {
	return MessagesReadEvent{Type: EventMessagesRead, ReadBy: readBy}
}

func Error(msg string) ErrorEvent {
	return ErrorEvent{Type: EventError, Error: msg}
}

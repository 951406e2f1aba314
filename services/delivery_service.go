package services

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/wavechat/wavechat-backend/metrics"
	"github.com/wavechat/wavechat-backend/models"
	"github.com/wavechat/wavechat-backend/websocket"
)

// pushPreviewLimit caps the notification body preview, in runes.
const pushPreviewLimit = 100

// LivePusher is the live-delivery seam: the hub satisfies it in production,
// stubs satisfy it in tests.
type LivePusher interface {
	ConnectionsFor(userID uuid.UUID) []string
	Push(connID string, event interface{}) error
}

// PushSender is the push-notification collaborator. Best-effort only.
type PushSender interface {
	SendPush(userID uuid.UUID, title, body string, data map[string]string) error
}

// InboxStore is the notification-inbox collaborator. Best-effort only.
type InboxStore interface {
	SaveItem(item models.InboxNotification) error
}

// DeliveryDispatcher fans a persisted message out to live connections and
// fires the asynchronous notification path. It never reports failure to the
// sender: the message is already durable, and offline clients catch up by
// polling.
type DeliveryDispatcher struct {
	live  LivePusher
	push  PushSender
	inbox InboxStore
}

func NewDeliveryDispatcher(live LivePusher, push PushSender, inbox InboxStore) *DeliveryDispatcher {
	return &DeliveryDispatcher{live: live, push: push, inbox: inbox}
}

// Deliver pushes new_message to every recipient connection and a message_sent
// mirror to the sender's other connections, then kicks off the notification
// path in its own goroutine so the live path is never blocked by it.
func (d *DeliveryDispatcher) Deliver(msg *models.Message, originConnID string) {
	for _, connID := range d.live.ConnectionsFor(msg.RecipientID) {
		if err := d.live.Push(connID, websocket.NewMessage(msg)); err != nil {
			log.Printf("Failed to deliver message %s to connection %s: %v", msg.ID, connID, err)
			continue
		}
		metrics.LiveDeliveries.WithLabelValues(websocket.EventNewMessage).Inc()
	}

	for _, connID := range d.live.ConnectionsFor(msg.SenderID) {
		if connID == originConnID {
			continue
		}
		if err := d.live.Push(connID, websocket.MessageSent(msg)); err != nil {
			log.Printf("Failed to mirror message %s to connection %s: %v", msg.ID, connID, err)
			continue
		}
		metrics.LiveDeliveries.WithLabelValues(websocket.EventMessageSent).Inc()
	}

	go d.notify(msg)
}

func (d *DeliveryDispatcher) notify(msg *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered notification panic for message %s: %v", msg.ID, r)
		}
	}()

	preview := previewOf(msg.Body)
	title := "New direct message"
	if msg.SenderName != "" {
		title = fmt.Sprintf("New message from %s", msg.SenderName)
	}

	if d.push != nil {
		data := map[string]string{
			"type":       "direct_message",
			"sender_id":  msg.SenderID.String(),
			"message_id": msg.ID.String(),
		}
		if err := d.push.SendPush(msg.RecipientID, title, preview, data); err != nil {
			log.Printf("Push notification for message %s failed: %v", msg.ID, err)
			metrics.PushNotifications.WithLabelValues("failed").Inc()
		} else {
			metrics.PushNotifications.WithLabelValues("sent").Inc()
		}
	}

	if d.inbox != nil {
		item := models.InboxNotification{
			UserID:    msg.RecipientID,
			Title:     title,
			Body:      preview,
			Type:      "direct_message",
			SenderID:  msg.SenderID,
			MessageID: msg.ID,
			CreatedAt: msg.CreatedAt,
		}
		if err := d.inbox.SaveItem(item); err != nil {
			log.Printf("Inbox item for message %s failed: %v", msg.ID, err)
		}
	}
}

func previewOf(body string) string {
	runes := []rune(body)
	if len(runes) <= pushPreviewLimit {
		return body
	}
	return string(runes[:pushPreviewLimit]) + "..."
}

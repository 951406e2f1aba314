package handlers

import (
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/wavechat/wavechat-backend/websocket"
)

// WsHandler runs the live channel. Each accepted socket gets an opaque
// connection id and is bound to the hub immediately; it only becomes a
// delivery target once the client sends a join event naming its user.
type WsHandler struct {
	hub *websocket.Hub
}

func NewWsHandler(hub *websocket.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

func (h *WsHandler) ServeWs(c *websocketcontrib.Conn) {
	connID := uuid.New().String()
	h.hub.Bind(connID, c)

	var joinedUser uuid.UUID
	defer func() {
		h.hub.Drop(connID)
		c.Close()
		if joinedUser != uuid.Nil {
			log.Printf("Connection %s of user %s closed", connID, joinedUser)
		}
	}()

	for {
		var evt websocket.InboundEvent
		if err := c.ReadJSON(&evt); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for connection %s: %v", connID, err)
			} else {
				log.Printf("WebSocket read error for connection %s: %v", connID, err)
			}
			break
		}

		switch evt.Type {
		case websocket.EventJoin:
			userID, err := uuid.Parse(evt.UserID)
			if err != nil {
				_ = c.WriteJSON(websocket.Error("Invalid user id"))
				continue
			}
			h.hub.Join(userID, connID)
			joinedUser = userID
			// The ack tells the device its connection id so it can suppress
			// its own mirror echo on HTTP sends.
			_ = c.WriteJSON(websocket.Joined(connID))
			log.Printf("Connection %s joined as user %s", connID, userID)

		case websocket.EventTyping:
			senderID, err1 := uuid.Parse(evt.SenderID)
			recipientID, err2 := uuid.Parse(evt.RecipientID)
			if err1 != nil || err2 != nil {
				_ = c.WriteJSON(websocket.Error("Invalid typing payload"))
				continue
			}
			// Pure relay, nothing persisted.
			h.hub.PushToUser(recipientID, websocket.UserTyping(senderID, evt.IsTyping))

		case websocket.EventMarkRead:
			userID, err1 := uuid.Parse(evt.UserID)
			otherID, err2 := uuid.Parse(evt.OtherUserID)
			if err1 != nil || err2 != nil {
				_ = c.WriteJSON(websocket.Error("Invalid mark_read payload"))
				continue
			}
			// Relay only: the store does its own coarse read-marking on
			// fetch, this just lets the other party update its UI.
			h.hub.PushToUser(otherID, websocket.MessagesRead(userID))

		default:
			_ = c.WriteJSON(websocket.Error("Unknown event type"))
		}
	}
}

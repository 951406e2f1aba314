package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wavechat/wavechat-backend/metrics"
	"github.com/wavechat/wavechat-backend/services"
)

// MessagingHandler is the thin HTTP facade over the message store. It owns
// request-shape validation and numeric coercion, nothing else.
type MessagingHandler struct {
	messages *services.MessageService
}

func NewMessagingHandler(messages *services.MessageService) *MessagingHandler {
	return &MessagingHandler{messages: messages}
}

type SendMessageRequest struct {
	SenderID    string `json:"sender_id" validate:"required,uuid"`
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Content     string `json:"content" validate:"required"`
	// ConnectionID optionally names the device connection that originated
	// the send; the mirror fanout skips it so the sending device does not
	// echo its own message back.
	ConnectionID string `json:"connection_id,omitempty"`
}

func (h *MessagingHandler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	senderID, _ := uuid.Parse(req.SenderID)
	recipientID, _ := uuid.Parse(req.RecipientID)

	msg, err := h.messages.Send(senderID, recipientID, req.Content, req.ConnectionID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfMessage):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrBlocked):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
		}
	}

	metrics.MessagesSent.Inc()
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *MessagingHandler) GetMessages(c *fiber.Ctx) error {
	otherID, err := uuid.Parse(c.Params("otherUserId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid other user id"})
	}
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid userId"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid before timestamp, expected RFC3339"})
		}
		before = &t
	}

	msgs, err := h.messages.History(userID, otherID, limit, before)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}
	return c.JSON(msgs)
}

func (h *MessagingHandler) GetNewMessages(c *fiber.Ctx) error {
	otherID, err := uuid.Parse(c.Params("otherUserId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid other user id"})
	}
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid userId"})
	}
	since, err := time.Parse(time.RFC3339, c.Query("since"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid since timestamp, expected RFC3339"})
	}

	msgs, err := h.messages.Since(userID, otherID, since)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}
	return c.JSON(msgs)
}

func (h *MessagingHandler) GetConversations(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid userId"})
	}

	summaries, err := h.messages.Conversations(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversations"})
	}
	return c.JSON(summaries)
}

func (h *MessagingHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing or invalid userId"})
	}

	count, err := h.messages.UnreadCount(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch unread count"})
	}
	return c.JSON(fiber.Map{"count": count})
}

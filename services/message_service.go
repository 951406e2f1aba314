package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wavechat/wavechat-backend/models"
)

// Blocker is the block-registry collaborator consulted before every send.
type Blocker interface {
	IsBlocked(a, b uuid.UUID) (bool, error)
}

// Dispatcher receives every successfully persisted message exactly once.
// It returns nothing: delivery failures can never fail the send.
type Dispatcher interface {
	Deliver(msg *models.Message, originConnID string)
}

// ConversationSummary is one row of the conversation list: the counterpart,
// the most recent message between the pair, and how many messages from the
// counterpart are still unread.
type ConversationSummary struct {
	OtherUserID   uuid.UUID `json:"other_user_id"`
	OtherName     string    `json:"other_name"`
	OtherAvatar   *string   `json:"other_avatar"`
	LastMessage   string    `json:"last_message"`
	LastSenderID  uuid.UUID `json:"last_sender_id"`
	LastTimestamp time.Time `json:"last_timestamp"`
	UnreadCount   int64     `json:"unread_count"`
}

// MessageService is the durable message log and the sole ordering authority
// for a conversation. Ordering key is the server-assigned creation timestamp.
type MessageService struct {
	db         *gorm.DB
	blocks     Blocker
	dispatcher Dispatcher
}

func NewMessageService(db *gorm.DB, blocks Blocker, dispatcher Dispatcher) *MessageService {
	return &MessageService{db: db, blocks: blocks, dispatcher: dispatcher}
}

// Send validates, persists and enriches one message, then hands it to the
// dispatcher. The dispatcher runs after the insert so its failures cannot
// roll persistence back. originConnID names the sender's originating device
// connection when known ("" otherwise) and only shapes the mirror fanout.
func (s *MessageService) Send(senderID, recipientID uuid.UUID, body, originConnID string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}

	blocked, err := s.blocks.IsBlocked(senderID, recipientID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}

	// Display data is joined at send time, not stored: the sender can rename
	// or change avatars later without message backfill.
	var sender models.User
	if err := s.db.Select("display_name", "avatar_url").First(&sender, "id = ?", senderID).Error; err != nil {
		log.Printf("Failed to load display data for sender %s: %v", senderID, err)
	} else {
		msg.SenderName = sender.DisplayName
		msg.SenderAvatar = sender.AvatarURL
	}

	if s.dispatcher != nil {
		s.dispatcher.Deliver(msg, originConnID)
	}
	return msg, nil
}

// History returns up to limit messages between the two users, optionally only
// those strictly older than before, in chronological order. Opening a
// conversation acknowledges it: every unread message addressed to userID from
// otherID is marked read.
func (s *MessageService) History(userID, otherID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	q := s.db.
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, otherID, otherID, userID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}

	var msgs []models.Message
	if err := q.Order("created_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}

	// The window is fetched newest-first so the limit trims the oldest end;
	// callers get it oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if err := s.markConversationRead(userID, otherID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Since is the polling fallback: messages between the pair strictly newer
// than the given timestamp, oldest-first. The conversation is acknowledged
// only when the poll actually returned something.
func (s *MessageService) Since(userID, otherID uuid.UUID, since time.Time) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.
		Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)) AND created_at > ?",
			userID, otherID, otherID, userID, since).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	if len(msgs) > 0 {
		if err := s.markConversationRead(userID, otherID); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// Read-marking is coarse: the whole incoming direction of the conversation
// moves to read in one update, never message by message.
func (s *MessageService) markConversationRead(userID, otherID uuid.UUID) error {
	now := time.Now()
	return s.db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL", otherID, userID).
		Update("read_at", &now).Error
}

// lastMessagePerPair selects the most recent message of every conversation
// the user participates in. The counterpart is whichever side of the row is
// not the caller, derived per row; there is no precomputed conversation table.
const lastMessagePerPair = `
SELECT m.*
FROM messages m
JOIN (
    SELECT CASE WHEN sender_id = @uid THEN recipient_id ELSE sender_id END AS other_id,
           MAX(created_at) AS last_at
    FROM messages
    WHERE sender_id = @uid OR recipient_id = @uid
    GROUP BY CASE WHEN sender_id = @uid THEN recipient_id ELSE sender_id END
) last
  ON ((m.sender_id = @uid AND m.recipient_id = last.other_id)
   OR (m.recipient_id = @uid AND m.sender_id = last.other_id))
 AND m.created_at = last.last_at
ORDER BY m.created_at DESC`

// Conversations lists the caller's conversations, most recently active first:
// one summary per distinct counterpart with the latest message and the count
// of unread messages addressed to the caller.
func (s *MessageService) Conversations(userID uuid.UUID) ([]ConversationSummary, error) {
	var latest []models.Message
	if err := s.db.Raw(lastMessagePerPair, map[string]interface{}{"uid": userID}).Scan(&latest).Error; err != nil {
		return nil, err
	}

	type unreadRow struct {
		SenderID uuid.UUID
		Total    int64
	}
	var unread []unreadRow
	err := s.db.Model(&models.Message{}).
		Select("sender_id, COUNT(*) AS total").
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Group("sender_id").
		Scan(&unread).Error
	if err != nil {
		return nil, err
	}
	unreadBySender := make(map[uuid.UUID]int64, len(unread))
	for _, row := range unread {
		unreadBySender[row.SenderID] = row.Total
	}

	otherIDs := make([]uuid.UUID, 0, len(latest))
	seen := make(map[uuid.UUID]bool, len(latest))
	for _, msg := range latest {
		other := msg.SenderID
		if msg.SenderID == userID {
			other = msg.RecipientID
		}
		if !seen[other] {
			seen[other] = true
			otherIDs = append(otherIDs, other)
		}
	}

	displays := make(map[uuid.UUID]models.User, len(otherIDs))
	if len(otherIDs) > 0 {
		var users []models.User
		if err := s.db.Select("id", "display_name", "avatar_url").Where("id IN ?", otherIDs).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			displays[u.ID] = u
		}
	}

	summaries := make([]ConversationSummary, 0, len(otherIDs))
	added := make(map[uuid.UUID]bool, len(otherIDs))
	for _, msg := range latest {
		other := msg.SenderID
		if msg.SenderID == userID {
			other = msg.RecipientID
		}
		// Timestamp ties within a pair can yield duplicate join rows; the
		// first (newest) one wins.
		if added[other] {
			continue
		}
		added[other] = true

		summary := ConversationSummary{
			OtherUserID:   other,
			LastMessage:   msg.Body,
			LastSenderID:  msg.SenderID,
			LastTimestamp: msg.CreatedAt,
			UnreadCount:   unreadBySender[other],
		}
		if u, ok := displays[other]; ok {
			summary.OtherName = u.DisplayName
			summary.OtherAvatar = u.AvatarURL
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// UnreadCount totals unread messages addressed to the user across all
// conversations.
func (s *MessageService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

package services_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wavechat/wavechat-backend/models"
	"github.com/wavechat/wavechat-backend/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Message{}, &models.Block{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	avatar := "https://cdn.example.com/" + strings.ToLower(name) + ".png"
	user := models.User{
		DisplayName: name,
		Email:       strings.ToLower(name) + "@example.com",
		Password:    "irrelevant",
		AvatarURL:   &avatar,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", name, err)
	}
	return user
}

func seedMessage(t *testing.T, db *gorm.DB, sender, recipient uuid.UUID, body string, at time.Time) models.Message {
	t.Helper()
	msg := models.Message{
		ID:          uuid.New(),
		SenderID:    sender,
		RecipientID: recipient,
		Body:        body,
		CreatedAt:   at,
	}
	if err := db.Create(&msg).Error; err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
	return msg
}

func messageCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count messages: %v", err)
	}
	return count
}

type dispatchCall struct {
	msg    *models.Message
	origin string
}

type recordDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (d *recordDispatcher) Deliver(msg *models.Message, originConnID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{msg: msg, origin: originConnID})
}

func newService(t *testing.T, db *gorm.DB) (*services.MessageService, *recordDispatcher) {
	t.Helper()
	dispatcher := &recordDispatcher{}
	return services.NewMessageService(db, services.NewBlockService(db), dispatcher), dispatcher
}

func TestSendAppearsInHistory(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	sent, err := svc.Send(alice.ID, bob.ID, "hello bob", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	history, err := svc.History(alice.ID, bob.ID, 10, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) == 0 {
		t.Fatalf("expected history to contain the sent message")
	}
	last := history[len(history)-1]
	if last.ID != sent.ID || last.Body != "hello bob" {
		t.Fatalf("expected last history entry to be the sent message, got %+v", last)
	}
}

func TestSendToSelfFails(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	svc, dispatcher := newService(t, db)

	_, err := svc.Send(alice.ID, alice.ID, "talking to myself", "")
	if err != services.ErrSelfMessage {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
	if messageCount(t, db) != 0 {
		t.Fatalf("self-message must not create a row")
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("self-message must not reach the dispatcher")
	}
}

func TestSendBlockedEitherDirection(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, dispatcher := newService(t, db)

	// Bob blocked Alice; neither side can message the other.
	if err := db.Create(&models.Block{BlockerID: bob.ID, BlockedID: alice.ID}).Error; err != nil {
		t.Fatalf("failed to seed block: %v", err)
	}

	if _, err := svc.Send(alice.ID, bob.ID, "hi", ""); err != services.ErrBlocked {
		t.Fatalf("expected ErrBlocked for blocked sender, got %v", err)
	}
	if _, err := svc.Send(bob.ID, alice.ID, "hi", ""); err != services.ErrBlocked {
		t.Fatalf("expected ErrBlocked for blocking sender, got %v", err)
	}
	if messageCount(t, db) != 0 {
		t.Fatalf("blocked sends must not create rows")
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("blocked sends must not reach the dispatcher")
	}
}

func TestSendEnrichesSenderDisplay(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	sent, err := svc.Send(alice.ID, bob.ID, "hello", "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if sent.SenderName != "Alice" {
		t.Fatalf("expected sender name enrichment, got %q", sent.SenderName)
	}
	if sent.SenderAvatar == nil || *sent.SenderAvatar != *alice.AvatarURL {
		t.Fatalf("expected sender avatar enrichment, got %v", sent.SenderAvatar)
	}
}

func TestSendTriggersDispatcherOnce(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, dispatcher := newService(t, db)

	sent, err := svc.Send(alice.ID, bob.ID, "hello", "conn-origin")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(dispatcher.calls))
	}
	call := dispatcher.calls[0]
	if call.msg.ID != sent.ID || call.origin != "conn-origin" {
		t.Fatalf("dispatcher received wrong arguments: %+v", call)
	}
}

func TestHistoryMarksIncomingRead(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, bob.ID, alice.ID, "one", base)
	seedMessage(t, db, bob.ID, alice.ID, "two", base.Add(time.Minute))
	seedMessage(t, db, alice.ID, bob.ID, "reply", base.Add(2*time.Minute))

	before, err := svc.UnreadCount(alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if before != 2 {
		t.Fatalf("expected 2 unread before opening, got %d", before)
	}

	history, err := svc.History(alice.ID, bob.ID, 50, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}

	after, err := svc.UnreadCount(alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if after != 0 {
		t.Fatalf("opening the conversation should acknowledge all incoming messages, %d left", after)
	}

	// Bob's own unread state is untouched: Alice's reply stays unread for him.
	bobUnread, err := svc.UnreadCount(bob.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if bobUnread != 1 {
		t.Fatalf("expected bob to still have 1 unread, got %d", bobUnread)
	}
}

func TestHistoryIdempotentOrdering(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		sender, recipient := alice.ID, bob.ID
		if i%2 == 1 {
			sender, recipient = bob.ID, alice.ID
		}
		seedMessage(t, db, sender, recipient, fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := svc.History(alice.ID, bob.ID, 50, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	second, err := svc.History(alice.ID, bob.ID, 50, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("history length changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("history order changed at index %d", i)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].CreatedAt.Before(first[i-1].CreatedAt) {
			t.Fatalf("history is not chronological at index %d", i)
		}
	}
}

func TestHistoryLimitKeepsNewest(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		seedMessage(t, db, alice.ID, bob.ID, fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	history, err := svc.History(alice.ID, bob.ID, 2, nil)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected limit to cap the window, got %d", len(history))
	}
	if history[0].Body != "msg-4" || history[1].Body != "msg-5" {
		t.Fatalf("expected the two newest messages oldest-first, got %q then %q", history[0].Body, history[1].Body)
	}
}

func TestHistoryCursorPagination(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	var msgs []models.Message
	for i := 0; i < 4; i++ {
		msgs = append(msgs, seedMessage(t, db, alice.ID, bob.ID, fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	cursor := msgs[2].CreatedAt
	page, err := svc.History(alice.ID, bob.ID, 50, &cursor)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 messages strictly before the cursor, got %d", len(page))
	}
	if page[0].Body != "msg-0" || page[1].Body != "msg-1" {
		t.Fatalf("unexpected page contents: %q, %q", page[0].Body, page[1].Body)
	}
}

func TestSinceStrictlyNewer(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, bob.ID, alice.ID, "old", base)
	newest := seedMessage(t, db, bob.ID, alice.ID, "hi", base.Add(time.Minute))

	got, err := svc.Since(alice.ID, bob.ID, base)
	if err != nil {
		t.Fatalf("Since failed: %v", err)
	}
	if len(got) != 1 || got[0].Body != "hi" {
		t.Fatalf("expected only the strictly newer message, got %+v", got)
	}

	// A cursor equal to the newest timestamp returns nothing.
	empty, err := svc.Since(alice.ID, bob.ID, newest.CreatedAt)
	if err != nil {
		t.Fatalf("Since failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty result for cursor equal to newest timestamp, got %d", len(empty))
	}
}

func TestSinceMarksReadOnlyWhenNonEmpty(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	newest := seedMessage(t, db, bob.ID, alice.ID, "hi", base)

	if _, err := svc.Since(alice.ID, bob.ID, newest.CreatedAt); err != nil {
		t.Fatalf("Since failed: %v", err)
	}
	unread, err := svc.UnreadCount(alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 1 {
		t.Fatalf("an empty poll must not acknowledge anything, got %d unread", unread)
	}

	if _, err := svc.Since(alice.ID, bob.ID, base.Add(-time.Minute)); err != nil {
		t.Fatalf("Since failed: %v", err)
	}
	unread, err = svc.UnreadCount(alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if unread != 0 {
		t.Fatalf("a non-empty poll acknowledges the conversation, got %d unread", unread)
	}
}

func TestConversationsSummaries(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	carol := seedUser(t, db, "Carol")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, alice.ID, bob.ID, "hey bob", base)
	seedMessage(t, db, bob.ID, alice.ID, "hey alice", base.Add(time.Minute))
	seedMessage(t, db, carol.ID, alice.ID, "ping", base.Add(2*time.Minute))
	seedMessage(t, db, carol.ID, alice.ID, "ping again", base.Add(3*time.Minute))

	summaries, err := svc.Conversations(alice.ID)
	if err != nil {
		t.Fatalf("Conversations failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected one summary per counterpart, got %d", len(summaries))
	}

	// Most recently active conversation first.
	if summaries[0].OtherUserID != carol.ID {
		t.Fatalf("expected carol's conversation first, got %s", summaries[0].OtherUserID)
	}
	if summaries[0].LastMessage != "ping again" || summaries[0].LastSenderID != carol.ID {
		t.Fatalf("unexpected last message for carol: %+v", summaries[0])
	}
	if summaries[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread from carol, got %d", summaries[0].UnreadCount)
	}
	if summaries[0].OtherName != "Carol" || summaries[0].OtherAvatar == nil {
		t.Fatalf("expected counterpart display enrichment, got %+v", summaries[0])
	}

	if summaries[1].OtherUserID != bob.ID {
		t.Fatalf("expected bob's conversation second, got %s", summaries[1].OtherUserID)
	}
	if summaries[1].LastMessage != "hey alice" || summaries[1].UnreadCount != 1 {
		t.Fatalf("unexpected summary for bob: %+v", summaries[1])
	}
}

func TestUnreadCountAcrossConversations(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	carol := seedUser(t, db, "Carol")
	svc, _ := newService(t, db)

	base := time.Now().Add(-time.Hour)
	seedMessage(t, db, bob.ID, alice.ID, "one", base)
	seedMessage(t, db, carol.ID, alice.ID, "two", base.Add(time.Minute))
	seedMessage(t, db, alice.ID, bob.ID, "outgoing does not count", base.Add(2*time.Minute))

	count, err := svc.UnreadCount(alice.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unread across conversations, got %d", count)
	}
}

func TestUnknownCounterpartYieldsEmpty(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	svc, _ := newService(t, db)

	history, err := svc.History(alice.ID, uuid.New(), 50, nil)
	if err != nil {
		t.Fatalf("History against unknown counterpart must not error, got %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d", len(history))
	}

	since, err := svc.Since(alice.ID, uuid.New(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Since against unknown counterpart must not error, got %v", err)
	}
	if len(since) != 0 {
		t.Fatalf("expected empty poll result, got %d", len(since))
	}
}

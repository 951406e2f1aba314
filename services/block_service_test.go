package services_test

import (
	"testing"

	"github.com/wavechat/wavechat-backend/models"
	"github.com/wavechat/wavechat-backend/services"
)

func TestIsBlockedSymmetric(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	carol := seedUser(t, db, "Carol")
	blocks := services.NewBlockService(db)

	if err := db.Create(&models.Block{BlockerID: alice.ID, BlockedID: bob.ID}).Error; err != nil {
		t.Fatalf("failed to seed block: %v", err)
	}

	got, err := blocks.IsBlocked(alice.ID, bob.ID)
	if err != nil || !got {
		t.Fatalf("expected blocked in blocker order, got %v err %v", got, err)
	}
	got, err = blocks.IsBlocked(bob.ID, alice.ID)
	if err != nil || !got {
		t.Fatalf("expected blocked in reversed order, got %v err %v", got, err)
	}
	got, err = blocks.IsBlocked(alice.ID, carol.ID)
	if err != nil || got {
		t.Fatalf("expected unblocked pair, got %v err %v", got, err)
	}
}

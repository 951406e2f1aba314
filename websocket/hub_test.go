package websocket_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/wavechat/wavechat-backend/websocket"
)

type stubConn struct {
	writes []interface{}
	err    error
	closed bool
}

func (c *stubConn) WriteJSON(v interface{}) error {
	c.writes = append(c.writes, v)
	return c.err
}

func (c *stubConn) Close() error {
	c.closed = true
	return nil
}

func TestPushReachesBoundConnection(t *testing.T) {
	hub := websocket.NewHub()
	conn := &stubConn{}
	hub.Bind("c1", conn)

	evt := websocket.Joined("c1")
	if err := hub.Push("c1", evt); err != nil {
		t.Fatalf("Push returned error: %v", err)
	}
	if len(conn.writes) != 1 || conn.writes[0] != evt {
		t.Fatalf("expected one write of the event, got %#v", conn.writes)
	}
}

func TestPushToUnknownConnectionIsNoOp(t *testing.T) {
	hub := websocket.NewHub()
	if err := hub.Push("gone", websocket.Error("x")); err != nil {
		t.Fatalf("pushing to a dropped connection must not error, got %v", err)
	}
}

func TestPushToUserWritesAllConnections(t *testing.T) {
	hub := websocket.NewHub()
	user := uuid.New()
	c1 := &stubConn{}
	c2 := &stubConn{}
	hub.Bind("c1", c1)
	hub.Bind("c2", c2)
	hub.Join(user, "c1")
	hub.Join(user, "c2")

	hub.PushToUser(user, websocket.MessagesRead(uuid.New()))

	if len(c1.writes) != 1 || len(c2.writes) != 1 {
		t.Fatalf("expected both connections to receive the event, got %d and %d", len(c1.writes), len(c2.writes))
	}
}

func TestPushToUserContinuesPastWriteErrors(t *testing.T) {
	hub := websocket.NewHub()
	user := uuid.New()
	ok := &stubConn{}
	bad := &stubConn{err: errors.New("write failed")}
	hub.Bind("ok", ok)
	hub.Bind("bad", bad)
	hub.Join(user, "ok")
	hub.Join(user, "bad")

	hub.PushToUser(user, websocket.UserTyping(uuid.New(), true))

	if len(ok.writes) != 1 {
		t.Fatalf("healthy connection should still receive the event")
	}
}

func TestDropUnregistersConnection(t *testing.T) {
	hub := websocket.NewHub()
	user := uuid.New()
	conn := &stubConn{}
	hub.Bind("c1", conn)
	hub.Join(user, "c1")

	hub.Drop("c1")

	if hub.Registry().IsOnline(user) {
		t.Fatalf("user should be offline after its only connection dropped")
	}
	if err := hub.Push("c1", websocket.Error("x")); err != nil {
		t.Fatalf("push after drop should be a silent no-op, got %v", err)
	}
	if len(conn.writes) != 0 {
		t.Fatalf("dropped connection must not receive writes")
	}
}

func TestDropNeverBoundConnectionIsSilent(t *testing.T) {
	hub := websocket.NewHub()
	hub.Drop("never-bound")
}

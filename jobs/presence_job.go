package jobs

import (
	"log"

	"github.com/wavechat/wavechat-backend/metrics"
)

// PresenceSource is the read-only view of the connection registry the job
// needs.
type PresenceSource interface {
	OnlineUserCount() int
	ConnectionCount() int
}

var Presence PresenceSource

// LogPresenceStats reports how many users are reachable live and keeps the
// online-users gauge in step with the registry. The registry itself stays
// authoritative; the gauge is advisory.
func LogPresenceStats() {
	if Presence == nil {
		return
	}

	users := Presence.OnlineUserCount()
	conns := Presence.ConnectionCount()
	metrics.OnlineUsers.Set(float64(users))
	log.Printf("Presence: %d users online across %d connections", users, conns)
}

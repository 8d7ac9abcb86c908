package gateway

import "time"

// Session is the gateway session established by the handshake frame.
// It is created exactly once per connection, is immutable afterwards, and
// dies with the socket.
type Session struct {
	ID                string
	Upgrades          []string
	HeartbeatInterval time.Duration
}

// newSession converts the handshake's millisecond ping interval into the
// session's heartbeat schedule.
func newSession(hs *Handshake) *Session {
	return &Session{
		ID:                hs.SID,
		Upgrades:          append([]string(nil), hs.Upgrades...),
		HeartbeatInterval: time.Duration(hs.PingInterval) * time.Millisecond,
	}
}

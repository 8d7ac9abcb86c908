// Package types holds the domain objects the event router and object cache
// work with. Field sets are intentionally minimal: only what cache
// reconciliation and the public events need. Richer views of an entity stay
// available through each object's Raw payload.
package types

import "time"

// User is a platform account.
type User struct {
	ID     string
	Name   string
	Avatar string
	Banner string
	Bio    string

	// Raw is the payload the user was built from.
	Raw map[string]any
}

// Member is a user within a team: the user plus team-scoped fields.
type Member struct {
	User
	TeamID   string
	Nickname string
	XP       int64
	RoleIDs  []int64
}

// Clone returns a copy of the member so a cached "before" snapshot survives
// an update being applied.
func (m *Member) Clone() *Member {
	out := *m
	out.RoleIDs = append([]int64(nil), m.RoleIDs...)
	return &out
}

// ApplyProfileField applies one profile-update field by wire name. Only the
// enumerated update-eligible fields are applied; the return value reports
// whether key was one of them.
func (m *Member) ApplyProfileField(key string, value any) bool {
	switch key {
	case "name":
		m.Name = asString(value)
	case "nickname":
		m.Nickname = asString(value)
	case "profilePicture":
		m.Avatar = asString(value)
	case "profileBannerBlur":
		m.Banner = asString(value)
	case "aboutInfo":
		m.Bio = asString(value)
	default:
		return false
	}
	return true
}

// Team is a server/community.
type Team struct {
	ID      string
	Name    string
	OwnerID string

	Raw map[string]any
}

// Channel kinds on the wire.
const (
	ChannelTypeTeam = "Team"
	ChannelTypeDM   = "DM"
)

// Channel is a message channel, either team-scoped or a DM.
type Channel struct {
	ID     string
	Type   string // ChannelTypeTeam or ChannelTypeDM
	Name   string
	TeamID string
	Team   *Team // resolved team for team-scoped channels, may be nil

	Raw map[string]any
}

// IsTeamChannel reports whether the channel is team-scoped.
func (c *Channel) IsTeamChannel() bool {
	return c != nil && (c.Type == ChannelTypeTeam || c.TeamID != "")
}

// Message is one chat message together with its resolved relations.
type Message struct {
	ID        string
	ChannelID string
	TeamID    string
	CreatedBy string
	WebhookID string
	CreatedAt string // wire timestamp, carried verbatim

	Channel *Channel // may be nil if resolution failed
	Author  *User    // may be nil if resolution failed
	Team    *Team    // may be nil for DMs or if resolution failed

	// Raw is the event payload the message was built from.
	Raw map[string]any

	// ReceivedAt is when this client observed the message.
	ReceivedAt time.Time
}

package types

import "time"

// The gateway delivers loosely-typed JSON objects whose important keys
// sometimes live at the top level and sometimes under a nested "message"
// object, depending on the event. These helpers normalize that access; they
// are exported because the gateway router shares them.

// asString converts a payload value to string, tolerating absent values.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// StringField returns the string at key, or "".
func StringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	return asString(data[key])
}

// MapField returns the object at key, or nil.
func MapField(data map[string]any, key string) map[string]any {
	if data == nil {
		return nil
	}
	m, _ := data[key].(map[string]any)
	return m
}

// NumberField returns the number at key and whether one was present.
// JSON numbers arrive as float64.
func NumberField(data map[string]any, key string) (float64, bool) {
	if data == nil {
		return 0, false
	}
	n, ok := data[key].(float64)
	return n, ok
}

// MessageField returns the string at key, falling back to the nested
// "message" object. Event payloads are inconsistent about which level
// carries channelId, createdBy and friends.
func MessageField(data map[string]any, key string) string {
	if s := StringField(data, key); s != "" {
		return s
	}
	return StringField(MapField(data, "message"), key)
}

// MessageID returns the message id carried by an event payload.
func MessageID(data map[string]any) string {
	return MessageField(data, "id")
}

// MessageFromEvent builds a Message from a gateway event payload plus its
// resolved relations. Any relation may be nil when resolution failed; that
// degrades the corresponding field, it does not fail construction.
func MessageFromEvent(data map[string]any, channel *Channel, author *User, team *Team) *Message {
	m := &Message{
		ID:         MessageField(data, "id"),
		ChannelID:  MessageField(data, "channelId"),
		TeamID:     MessageField(data, "teamId"),
		CreatedBy:  MessageField(data, "createdBy"),
		WebhookID:  MessageField(data, "webhookId"),
		CreatedAt:  MessageField(data, "createdAt"),
		Channel:    channel,
		Author:     author,
		Team:       team,
		Raw:        data,
		ReceivedAt: time.Now().UTC(),
	}
	if m.TeamID == "" && channel != nil {
		m.TeamID = channel.TeamID
	}
	if m.Team == nil && channel != nil {
		m.Team = channel.Team
	}
	return m
}

// UserFromPayload builds a User from a REST or gateway payload. A wrapping
// "user" object, as returned by the profile endpoints, is unwrapped first.
func UserFromPayload(data map[string]any) *User {
	if inner := MapField(data, "user"); inner != nil {
		data = inner
	}
	u := &User{
		ID:     StringField(data, "id"),
		Name:   StringField(data, "name"),
		Avatar: StringField(data, "profilePicture"),
		Banner: StringField(data, "profileBannerBlur"),
		Bio:    StringField(data, "aboutInfo"),
		Raw:    data,
	}
	if u.ID == "" {
		u.ID = StringField(data, "userId")
	}
	return u
}

// MemberFromPayload builds a Member from a payload carrying teamId, a user
// id and optionally a "userInfo" object of profile fields.
func MemberFromPayload(data map[string]any) *Member {
	m := &Member{
		User:   *UserFromPayload(data),
		TeamID: StringField(data, "teamId"),
	}
	m.Nickname = StringField(data, "nickname")
	if xp, ok := NumberField(data, "xp"); ok {
		m.XP = int64(xp)
	}
	m.RoleIDs = Int64Slice(data, "roleIds")
	for key, value := range MapField(data, "userInfo") {
		m.ApplyProfileField(key, value)
	}
	return m
}

// TeamFromPayload builds a Team, unwrapping a "team" object if present.
func TeamFromPayload(data map[string]any) *Team {
	if inner := MapField(data, "team"); inner != nil {
		data = inner
	}
	return &Team{
		ID:      StringField(data, "id"),
		Name:    StringField(data, "name"),
		OwnerID: StringField(data, "ownerId"),
		Raw:     data,
	}
}

// ChannelFromPayload builds a Channel, unwrapping a "channel" object if
// present. Channels without a teamId are DM channels.
func ChannelFromPayload(data map[string]any) *Channel {
	if inner := MapField(data, "channel"); inner != nil {
		data = inner
	}
	c := &Channel{
		ID:     StringField(data, "id"),
		Type:   StringField(data, "type"),
		Name:   StringField(data, "name"),
		TeamID: StringField(data, "teamId"),
		Raw:    data,
	}
	if c.Type == "" {
		if c.TeamID != "" {
			c.Type = ChannelTypeTeam
		} else {
			c.Type = ChannelTypeDM
		}
	}
	return c
}

// StringSlice returns the strings at key.
func StringSlice(data map[string]any, key string) []string {
	raw, _ := data[key].([]any)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Int64Slice returns the integers at key. JSON numbers arrive as float64.
func Int64Slice(data map[string]any, key string) []int64 {
	raw, _ := data[key].([]any)
	if raw == nil {
		return nil
	}
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(float64); ok {
			out = append(out, int64(n))
		}
	}
	return out
}

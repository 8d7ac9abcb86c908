package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageFieldFallsBackToNestedObject(t *testing.T) {
	data := map[string]any{
		"channelId": "c-top",
		"message": map[string]any{
			"id":        "m1",
			"createdBy": "u-nested",
		},
	}

	assert.Equal(t, "c-top", MessageField(data, "channelId"))
	assert.Equal(t, "u-nested", MessageField(data, "createdBy"))
	assert.Equal(t, "m1", MessageID(data))
	assert.Equal(t, "", MessageField(data, "absent"))
}

func TestMessageFromEvent(t *testing.T) {
	team := &Team{ID: "t1"}
	channel := &Channel{ID: "c1", Type: ChannelTypeTeam, TeamID: "t1", Team: team}
	author := &User{ID: "u1"}

	data := map[string]any{
		"channelId": "c1",
		"createdBy": "u1",
		"message": map[string]any{
			"id":        "m1",
			"createdAt": "2024-06-01T10:00:00Z",
			"webhookId": "wh1",
		},
	}

	m := MessageFromEvent(data, channel, author, nil)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "c1", m.ChannelID)
	assert.Equal(t, "2024-06-01T10:00:00Z", m.CreatedAt)
	assert.Equal(t, "wh1", m.WebhookID)
	// Team scope fills in from the channel when the payload omits it.
	assert.Equal(t, "t1", m.TeamID)
	assert.Same(t, team, m.Team)
	assert.False(t, m.ReceivedAt.IsZero())
}

func TestUserFromPayloadUnwrapsUserObject(t *testing.T) {
	u := UserFromPayload(map[string]any{
		"user": map[string]any{
			"id":             "u1",
			"name":           "alice",
			"profilePicture": "pic.png",
			"aboutInfo":      "hi",
		},
	})
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice", u.Name)
	assert.Equal(t, "pic.png", u.Avatar)
	assert.Equal(t, "hi", u.Bio)

	// userId is an accepted alternative id key.
	u = UserFromPayload(map[string]any{"userId": "u2"})
	assert.Equal(t, "u2", u.ID)
}

func TestMemberFromPayload(t *testing.T) {
	m := MemberFromPayload(map[string]any{
		"teamId":   "t1",
		"userId":   "u1",
		"nickname": "neo",
		"xp":       float64(300),
		"roleIds":  []any{float64(1), float64(2)},
		"userInfo": map[string]any{"aboutInfo": "updated"},
	})
	assert.Equal(t, "t1", m.TeamID)
	assert.Equal(t, "u1", m.ID)
	assert.Equal(t, "neo", m.Nickname)
	assert.Equal(t, int64(300), m.XP)
	assert.Equal(t, []int64{1, 2}, m.RoleIDs)
	assert.Equal(t, "updated", m.Bio)
}

func TestChannelFromPayload(t *testing.T) {
	ch := ChannelFromPayload(map[string]any{
		"channel": map[string]any{"id": "c1", "teamId": "t1", "name": "general"},
	})
	assert.Equal(t, "c1", ch.ID)
	assert.Equal(t, "general", ch.Name)
	// Type infers from team scope when absent.
	assert.Equal(t, ChannelTypeTeam, ch.Type)
	assert.True(t, ch.IsTeamChannel())

	dm := ChannelFromPayload(map[string]any{"id": "c2"})
	assert.False(t, dm.IsTeamChannel())
}

func TestApplyProfileField(t *testing.T) {
	m := &Member{User: User{ID: "u1", Name: "old"}}

	assert.True(t, m.ApplyProfileField("name", "new"))
	assert.True(t, m.ApplyProfileField("nickname", "nick"))
	assert.True(t, m.ApplyProfileField("profilePicture", "p.png"))
	assert.True(t, m.ApplyProfileField("profileBannerBlur", "b.png"))
	assert.True(t, m.ApplyProfileField("aboutInfo", "bio"))
	assert.False(t, m.ApplyProfileField("somethingElse", "x"))

	assert.Equal(t, "new", m.Name)
	assert.Equal(t, "nick", m.Nickname)
	assert.Equal(t, "p.png", m.Avatar)
	assert.Equal(t, "b.png", m.Banner)
	assert.Equal(t, "bio", m.Bio)
}

func TestMemberClone(t *testing.T) {
	m := &Member{User: User{ID: "u1"}, RoleIDs: []int64{1, 2}}
	c := m.Clone()

	require.NotSame(t, m, c)
	c.RoleIDs[0] = 99
	assert.Equal(t, int64(1), m.RoleIDs[0], "clone must not share the role slice")
}

func TestScalarHelpers(t *testing.T) {
	data := map[string]any{
		"s":    "str",
		"n":    float64(7),
		"list": []any{"a", "b", 3},
		"nums": []any{float64(1), "2", float64(3)},
	}

	assert.Equal(t, "str", StringField(data, "s"))
	assert.Equal(t, "", StringField(data, "n"))

	n, ok := NumberField(data, "n")
	assert.True(t, ok)
	assert.Equal(t, float64(7), n)
	_, ok = NumberField(data, "s")
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, StringSlice(data, "list"))
	assert.Equal(t, []int64{1, 3}, Int64Slice(data, "nums"))

	assert.Nil(t, MapField(nil, "x"))
}

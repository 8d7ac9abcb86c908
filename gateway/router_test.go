package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8r2y5/guilded/errors"
	"github.com/8r2y5/guilded/state"
	"github.com/8r2y5/guilded/types"
)

// fakeResolver resolves entities from in-memory maps; anything missing
// resolves to an error, exercising the degrade-to-nil paths.
type fakeResolver struct {
	channels map[string]*types.Channel
	users    map[string]*types.User
	members  map[string]*types.Member
	teams    map[string]*types.Team
}

func (f *fakeResolver) Channel(_ context.Context, id string) (*types.Channel, error) {
	if c, ok := f.channels[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("no channel %s", id)
}

func (f *fakeResolver) User(_ context.Context, id string) (*types.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("no user %s", id)
}

func (f *fakeResolver) Member(_ context.Context, teamID, userID string) (*types.Member, error) {
	if m, ok := f.members[teamID+"/"+userID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("no member %s/%s", teamID, userID)
}

func (f *fakeResolver) Team(_ context.Context, id string) (*types.Team, error) {
	if t, ok := f.teams[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("no team %s", id)
}

type routerFixture struct {
	router   *Router
	state    *state.State
	resolver *fakeResolver
	hooks    *Hooks
	sent     []string
	sendErr  error
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	st, err := state.New(10)
	require.NoError(t, err)

	f := &routerFixture{
		state: st,
		resolver: &fakeResolver{
			channels: make(map[string]*types.Channel),
			users:    make(map[string]*types.User),
			members:  make(map[string]*types.Member),
			teams:    make(map[string]*types.Team),
		},
		hooks: &Hooks{},
	}
	f.router = NewRouter(st, f.resolver, f.hooks, func(text string) error {
		if f.sendErr != nil {
			return f.sendErr
		}
		f.sent = append(f.sent, text)
		return nil
	})
	t.Cleanup(f.router.Stop)
	return f
}

func (f *routerFixture) handshake(t *testing.T) {
	t.Helper()
	err := f.router.HandleFrame(context.Background(), Frame{
		Kind:      KindHandshake,
		Handshake: &Handshake{SID: "sid-1", PingInterval: 3600000},
	})
	require.NoError(t, err)
}

func eventFrame(eventType string, data map[string]any) Frame {
	return Frame{Kind: KindEvent, Type: eventType, Data: data}
}

func TestHandshakeEstablishesSessionOnce(t *testing.T) {
	f := newRouterFixture(t)

	f.handshake(t)

	require.NotNil(t, f.router.Session())
	assert.Equal(t, "sid-1", f.router.Session().ID)
	assert.Equal(t, time.Hour, f.router.Session().HeartbeatInterval)
	require.NotNil(t, f.router.Heartbeat())
	// The handshake is acknowledged immediately, ahead of the ticker.
	require.Len(t, f.sent, 1)
	assert.Equal(t, HeartbeatPayload, f.sent[0])

	// A repeated handshake is ignored, not an error.
	first := f.router.Heartbeat()
	err := f.router.HandleFrame(context.Background(), Frame{
		Kind:      KindHandshake,
		Handshake: &Handshake{SID: "sid-2", PingInterval: 1000},
	})
	require.NoError(t, err)
	assert.Equal(t, "sid-1", f.router.Session().ID)
	assert.Same(t, first, f.router.Heartbeat())
}

func TestHandshakeSendFailure(t *testing.T) {
	f := newRouterFixture(t)
	f.sendErr = errors.ErrConnectionClosed

	err := f.router.HandleFrame(context.Background(), Frame{
		Kind:      KindHandshake,
		Handshake: &Handshake{SID: "sid-1", PingInterval: 25000},
	})
	require.Error(t, err)
	assert.Nil(t, f.router.Heartbeat())
}

func TestControlFrameAcknowledgesHeartbeat(t *testing.T) {
	f := newRouterFixture(t)

	// Before the handshake there is no supervisor; the frame is ignored.
	require.NoError(t, f.router.HandleFrame(context.Background(), Frame{Kind: KindControl}))

	f.handshake(t)
	require.NoError(t, f.router.HandleFrame(context.Background(), Frame{Kind: KindControl}))
}

func TestUnknownEventIgnored(t *testing.T) {
	f := newRouterFixture(t)

	err := f.router.HandleFrame(context.Background(),
		eventFrame("SomeFutureEvent", map[string]any{"k": "v"}))
	assert.NoError(t, err)
}

func TestMessageCreatedResolvesAndCaches(t *testing.T) {
	f := newRouterFixture(t)

	team := &types.Team{ID: "t1", Name: "Team"}
	channel := &types.Channel{ID: "c1", Type: types.ChannelTypeTeam, TeamID: "t1", Team: team}
	member := &types.Member{User: types.User{ID: "u1", Name: "alice"}, TeamID: "t1"}
	f.resolver.channels["c1"] = channel
	f.resolver.members["t1/u1"] = member

	var got *types.Message
	f.hooks.Message = func(m *types.Message) { got = m }

	err := f.router.HandleFrame(context.Background(), eventFrame("ChatMessageCreated", map[string]any{
		"channelId": "c1",
		"teamId":    "t1",
		"createdBy": "u1",
		"message":   map[string]any{"id": "m1", "createdAt": "2024-01-01T00:00:00Z"},
	}))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "c1", got.ChannelID)
	assert.Equal(t, "t1", got.TeamID)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Name)
	assert.Same(t, team, got.Team)

	cached, ok := f.state.Message("m1")
	require.True(t, ok)
	assert.Same(t, got, cached)
}

func TestMessageCreatedDegradesUnresolvedRelations(t *testing.T) {
	f := newRouterFixture(t)

	var got *types.Message
	f.hooks.Message = func(m *types.Message) { got = m }

	err := f.router.HandleFrame(context.Background(), eventFrame("ChatMessageCreated", map[string]any{
		"channelId": "c-unknown",
		"createdBy": "u-unknown",
		"message":   map[string]any{"id": "m1"},
	}))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Nil(t, got.Channel)
	assert.Nil(t, got.Author)
	assert.Nil(t, got.Team)
}

func TestMessageDeleted(t *testing.T) {
	f := newRouterFixture(t)

	var raws []RawMessageDelete
	var typed []*types.Message
	f.hooks.RawMessageDelete = func(d RawMessageDelete) { raws = append(raws, d) }
	f.hooks.MessageDelete = func(m *types.Message) { typed = append(typed, m) }

	// Unknown message: raw fires with a nil cache entry, typed does not.
	err := f.router.HandleFrame(context.Background(),
		eventFrame("ChatMessageDeleted", map[string]any{"message": map[string]any{"id": "m-gone"}}))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Nil(t, raws[0].CachedMessage)
	assert.Empty(t, typed)

	// Cached message: both fire and the cache entry is removed.
	msg := &types.Message{ID: "m1"}
	require.NoError(t, f.state.AddMessage(msg))

	err = f.router.HandleFrame(context.Background(),
		eventFrame("ChatMessageDeleted", map[string]any{"message": map[string]any{"id": "m1"}}))
	require.NoError(t, err)
	require.Len(t, raws, 2)
	assert.Same(t, msg, raws[1].CachedMessage)
	require.Len(t, typed, 1)
	assert.Same(t, msg, typed[0])

	_, ok := f.state.Message("m1")
	assert.False(t, ok)
}

func TestMessageUpdated(t *testing.T) {
	f := newRouterFixture(t)

	var rawFired bool
	var before, after *types.Message
	f.hooks.RawMessageEdit = func(map[string]any) { rawFired = true }
	f.hooks.MessageEdit = func(b, a *types.Message) { before, after = b, a }

	// Without a prior cached version only the raw hook fires.
	err := f.router.HandleFrame(context.Background(),
		eventFrame("ChatMessageUpdated", map[string]any{"message": map[string]any{"id": "m-unseen"}}))
	require.NoError(t, err)
	assert.True(t, rawFired)
	assert.Nil(t, after)

	prior := &types.Message{ID: "m1", CreatedAt: "2024-01-01T00:00:00Z", WebhookID: "wh1"}
	require.NoError(t, f.state.AddMessage(prior))

	err = f.router.HandleFrame(context.Background(),
		eventFrame("ChatMessageUpdated", map[string]any{
			"channelId": "c1",
			"message":   map[string]any{"id": "m1", "content": "edited"},
		}))
	require.NoError(t, err)

	require.NotNil(t, after)
	assert.Same(t, prior, before)
	// Immutable fields carry over from the prior version.
	assert.Equal(t, prior.CreatedAt, after.CreatedAt)
	assert.Equal(t, prior.WebhookID, after.WebhookID)

	cached, ok := f.state.Message("m1")
	require.True(t, ok)
	assert.Same(t, after, cached)
}

func TestPinnedEvents(t *testing.T) {
	f := newRouterFixture(t)

	var rawTeam, rawDM, typedTeam, typedDM int
	f.hooks.RawTeamMessagePinned = func(map[string]any) { rawTeam++ }
	f.hooks.RawDMMessagePinned = func(map[string]any) { rawDM++ }
	f.hooks.TeamMessagePinned = func(*types.Message) { typedTeam++ }
	f.hooks.DMMessagePinned = func(*types.Message) { typedDM++ }

	// Uncached team-channel pin: raw only.
	err := f.router.HandleFrame(context.Background(),
		eventFrame("ChatPinnedMessageCreated", map[string]any{
			"channelType": "Team",
			"message":     map[string]any{"id": "m-unknown"},
		}))
	require.NoError(t, err)
	assert.Equal(t, 1, rawTeam)
	assert.Equal(t, 0, typedTeam)

	// Cached team message: raw and typed.
	require.NoError(t, f.state.AddMessage(&types.Message{ID: "m1", Team: &types.Team{ID: "t1"}}))
	err = f.router.HandleFrame(context.Background(),
		eventFrame("ChatPinnedMessageCreated", map[string]any{
			"channelType": "Team",
			"message":     map[string]any{"id": "m1"},
		}))
	require.NoError(t, err)
	assert.Equal(t, 2, rawTeam)
	assert.Equal(t, 1, typedTeam)

	// Cached DM message: DM hooks.
	require.NoError(t, f.state.AddMessage(&types.Message{ID: "m2"}))
	err = f.router.HandleFrame(context.Background(),
		eventFrame("ChatPinnedMessageCreated", map[string]any{
			"channelType": "DM",
			"message":     map[string]any{"id": "m2"},
		}))
	require.NoError(t, err)
	assert.Equal(t, 1, rawDM)
	assert.Equal(t, 1, typedDM)
}

func TestUnpinnedEvents(t *testing.T) {
	f := newRouterFixture(t)

	var rawTeam, typedTeam int
	f.hooks.RawTeamMessageUnpinned = func(map[string]any) { rawTeam++ }
	f.hooks.TeamMessageUnpinned = func(*types.Message) { typedTeam++ }

	require.NoError(t, f.state.AddMessage(&types.Message{ID: "m1", Team: &types.Team{ID: "t1"}}))
	err := f.router.HandleFrame(context.Background(),
		eventFrame("ChatPinnedMessageDeleted", map[string]any{
			"channelType": "Team",
			"message":     map[string]any{"id": "m1"},
		}))
	require.NoError(t, err)
	assert.Equal(t, 1, rawTeam)
	assert.Equal(t, 1, typedTeam)
}

func TestChannelTyping(t *testing.T) {
	f := newRouterFixture(t)

	var channelID, userID string
	var at time.Time
	f.hooks.Typing = func(c, u string, ts time.Time) { channelID, userID, at = c, u, ts }

	err := f.router.HandleFrame(context.Background(),
		eventFrame("ChatChannelTyping", map[string]any{"channelId": "c1", "userId": "u1"}))
	require.NoError(t, err)
	assert.Equal(t, "c1", channelID)
	assert.Equal(t, "u1", userID)
	assert.WithinDuration(t, time.Now().UTC(), at, time.Second)
}

func TestTeamXPSet(t *testing.T) {
	f := newRouterFixture(t)

	var before, after *types.Member
	f.hooks.MemberUpdate = func(b, a *types.Member) { before, after = b, a }

	payload := map[string]any{
		"teamId":  "t1",
		"amount":  float64(250),
		"userIds": []any{"u1"},
	}

	// No cached team: no-op.
	require.NoError(t, f.router.HandleFrame(context.Background(), eventFrame("TeamXpSet", payload)))
	assert.Nil(t, after)

	require.NoError(t, f.state.AddTeam(&types.Team{ID: "t1"}))
	member := &types.Member{User: types.User{ID: "u1"}, TeamID: "t1", XP: 100}
	require.NoError(t, f.state.AddMember(member))

	// Zero amount: no-op.
	require.NoError(t, f.router.HandleFrame(context.Background(), eventFrame("TeamXpSet", map[string]any{
		"teamId": "t1", "amount": float64(0), "userIds": []any{"u1"},
	})))
	assert.Nil(t, after)

	require.NoError(t, f.router.HandleFrame(context.Background(), eventFrame("TeamXpSet", payload)))
	require.NotNil(t, after)
	assert.Equal(t, int64(100), before.XP)
	assert.Equal(t, int64(250), after.XP)

	cached, ok := f.state.Member("t1", "u1")
	require.True(t, ok)
	assert.Equal(t, int64(250), cached.XP)
}

func TestMemberProfileUpdated(t *testing.T) {
	f := newRouterFixture(t)

	var raw *types.Member
	var before, after *types.Member
	f.hooks.RawMemberUpdate = func(m *types.Member) { raw = m }
	f.hooks.MemberUpdate = func(b, a *types.Member) { before, after = b, a }

	payload := map[string]any{
		"teamId": "t1",
		"userId": "u1",
		"userInfo": map[string]any{
			"nickname":  "neo",
			"aboutInfo": "hello",
			"ignored":   "field",
		},
	}

	// Raw fires even without cached entities; typed needs both.
	require.NoError(t, f.router.HandleFrame(context.Background(), eventFrame("TeamMemberUpdated", payload)))
	require.NotNil(t, raw)
	assert.Equal(t, "neo", raw.Nickname)
	assert.Nil(t, after)

	require.NoError(t, f.state.AddTeam(&types.Team{ID: "t1"}))
	require.NoError(t, f.state.AddMember(&types.Member{
		User: types.User{ID: "u1", Name: "alice"}, TeamID: "t1",
	}))

	require.NoError(t, f.router.HandleFrame(context.Background(), eventFrame("TeamMemberUpdated", payload)))
	require.NotNil(t, after)
	assert.Equal(t, "", before.Nickname)
	assert.Equal(t, "neo", after.Nickname)
	assert.Equal(t, "hello", after.Bio)
	assert.Equal(t, "alice", after.Name) // untouched fields survive

	cached, ok := f.state.Member("t1", "u1")
	require.True(t, ok)
	assert.Equal(t, "neo", cached.Nickname)
}

func TestTeamRolesUpdated(t *testing.T) {
	f := newRouterFixture(t)

	type update struct{ before, after *types.Member }
	var updates []update
	f.hooks.MemberUpdate = func(b, a *types.Member) { updates = append(updates, update{b, a}) }

	require.NoError(t, f.state.AddTeam(&types.Team{ID: "t1"}))
	require.NoError(t, f.state.AddMember(&types.Member{
		User: types.User{ID: "u1"}, TeamID: "t1", RoleIDs: []int64{1},
	}))
	require.NoError(t, f.state.AddMember(&types.Member{
		User: types.User{ID: "u2"}, TeamID: "t1",
	}))

	err := f.router.HandleFrame(context.Background(), eventFrame("teamRolesUpdates", map[string]any{
		"teamId": "t1",
		"memberRoleIds": []any{
			map[string]any{"userId": "u1", "roleIds": []any{float64(2), float64(3)}},
			map[string]any{"userId": "u-uncached", "roleIds": []any{float64(9)}},
			map[string]any{"userId": "u2", "roleIds": []any{float64(4)}},
		},
	}))
	require.NoError(t, err)

	// Uncached members are skipped; updates fire in batch order.
	require.Len(t, updates, 2)
	assert.Equal(t, "u1", updates[0].after.ID)
	assert.Equal(t, []int64{1}, updates[0].before.RoleIDs)
	assert.Equal(t, []int64{2, 3}, updates[0].after.RoleIDs)
	assert.Equal(t, "u2", updates[1].after.ID)
	assert.Equal(t, []int64{4}, updates[1].after.RoleIDs)
}

func TestHandlerErrorWrappedAndReported(t *testing.T) {
	f := newRouterFixture(t)

	var hookErr error
	f.hooks.Error = func(err error) { hookErr = err }

	// A message payload with no id fails the cache insert.
	err := f.router.HandleFrame(context.Background(),
		eventFrame("ChatMessageCreated", map[string]any{"channelId": ""}))
	require.Error(t, err)

	var eventErr *errors.EventError
	require.ErrorAs(t, err, &eventErr)
	assert.Equal(t, "ChatMessageCreated", eventErr.Event)
	assert.Equal(t, err, hookErr)
}

func TestHandleRawFiresFrameHooks(t *testing.T) {
	f := newRouterFixture(t)

	var raws []string
	var frames []Frame
	f.hooks.RawReceive = func(raw string) { raws = append(raws, raw) }
	f.hooks.FrameReceived = func(fr Frame) { frames = append(frames, fr) }

	err := f.router.HandleRaw(context.Background(),
		`0{"sid":"sid-1","pingInterval":3600000}`)
	require.NoError(t, err)

	require.Len(t, raws, 1)
	assert.Equal(t, `0{"sid":"sid-1","pingInterval":3600000}`, raws[0])
	require.Len(t, frames, 1)
	assert.Equal(t, KindHandshake, frames[0].Kind)
	require.NotNil(t, f.router.Session())
}

func TestHandleRawReportsDecodeFailure(t *testing.T) {
	f := newRouterFixture(t)

	var reported error
	f.hooks.Error = func(err error) { reported = err }
	var frames int
	f.hooks.FrameReceived = func(Frame) { frames++ }

	err := f.router.HandleRaw(context.Background(), `42{"broken json`)
	var de *errors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, err, reported)
	assert.Zero(t, frames)
}

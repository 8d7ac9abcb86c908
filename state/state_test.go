package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/8r2y5/guilded/types"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	st, err := New(3)
	require.NoError(t, err)
	return st
}

func TestMessageStoreIsBounded(t *testing.T) {
	st := newTestState(t)

	for i := 1; i <= 4; i++ {
		err := st.AddMessage(&types.Message{ID: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, st.MessageCount())
	_, ok := st.Message("m1")
	assert.False(t, ok, "oldest message should be evicted")
	_, ok = st.Message("m4")
	assert.True(t, ok)
}

func TestRemoveMessage(t *testing.T) {
	st := newTestState(t)

	require.NoError(t, st.AddMessage(&types.Message{ID: "m1"}))
	assert.True(t, st.RemoveMessage("m1"))
	assert.False(t, st.RemoveMessage("m1"))
}

func TestMembersAreScopedByTeam(t *testing.T) {
	st := newTestState(t)

	require.NoError(t, st.AddMember(&types.Member{
		User: types.User{ID: "u1", Name: "in team one"}, TeamID: "t1",
	}))
	require.NoError(t, st.AddMember(&types.Member{
		User: types.User{ID: "u1", Name: "in team two"}, TeamID: "t2",
	}))

	m1, ok := st.Member("t1", "u1")
	require.True(t, ok)
	assert.Equal(t, "in team one", m1.Name)

	m2, ok := st.Member("t2", "u1")
	require.True(t, ok)
	assert.Equal(t, "in team two", m2.Name)

	_, ok = st.Member("t3", "u1")
	assert.False(t, ok)
}

func TestChannelRouting(t *testing.T) {
	st := newTestState(t)

	teamCh := &types.Channel{ID: "c1", Type: types.ChannelTypeTeam, TeamID: "t1"}
	dmCh := &types.Channel{ID: "c2", Type: types.ChannelTypeDM}

	require.NoError(t, st.AddChannel(teamCh))
	require.NoError(t, st.AddChannel(dmCh))

	// Each lands in its own store.
	got, ok := st.TeamChannel("c1")
	require.True(t, ok)
	assert.Same(t, teamCh, got)
	_, ok = st.DMChannel("c1")
	assert.False(t, ok)

	got, ok = st.DMChannel("c2")
	require.True(t, ok)
	assert.Same(t, dmCh, got)

	// The combined lookup checks both.
	got, ok = st.Channel("c1")
	require.True(t, ok)
	assert.Same(t, teamCh, got)
	got, ok = st.Channel("c2")
	require.True(t, ok)
	assert.Same(t, dmCh, got)
	_, ok = st.Channel("c3")
	assert.False(t, ok)
}

func TestTeamsAndUsers(t *testing.T) {
	st := newTestState(t)

	require.NoError(t, st.AddTeam(&types.Team{ID: "t1", Name: "Team"}))
	team, ok := st.Team("t1")
	require.True(t, ok)
	assert.Equal(t, "Team", team.Name)

	require.NoError(t, st.AddUser(&types.User{ID: "u1", Name: "alice"}))
	user, ok := st.User("u1")
	require.True(t, ok)
	assert.Equal(t, "alice", user.Name)
}

func TestInvalidMaxMessages(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}

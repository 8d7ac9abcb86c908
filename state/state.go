// Package state is the in-memory object cache: one id-keyed store per
// entity kind, holding the most recently seen version of each domain
// object. Only the event-processing flow and the REST executor's success
// paths write here.
package state

import (
	"fmt"

	"github.com/8r2y5/guilded/errors"
	"github.com/8r2y5/guilded/metric"
	"github.com/8r2y5/guilded/pkg/cache"
	"github.com/8r2y5/guilded/types"
)

// State holds the per-kind stores. The message store is capacity-bounded
// with oldest-first eviction; everything else is unbounded. Each store is
// individually synchronized, so concurrent readers never block each other.
type State struct {
	messages     cache.Cache[*types.Message]
	teams        cache.Cache[*types.Team]
	users        cache.Cache[*types.User]
	members      cache.Cache[*types.Member]
	teamChannels cache.Cache[*types.Channel]
	dmChannels   cache.Cache[*types.Channel]
}

// Option configures the state stores.
type Option func(*options)

type options struct {
	registry *metric.Registry
}

// WithMetrics exports per-store cache statistics through registry.
func WithMetrics(registry *metric.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// New creates the object cache with the message store bounded at
// maxMessages entries.
func New(maxMessages int, opts ...Option) (*State, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	msgOpts := []cache.Option[*types.Message]{}
	teamOpts := []cache.Option[*types.Team]{}
	userOpts := []cache.Option[*types.User]{}
	memberOpts := []cache.Option[*types.Member]{}
	teamChOpts := []cache.Option[*types.Channel]{}
	dmChOpts := []cache.Option[*types.Channel]{}
	if o.registry != nil {
		msgOpts = append(msgOpts, cache.WithMetrics[*types.Message](o.registry, "messages"))
		teamOpts = append(teamOpts, cache.WithMetrics[*types.Team](o.registry, "teams"))
		userOpts = append(userOpts, cache.WithMetrics[*types.User](o.registry, "users"))
		memberOpts = append(memberOpts, cache.WithMetrics[*types.Member](o.registry, "members"))
		teamChOpts = append(teamChOpts, cache.WithMetrics[*types.Channel](o.registry, "team_channels"))
		dmChOpts = append(dmChOpts, cache.WithMetrics[*types.Channel](o.registry, "dm_channels"))
	}

	messages, err := cache.NewFIFO[*types.Message](maxMessages, msgOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "state", "New", "create message store")
	}
	teams, err := cache.NewSimple[*types.Team](teamOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "state", "New", "create team store")
	}
	users, err := cache.NewSimple[*types.User](userOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "state", "New", "create user store")
	}
	members, err := cache.NewSimple[*types.Member](memberOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "state", "New", "create member store")
	}
	teamChannels, err := cache.NewSimple[*types.Channel](teamChOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "state", "New", "create team channel store")
	}
	dmChannels, err := cache.NewSimple[*types.Channel](dmChOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "state", "New", "create dm channel store")
	}

	return &State{
		messages:     messages,
		teams:        teams,
		users:        users,
		members:      members,
		teamChannels: teamChannels,
		dmChannels:   dmChannels,
	}, nil
}

// memberKey indexes a member by team first, then user.
func memberKey(teamID, userID string) string {
	return fmt.Sprintf("%s/%s", teamID, userID)
}

// Message returns the cached message with the given id.
func (s *State) Message(id string) (*types.Message, bool) {
	return s.messages.Get(id)
}

// AddMessage inserts or overwrites a message. The store's bound may evict
// the oldest-inserted message as a result.
func (s *State) AddMessage(m *types.Message) error {
	_, err := s.messages.Set(m.ID, m)
	return err
}

// RemoveMessage deletes a message by id, reporting whether it was cached.
func (s *State) RemoveMessage(id string) bool {
	ok, _ := s.messages.Delete(id)
	return ok
}

// MessageCount returns the number of cached messages.
func (s *State) MessageCount() int {
	return s.messages.Size()
}

// Team returns the cached team with the given id.
func (s *State) Team(id string) (*types.Team, bool) {
	return s.teams.Get(id)
}

// AddTeam inserts or overwrites a team.
func (s *State) AddTeam(t *types.Team) error {
	_, err := s.teams.Set(t.ID, t)
	return err
}

// User returns the cached user with the given id.
func (s *State) User(id string) (*types.User, bool) {
	return s.users.Get(id)
}

// AddUser inserts or overwrites a user.
func (s *State) AddUser(u *types.User) error {
	_, err := s.users.Set(u.ID, u)
	return err
}

// Member returns the cached member keyed by team then user id.
func (s *State) Member(teamID, userID string) (*types.Member, bool) {
	return s.members.Get(memberKey(teamID, userID))
}

// AddMember inserts or overwrites a member under its team/user key.
func (s *State) AddMember(m *types.Member) error {
	_, err := s.members.Set(memberKey(m.TeamID, m.ID), m)
	return err
}

// TeamChannel returns the cached team channel with the given id.
func (s *State) TeamChannel(id string) (*types.Channel, bool) {
	return s.teamChannels.Get(id)
}

// AddTeamChannel inserts or overwrites a team channel.
func (s *State) AddTeamChannel(c *types.Channel) error {
	_, err := s.teamChannels.Set(c.ID, c)
	return err
}

// DMChannel returns the cached DM channel with the given id.
func (s *State) DMChannel(id string) (*types.Channel, bool) {
	return s.dmChannels.Get(id)
}

// AddDMChannel inserts or overwrites a DM channel.
func (s *State) AddDMChannel(c *types.Channel) error {
	_, err := s.dmChannels.Set(c.ID, c)
	return err
}

// Channel looks an id up in the team channel store first, then the DM
// channel store.
func (s *State) Channel(id string) (*types.Channel, bool) {
	if c, ok := s.teamChannels.Get(id); ok {
		return c, true
	}
	return s.dmChannels.Get(id)
}

// AddChannel routes a channel into the store matching its kind.
func (s *State) AddChannel(c *types.Channel) error {
	if c.IsTeamChannel() {
		return s.AddTeamChannel(c)
	}
	return s.AddDMChannel(c)
}

package client

import (
	"context"

	"github.com/8r2y5/guilded/types"
)

// The client doubles as the router's entity resolver: every lookup
// consults the object cache first and falls back to the REST API, caching
// whatever the API returned.

// Channel resolves a channel by id.
func (c *Client) Channel(ctx context.Context, id string) (*types.Channel, error) {
	if ch, ok := c.state.Channel(id); ok {
		return ch, nil
	}
	ch, err := c.rest.GetChannel(ctx, id)
	if err != nil || ch == nil {
		return nil, err
	}
	if err := c.state.AddChannel(ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// User resolves a user by id.
func (c *Client) User(ctx context.Context, id string) (*types.User, error) {
	if u, ok := c.state.User(id); ok {
		return u, nil
	}
	u, err := c.rest.GetUser(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	if err := c.state.AddUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Member resolves a team member.
func (c *Client) Member(ctx context.Context, teamID, userID string) (*types.Member, error) {
	if m, ok := c.state.Member(teamID, userID); ok {
		return m, nil
	}
	m, err := c.rest.GetTeamMember(ctx, teamID, userID)
	if err != nil || m == nil {
		return nil, err
	}
	if err := c.state.AddMember(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Team resolves a team by id.
func (c *Client) Team(ctx context.Context, id string) (*types.Team, error) {
	if t, ok := c.state.Team(id); ok {
		return t, nil
	}
	t, err := c.rest.GetTeam(ctx, id)
	if err != nil || t == nil {
		return nil, err
	}
	if err := c.state.AddTeam(t); err != nil {
		return nil, err
	}
	return t, nil
}

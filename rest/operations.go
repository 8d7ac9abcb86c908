package rest

import (
	"context"

	"github.com/google/uuid"

	"github.com/8r2y5/guilded/errors"
	"github.com/8r2y5/guilded/types"
)

// Login authenticates with email and password, captures the session cookie
// for all subsequent requests, and returns the logged-in user.
func (c *Client) Login(ctx context.Context, email, password string) (*types.User, error) {
	body, headers, err := c.doWithHeaders(ctx, routeLogin(), withJSONBody(map[string]any{
		"email":    email,
		"password": password,
	}))
	if err != nil {
		return nil, err
	}

	cookie := headers.Get("Set-Cookie")
	if cookie == "" {
		return nil, errors.ErrNoCookie
	}
	c.cookie = cookie

	data, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	return types.UserFromPayload(data), nil
}

// Logout ends the session. The cookie is kept; the server has invalidated it.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, routeLogout())
	return err
}

// Me returns the authenticated user's own payload.
func (c *Client) Me(ctx context.Context) (map[string]any, error) {
	return c.doJSON(ctx, routeMe())
}

// UpdateActivity pings the presence endpoint to keep the user marked active.
func (c *Client) UpdateActivity(ctx context.Context) error {
	_, err := c.do(ctx, routePing())
	return err
}

// SendMessage posts a message payload to a channel. A fresh message id is
// generated client-side and returned so the caller can correlate the
// gateway echo of its own message.
func (c *Client) SendMessage(ctx context.Context, channelID string, payload map[string]any) (string, error) {
	messageID := uuid.New().String()

	body := map[string]any{"messageId": messageID}
	for k, v := range payload {
		body[k] = v
	}

	if _, err := c.do(ctx, routeCreateMessage(channelID), withJSONBody(body)); err != nil {
		return "", err
	}
	return messageID, nil
}

// EditMessage replaces a message's content payload.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID string, payload map[string]any) error {
	_, err := c.do(ctx, routeUpdateMessage(channelID, messageID), withJSONBody(payload))
	return err
}

// DeleteMessage removes a message from a channel.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_, err := c.do(ctx, routeDeleteMessage(channelID, messageID))
	return err
}

// GetChannelMessages returns a channel's recent message payloads.
func (c *Client) GetChannelMessages(ctx context.Context, channelID string) ([]map[string]any, error) {
	data, err := c.doJSON(ctx, routeChannelMessages(channelID))
	if err != nil {
		return nil, err
	}
	return objectSlice(data, "messages"), nil
}

// GetChannelMessage fetches one message through the content metadata route,
// the only endpoint that serves single messages.
func (c *Client) GetChannelMessage(ctx context.Context, channelID, messageID string) (map[string]any, error) {
	data, err := c.doJSON(ctx, routeChannelMessage(channelID, messageID))
	if err != nil {
		return nil, err
	}
	meta := types.MapField(data, "metadata")
	if meta == nil {
		return nil, nil
	}
	return types.MapField(meta, "message"), nil
}

// GetChannel fetches a channel through the content metadata route.
func (c *Client) GetChannel(ctx context.Context, channelID string) (*types.Channel, error) {
	data, err := c.doJSON(ctx, routeChannelMetadata(channelID))
	if err != nil {
		return nil, err
	}
	meta := types.MapField(data, "metadata")
	if meta == nil {
		return nil, nil
	}
	return types.ChannelFromPayload(meta), nil
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := c.do(ctx, routeDeleteChannel(channelID))
	return err
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*types.User, error) {
	data, err := c.doJSON(ctx, routeUser(userID))
	if err != nil {
		return nil, err
	}
	return types.UserFromPayload(data), nil
}

// GetTeam fetches a team by id.
func (c *Client) GetTeam(ctx context.Context, teamID string) (*types.Team, error) {
	data, err := c.doJSON(ctx, routeTeam(teamID))
	if err != nil {
		return nil, err
	}
	return types.TeamFromPayload(data), nil
}

// GetTeamMembers returns a team's member list.
func (c *Client) GetTeamMembers(ctx context.Context, teamID string) ([]*types.Member, error) {
	data, err := c.doJSON(ctx, routeTeamMembers(teamID))
	if err != nil {
		return nil, err
	}

	payloads := objectSlice(data, "members")
	members := make([]*types.Member, 0, len(payloads))
	for _, p := range payloads {
		m := types.MemberFromPayload(p)
		m.TeamID = teamID
		members = append(members, m)
	}
	return members, nil
}

// GetTeamMember fetches one team member.
func (c *Client) GetTeamMember(ctx context.Context, teamID, userID string) (*types.Member, error) {
	data, err := c.doJSON(ctx, routeTeamMember(teamID, userID))
	if err != nil {
		return nil, err
	}
	m := types.MemberFromPayload(data)
	m.TeamID = teamID
	return m, nil
}

// GetTeamChannels returns a team's channel list.
func (c *Client) GetTeamChannels(ctx context.Context, teamID string) ([]*types.Channel, error) {
	data, err := c.doJSON(ctx, routeTeamChannels(teamID))
	if err != nil {
		return nil, err
	}

	payloads := objectSlice(data, "channels")
	channels := make([]*types.Channel, 0, len(payloads))
	for _, p := range payloads {
		ch := types.ChannelFromPayload(p)
		if ch.TeamID == "" {
			ch.TeamID = teamID
			ch.Type = types.ChannelTypeTeam
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// SearchTeams runs a public team search and returns the raw result payloads.
func (c *Client) SearchTeams(ctx context.Context, query string) ([]map[string]any, error) {
	data, err := c.doJSON(ctx, routeSearchTeams(query))
	if err != nil {
		return nil, err
	}
	return objectSlice(data, "results"), nil
}

// JoinTeam joins the authenticated user to a team.
func (c *Client) JoinTeam(ctx context.Context, teamID string) error {
	_, err := c.do(ctx, routeJoinTeam(teamID))
	return err
}

// LeaveTeam removes the authenticated user from a team.
func (c *Client) LeaveTeam(ctx context.Context, teamID string) error {
	_, err := c.do(ctx, routeLeaveTeam(teamID))
	return err
}

// AcceptInvite consumes an invite for the authenticated user.
func (c *Client) AcceptInvite(ctx context.Context, inviteID string) error {
	_, err := c.do(ctx, routeAcceptInvite(inviteID), withJSONBody(map[string]any{"type": "consume"}))
	return err
}

// CreateTeamInvite creates an invite and returns its id.
func (c *Client) CreateTeamInvite(ctx context.Context, teamID string) (string, error) {
	data, err := c.doJSON(ctx, routeCreateTeamInvite(teamID), withJSONBody(map[string]any{"teamId": teamID}))
	if err != nil {
		return "", err
	}
	invite := types.MapField(data, "invite")
	if invite == nil {
		return types.StringField(data, "id"), nil
	}
	return types.StringField(invite, "id"), nil
}

// SetNickname changes a member's nickname in a team.
func (c *Client) SetNickname(ctx context.Context, teamID, userID, nickname string) error {
	_, err := c.do(ctx, routeMemberNickname(teamID, userID), withJSONBody(map[string]any{
		"nickname": nickname,
	}))
	return err
}

// ResetNickname clears a member's nickname in a team.
func (c *Client) ResetNickname(ctx context.Context, teamID, userID string) error {
	_, err := c.do(ctx, routeDeleteMemberNickname(teamID, userID))
	return err
}

// CreateGroup creates a channel group in a team.
func (c *Client) CreateGroup(ctx context.Context, teamID string, payload map[string]any) (map[string]any, error) {
	return c.doJSON(ctx, routeCreateGroup(teamID), withJSONBody(payload))
}

// UpdateGroup edits a channel group.
func (c *Client) UpdateGroup(ctx context.Context, teamID, groupID string, payload map[string]any) error {
	_, err := c.do(ctx, routeUpdateGroup(teamID, groupID), withJSONBody(payload))
	return err
}

// DeleteGroup removes a channel group.
func (c *Client) DeleteGroup(ctx context.Context, teamID, groupID string) error {
	_, err := c.do(ctx, routeDeleteGroup(teamID, groupID))
	return err
}

// DeleteTeamEmoji removes a custom emoji from a team.
func (c *Client) DeleteTeamEmoji(ctx context.Context, teamID string, emojiID int64) error {
	_, err := c.do(ctx, routeDeleteTeamEmoji(teamID, emojiID))
	return err
}

// UploadMedia uploads raw media bytes and returns the hosted URL.
func (c *Client) UploadMedia(ctx context.Context, contentType string, data []byte) (string, error) {
	resp, err := c.doJSON(ctx, routeUploadMedia(), withRawBody(data, contentType))
	if err != nil {
		return "", err
	}
	return types.StringField(resp, "url"), nil
}

// GatewayURL is the websocket endpoint, including the transport query the
// gateway requires.
func (c *Client) GatewayURL() string {
	return c.cfg.GatewayURL + "?jwt=undefined&EIO=3&transport=websocket"
}

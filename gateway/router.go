package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/8r2y5/guilded/errors"
	"github.com/8r2y5/guilded/metric"
	"github.com/8r2y5/guilded/state"
	"github.com/8r2y5/guilded/types"
)

// Gateway event types as they appear on the wire. teamRolesUpdates really
// is lower-camel-cased by the platform.
const (
	EventMessageCreated  = "ChatMessageCreated"
	EventMessageDeleted  = "ChatMessageDeleted"
	EventMessageUpdated  = "ChatMessageUpdated"
	EventPinnedCreated   = "ChatPinnedMessageCreated"
	EventPinnedDeleted   = "ChatPinnedMessageDeleted"
	EventChannelTyping   = "ChatChannelTyping"
	EventTeamXPSet       = "TeamXpSet"
	EventMemberUpdated   = "TeamMemberUpdated"
	EventTeamRolesUpdate = "teamRolesUpdates"
)

// Resolver is the cache-or-fetch facade the router uses to resolve entity
// references while handling events. Implementations consult the object
// cache first and fall back to the REST API; a (nil, err) result is treated
// as a non-fatal resolution failure and degrades the affected field.
type Resolver interface {
	Channel(ctx context.Context, id string) (*types.Channel, error)
	User(ctx context.Context, id string) (*types.User, error)
	Member(ctx context.Context, teamID, userID string) (*types.Member, error)
	Team(ctx context.Context, id string) (*types.Team, error)
}

// routerMetrics holds Prometheus metrics for the event router.
type routerMetrics struct {
	events  *prometheus.CounterVec
	unknown prometheus.Counter
	errors  prometheus.Counter
}

// newRouterMetrics creates and registers router metrics.
func newRouterMetrics(registry *metric.Registry) *routerMetrics {
	if registry == nil {
		return nil
	}

	m := &routerMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "gateway",
			Name:      "events_total",
			Help:      "Gateway events dispatched, by type",
		}, []string{"type"}),
		unknown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "gateway",
			Name:      "events_unknown_total",
			Help:      "Gateway events ignored because their type is unrecognized",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guilded",
			Subsystem: "gateway",
			Name:      "handler_errors_total",
			Help:      "Event handler failures",
		}),
	}

	if err := registry.RegisterCounterVec("gateway", "events", m.events); err != nil {
		return nil
	}
	if err := registry.RegisterCounter("gateway", "events_unknown", m.unknown); err != nil {
		return nil
	}
	if err := registry.RegisterCounter("gateway", "handler_errors", m.errors); err != nil {
		return nil
	}

	return m
}

// Router interprets decoded frames: it answers control frames, establishes
// the session from the handshake, and dispatches events by type against the
// object cache, firing the public hooks.
type Router struct {
	state    *state.State
	resolver Resolver
	hooks    *Hooks
	send     func(string) error
	logger   *slog.Logger
	metrics  *routerMetrics
	registry *metric.Registry

	// sendWait is handed to the heartbeat supervisor.
	sendWait time.Duration

	session   *Session
	heartbeat *Heartbeat
	socket    *Socket // for wiring latency; optional

	handlers map[string]func(context.Context, map[string]any) error
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics exports router and heartbeat metrics through registry.
func WithMetrics(registry *metric.Registry) RouterOption {
	return func(r *Router) {
		r.registry = registry
	}
}

// WithHeartbeatSendWait bounds how long one heartbeat send may take before
// blocked warnings start.
func WithHeartbeatSendWait(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.sendWait = d
		}
	}
}

// WithSocket lets the router publish the started heartbeat supervisor to
// the socket so Socket.Latency works.
func WithSocket(s *Socket) RouterOption {
	return func(r *Router) {
		r.socket = s
	}
}

// NewRouter creates a router that reconciles events into st, resolves
// entity references through resolver, fires hooks, and sends protocol
// replies through send.
func NewRouter(st *state.State, resolver Resolver, hooks *Hooks,
	send func(string) error, opts ...RouterOption) *Router {
	r := &Router{
		state:    st,
		resolver: resolver,
		hooks:    hooks,
		send:     send,
		logger:   slog.Default(),
		sendWait: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = newRouterMetrics(r.registry)

	r.handlers = map[string]func(context.Context, map[string]any) error{
		EventMessageCreated:  r.onMessageCreated,
		EventMessageDeleted:  r.onMessageDeleted,
		EventMessageUpdated:  r.onMessageUpdated,
		EventPinnedCreated:   r.onPinned(true),
		EventPinnedDeleted:   r.onPinned(false),
		EventChannelTyping:   r.onChannelTyping,
		EventTeamXPSet:       r.onTeamXPSet,
		EventMemberUpdated:   r.onMemberUpdated,
		EventTeamRolesUpdate: r.onTeamRolesUpdated,
	}
	return r
}

// Session returns the gateway session, or nil before the handshake.
func (r *Router) Session() *Session {
	return r.session
}

// Heartbeat returns the running supervisor, or nil before the handshake.
func (r *Router) Heartbeat() *Heartbeat {
	return r.heartbeat
}

// Stop stops the heartbeat supervisor, if it was started.
func (r *Router) Stop() {
	if r.heartbeat != nil {
		r.heartbeat.Stop()
	}
}

// HandleRaw runs one raw frame through the hook and dispatch pipeline. A
// decode failure is fatal to the connection: it is reported through the
// Error hook and then returned, ending the receive loop.
func (r *Router) HandleRaw(ctx context.Context, raw string) error {
	r.hooks.fireRawReceive(raw)

	frame, err := Decode(raw)
	if err != nil {
		r.logger.Error("malformed gateway frame", "error", err)
		r.hooks.fireError(err)
		return err
	}

	r.hooks.fireFrameReceived(frame)
	return r.HandleFrame(ctx, frame)
}

// HandleFrame processes one decoded frame. Handler failures are wrapped
// into the library's error kind, reported through the Error hook, and then
// returned: handler bugs fail loudly to the frame-processing caller.
func (r *Router) HandleFrame(ctx context.Context, f Frame) error {
	switch f.Kind {
	case KindControl:
		// Heartbeat acknowledgement; completes the pending round trip.
		if r.heartbeat != nil {
			r.heartbeat.Ack()
		}
		return nil

	case KindHandshake:
		return r.onHandshake(f.Handshake)

	case KindEvent:
		handler, ok := r.handlers[f.Type]
		if !ok {
			// The protocol is forward-compatible: unknown types are not an error.
			r.logger.Debug("ignoring unrecognized gateway event", "type", f.Type)
			if r.metrics != nil {
				r.metrics.unknown.Inc()
			}
			return nil
		}
		if r.metrics != nil {
			r.metrics.events.WithLabelValues(f.Type).Inc()
		}
		if err := handler(ctx, f.Data); err != nil {
			err = errors.NewEventError(f.Type, err)
			if r.metrics != nil {
				r.metrics.errors.Inc()
			}
			r.hooks.fireError(err)
			return err
		}
		return nil
	}

	return nil
}

// onHandshake establishes the session exactly once per connection: it
// stores the session, acknowledges the handshake, and starts the heartbeat
// supervisor synchronously, before any event frame is processed.
func (r *Router) onHandshake(hs *Handshake) error {
	if r.session != nil {
		r.logger.Warn("ignoring duplicate handshake frame", "sid", hs.SID)
		return nil
	}

	r.session = newSession(hs)
	r.logger.Info("gateway session established",
		"sid", r.session.ID,
		"heartbeat_interval", r.session.HeartbeatInterval)

	if err := r.send(HeartbeatPayload); err != nil {
		return errors.Wrap(err, "router", "onHandshake", "send handshake acknowledgement")
	}

	r.heartbeat = NewHeartbeat(r.session.HeartbeatInterval, r.send, r.sendWait, r.logger, r.registry)
	r.heartbeat.Start()
	if r.socket != nil {
		r.socket.setHeartbeat(r.heartbeat)
	}
	return nil
}

// resolveChannel is a best-effort resolution: failures degrade to nil.
func (r *Router) resolveChannel(ctx context.Context, id string) *types.Channel {
	if id == "" {
		return nil
	}
	c, err := r.resolver.Channel(ctx, id)
	if err != nil {
		r.logger.Debug("channel resolution failed", "channel_id", id, "error", err)
		return nil
	}
	return c
}

// resolveAuthor resolves a message author: a team member when the channel
// is team-scoped, a bare user otherwise. Failures degrade to nil.
func (r *Router) resolveAuthor(ctx context.Context, channel *types.Channel, userID string) *types.User {
	if userID == "" {
		return nil
	}
	if channel.IsTeamChannel() {
		m, err := r.resolver.Member(ctx, channel.TeamID, userID)
		if err != nil || m == nil {
			r.logger.Debug("member resolution failed", "user_id", userID, "error", err)
			return nil
		}
		return &m.User
	}
	u, err := r.resolver.User(ctx, userID)
	if err != nil {
		r.logger.Debug("user resolution failed", "user_id", userID, "error", err)
		return nil
	}
	return u
}

// resolveTeam prefers the channel's already-resolved team; otherwise it
// fetches. Failures degrade to nil.
func (r *Router) resolveTeam(ctx context.Context, channel *types.Channel, teamID string) *types.Team {
	if channel != nil && channel.Team != nil {
		return channel.Team
	}
	if teamID == "" {
		return nil
	}
	t, err := r.resolver.Team(ctx, teamID)
	if err != nil {
		r.logger.Debug("team resolution failed", "team_id", teamID, "error", err)
		return nil
	}
	return t
}

// onMessageCreated resolves the message's relations, inserts it into the
// bounded message cache, and fires the message hook.
func (r *Router) onMessageCreated(ctx context.Context, data map[string]any) error {
	channelID := types.MessageField(data, "channelId")
	createdBy := types.MessageField(data, "createdBy")
	teamID := types.MessageField(data, "teamId")

	channel := r.resolveChannel(ctx, channelID)
	author := r.resolveAuthor(ctx, channel, createdBy)
	var team *types.Team
	if teamID != "" {
		team = r.resolveTeam(ctx, channel, teamID)
	}

	msg := types.MessageFromEvent(data, channel, author, team)
	if err := r.state.AddMessage(msg); err != nil {
		return err
	}
	r.hooks.fireMessage(msg)
	return nil
}

// onMessageDeleted always fires the raw deletion hook with the cache lookup
// result; the typed hook fires only for messages that were cached.
func (r *Router) onMessageDeleted(_ context.Context, data map[string]any) error {
	id := types.MessageID(data)
	msg, cached := r.state.Message(id)

	r.hooks.fireRawMessageDelete(RawMessageDelete{Data: data, CachedMessage: msg})

	if !cached {
		return nil
	}
	r.state.RemoveMessage(id)
	r.hooks.fireMessageDelete(msg)
	return nil
}

// onMessageUpdated fires the raw edit hook, then requires the prior cached
// version: without it there is nothing to reconstruct the edit from. The
// prior version's immutable fields are carried onto the new one.
func (r *Router) onMessageUpdated(_ context.Context, data map[string]any) error {
	r.hooks.fireRawMessageEdit(data)

	before, ok := r.state.Message(types.MessageID(data))
	if !ok {
		return nil
	}

	after := types.MessageFromEvent(data, before.Channel, before.Author, before.Team)
	after.CreatedAt = before.CreatedAt
	after.WebhookID = before.WebhookID

	if err := r.state.AddMessage(after); err != nil {
		return err
	}
	r.hooks.fireMessageEdit(before, after)
	return nil
}

// onPinned handles pin creation and deletion. The raw hook fires for every
// event, named by the originating channel's scope; the typed hook fires
// only for cached messages, named by whether the message belongs to a team.
func (r *Router) onPinned(created bool) func(context.Context, map[string]any) error {
	return func(_ context.Context, data map[string]any) error {
		teamChannel := types.StringField(data, "channelType") == types.ChannelTypeTeam
		switch {
		case created && teamChannel:
			r.hooks.fireRawTeamMessagePinned(data)
		case created:
			r.hooks.fireRawDMMessagePinned(data)
		case teamChannel:
			r.hooks.fireRawTeamMessageUnpinned(data)
		default:
			r.hooks.fireRawDMMessageUnpinned(data)
		}

		msg, ok := r.state.Message(types.MessageID(data))
		if !ok {
			return nil
		}

		teamMessage := msg.Team != nil
		switch {
		case created && teamMessage:
			r.hooks.fireTeamMessagePinned(msg)
		case created:
			r.hooks.fireDMMessagePinned(msg)
		case teamMessage:
			r.hooks.fireTeamMessageUnpinned(msg)
		default:
			r.hooks.fireDMMessageUnpinned(msg)
		}
		return nil
	}
}

// onChannelTyping fires the typing hook with the observation time.
func (r *Router) onChannelTyping(_ context.Context, data map[string]any) error {
	r.hooks.fireTyping(
		types.StringField(data, "channelId"),
		types.StringField(data, "userId"),
		time.Now().UTC(),
	)
	return nil
}

// onTeamXPSet sets a member's experience value. The event is a no-op
// without an amount, and requires both the team and the member to already
// be cached.
func (r *Router) onTeamXPSet(_ context.Context, data map[string]any) error {
	amount, ok := types.NumberField(data, "amount")
	if !ok || amount == 0 {
		return nil
	}

	team, ok := r.state.Team(types.StringField(data, "teamId"))
	if !ok {
		return nil
	}

	userIDs := types.StringSlice(data, "userIds")
	if len(userIDs) == 0 {
		return nil
	}
	before, ok := r.state.Member(team.ID, userIDs[0])
	if !ok {
		return nil
	}

	after := before.Clone()
	after.XP = int64(amount)
	if err := r.state.AddMember(after); err != nil {
		return err
	}
	r.hooks.fireMemberUpdate(before, after)
	return nil
}

// onMemberUpdated always fires a raw update built straight from the
// payload. When the member is also cached, the payload's profile fields are
// applied onto a copy and the typed hook fires once the full batch has been
// applied.
func (r *Router) onMemberUpdated(_ context.Context, data map[string]any) error {
	raw := types.MemberFromPayload(data)
	r.hooks.fireRawMemberUpdate(raw)

	teamID := types.StringField(data, "teamId")
	if _, ok := r.state.Team(teamID); !ok {
		return nil
	}
	before, ok := r.state.Member(teamID, types.StringField(data, "userId"))
	if !ok {
		return nil
	}

	after := before.Clone()
	for key, value := range types.MapField(data, "userInfo") {
		if !after.ApplyProfileField(key, value) {
			r.logger.Debug("skipping non-updatable member field", "field", key)
		}
	}
	if err := r.state.AddMember(after); err != nil {
		return err
	}
	r.hooks.fireMemberUpdate(before, after)
	return nil
}

// onTeamRolesUpdated replaces role-id lists for every cached member in the
// batch, then fires one update per member in original batch order. Events
// never interleave with the cache mutation.
func (r *Router) onTeamRolesUpdated(_ context.Context, data map[string]any) error {
	teamID := types.StringField(data, "teamId")
	if _, ok := r.state.Team(teamID); !ok {
		return nil
	}

	updates, _ := data["memberRoleIds"].([]any)

	type memberUpdate struct {
		before, after *types.Member
	}
	applied := make([]memberUpdate, 0, len(updates))

	for _, raw := range updates {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		before, ok := r.state.Member(teamID, types.StringField(entry, "userId"))
		if !ok {
			continue
		}
		after := before.Clone()
		after.RoleIDs = types.Int64Slice(entry, "roleIds")
		if err := r.state.AddMember(after); err != nil {
			return err
		}
		applied = append(applied, memberUpdate{before: before, after: after})
	}

	for _, u := range applied {
		r.hooks.fireMemberUpdate(u.before, u.after)
	}
	return nil
}

package gateway

import (
	"time"

	"github.com/8r2y5/guilded/types"
)

// RawMessageDelete carries a deletion event's payload together with the
// cache lookup result, which may be nil when the message was never cached
// (or already evicted).
type RawMessageDelete struct {
	Data          map[string]any
	CachedMessage *types.Message
}

// Hooks is the public event-dispatch surface. Every field is optional; nil
// hooks are skipped. Raw hooks fire from the event payload regardless of
// cache contents, typed hooks only when the router could resolve the
// entities involved. Hooks run synchronously on the receive path, so a slow
// hook delays frame processing.
//
// The fields are an explicit enumeration rather than a name-indexed
// registry: adding an event is a compile-visible change, and a typo cannot
// silently subscribe to nothing.
type Hooks struct {
	// RawReceive fires for every inbound frame before decoding.
	RawReceive func(raw string)
	// FrameReceived fires for every successfully decoded frame.
	FrameReceived func(frame Frame)

	// Message fires when a chat message is created.
	Message func(m *types.Message)

	// RawMessageDelete always fires for a deletion event; MessageDelete
	// fires only when the message was cached.
	RawMessageDelete func(d RawMessageDelete)
	MessageDelete    func(m *types.Message)

	// RawMessageEdit always fires for an edit event; MessageEdit fires
	// only when the prior version was cached.
	RawMessageEdit func(data map[string]any)
	MessageEdit    func(before, after *types.Message)

	// Pin events, split by whether the channel/message is team-scoped.
	RawTeamMessagePinned   func(data map[string]any)
	RawDMMessagePinned     func(data map[string]any)
	TeamMessagePinned      func(m *types.Message)
	DMMessagePinned        func(m *types.Message)
	RawTeamMessageUnpinned func(data map[string]any)
	RawDMMessageUnpinned   func(data map[string]any)
	TeamMessageUnpinned    func(m *types.Message)
	DMMessageUnpinned      func(m *types.Message)

	// Typing fires when a user starts typing in a channel.
	Typing func(channelID, userID string, at time.Time)

	// RawMemberUpdate fires with a member built straight from the update
	// payload; MemberUpdate fires with cached before/after snapshots.
	RawMemberUpdate func(m *types.Member)
	MemberUpdate    func(before, after *types.Member)

	// Error fires for every handler failure before it is re-raised to the
	// frame-processing caller.
	Error func(err error)
}

func (h *Hooks) fireRawReceive(raw string) {
	if h != nil && h.RawReceive != nil {
		h.RawReceive(raw)
	}
}

func (h *Hooks) fireFrameReceived(f Frame) {
	if h != nil && h.FrameReceived != nil {
		h.FrameReceived(f)
	}
}

func (h *Hooks) fireMessage(m *types.Message) {
	if h != nil && h.Message != nil {
		h.Message(m)
	}
}

func (h *Hooks) fireRawMessageDelete(d RawMessageDelete) {
	if h != nil && h.RawMessageDelete != nil {
		h.RawMessageDelete(d)
	}
}

func (h *Hooks) fireMessageDelete(m *types.Message) {
	if h != nil && h.MessageDelete != nil {
		h.MessageDelete(m)
	}
}

func (h *Hooks) fireRawMessageEdit(data map[string]any) {
	if h != nil && h.RawMessageEdit != nil {
		h.RawMessageEdit(data)
	}
}

func (h *Hooks) fireMessageEdit(before, after *types.Message) {
	if h != nil && h.MessageEdit != nil {
		h.MessageEdit(before, after)
	}
}

func (h *Hooks) fireRawTeamMessagePinned(data map[string]any) {
	if h != nil && h.RawTeamMessagePinned != nil {
		h.RawTeamMessagePinned(data)
	}
}

func (h *Hooks) fireRawDMMessagePinned(data map[string]any) {
	if h != nil && h.RawDMMessagePinned != nil {
		h.RawDMMessagePinned(data)
	}
}

func (h *Hooks) fireRawTeamMessageUnpinned(data map[string]any) {
	if h != nil && h.RawTeamMessageUnpinned != nil {
		h.RawTeamMessageUnpinned(data)
	}
}

func (h *Hooks) fireRawDMMessageUnpinned(data map[string]any) {
	if h != nil && h.RawDMMessageUnpinned != nil {
		h.RawDMMessageUnpinned(data)
	}
}

func (h *Hooks) fireTeamMessagePinned(m *types.Message) {
	if h != nil && h.TeamMessagePinned != nil {
		h.TeamMessagePinned(m)
	}
}

func (h *Hooks) fireDMMessagePinned(m *types.Message) {
	if h != nil && h.DMMessagePinned != nil {
		h.DMMessagePinned(m)
	}
}

func (h *Hooks) fireTeamMessageUnpinned(m *types.Message) {
	if h != nil && h.TeamMessageUnpinned != nil {
		h.TeamMessageUnpinned(m)
	}
}

func (h *Hooks) fireDMMessageUnpinned(m *types.Message) {
	if h != nil && h.DMMessageUnpinned != nil {
		h.DMMessageUnpinned(m)
	}
}

func (h *Hooks) fireTyping(channelID, userID string, at time.Time) {
	if h != nil && h.Typing != nil {
		h.Typing(channelID, userID, at)
	}
}

func (h *Hooks) fireRawMemberUpdate(m *types.Member) {
	if h != nil && h.RawMemberUpdate != nil {
		h.RawMemberUpdate(m)
	}
}

func (h *Hooks) fireMemberUpdate(before, after *types.Member) {
	if h != nil && h.MemberUpdate != nil {
		h.MemberUpdate(before, after)
	}
}

func (h *Hooks) fireError(err error) {
	if h != nil && h.Error != nil {
		h.Error(err)
	}
}

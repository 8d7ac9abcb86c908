package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/8r2y5/guilded/errors"
)

// Wire framing constants. Every inbound frame starts with a run of decimal
// digits (an engine.io packet type code) that is stripped before the JSON
// payload, if any, is parsed.
const (
	// HeartbeatPayload is the outbound keep-alive frame, sent verbatim.
	HeartbeatPayload = "2"

	// eventPrefix precedes an outbound custom event's JSON array.
	eventPrefix = "42"
)

// FrameKind discriminates decoded frames.
type FrameKind int

const (
	// KindControl is a payload-less frame (heartbeat acknowledgement).
	KindControl FrameKind = iota
	// KindHandshake is the first frame on a new connection, carrying the
	// session id and heartbeat interval.
	KindHandshake
	// KindEvent is a typed server-pushed event.
	KindEvent
)

// String returns the string representation of FrameKind
func (k FrameKind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindHandshake:
		return "handshake"
	case KindEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Handshake carries the session-establishing fields of the first frame.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"` // milliseconds
}

// Frame is one decoded message unit. Only the fields matching Kind are set.
type Frame struct {
	Kind      FrameKind
	Type      string         // event type, for KindEvent
	Data      map[string]any // event payload, for KindEvent
	Handshake *Handshake     // for KindHandshake
}

// Decode parses one raw frame. The leading run of decimal digits is
// stripped; if nothing remains the frame is a control frame. A payload with
// a "sid" key is the handshake; anything else is an event whose "type" key
// is popped out of the payload (or, for a [name, payload] pair, taken from
// the pair's first element). A JSON parse failure is fatal to the
// connection and is returned as a *errors.DecodeError.
func Decode(raw string) (Frame, error) {
	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	rest := raw[i:]
	if rest == "" {
		return Frame{Kind: KindControl}, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(rest), &parsed); err != nil {
		return Frame{}, errors.NewDecodeError(rest, err)
	}

	var pairName string
	payload, ok := parsed.(map[string]any)
	if !ok {
		arr, isArr := parsed.([]any)
		if !isArr || len(arr) < 2 {
			return Frame{}, errors.NewDecodeError(rest,
				fmt.Errorf("unexpected payload shape %T", parsed))
		}
		// Custom events arrive as a [name, payload] pair; the payload
		// object is the second element.
		pairName, _ = arr[0].(string)
		if payload, ok = arr[1].(map[string]any); !ok {
			return Frame{}, errors.NewDecodeError(rest,
				fmt.Errorf("event pair payload is %T, not an object", arr[1]))
		}
	}

	if sid, ok := payload["sid"].(string); ok && sid != "" {
		hs := &Handshake{SID: sid}
		if ups, ok := payload["upgrades"].([]any); ok {
			for _, u := range ups {
				if s, ok := u.(string); ok {
					hs.Upgrades = append(hs.Upgrades, s)
				}
			}
		}
		if interval, ok := payload["pingInterval"].(float64); ok {
			hs.PingInterval = int64(interval)
		}
		return Frame{Kind: KindHandshake, Handshake: hs}, nil
	}

	eventType, _ := payload["type"].(string)
	if eventType != "" {
		data := make(map[string]any, len(payload)-1)
		for k, v := range payload {
			if k == "type" {
				continue
			}
			data[k] = v
		}
		return Frame{Kind: KindEvent, Type: eventType, Data: data}, nil
	}

	return Frame{Kind: KindEvent, Type: pairName, Data: payload}, nil
}

// Encode produces the outbound custom-event framing: the event prefix
// followed by a [eventName, payload] pair serialized as JSON.
func Encode(eventName string, payload any) (string, error) {
	body, err := json.Marshal([]any{eventName, payload})
	if err != nil {
		return "", errors.WrapInvalid(err, "gateway", "Encode", "marshal event payload")
	}
	return eventPrefix + string(body), nil
}

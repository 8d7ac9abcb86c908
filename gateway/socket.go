package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/8r2y5/guilded/errors"
)

// SocketState is the transport's lifecycle state. Transitions are linear:
// Connecting → Open → Closing → Closed, with no re-entry to Open. A fresh
// Socket is required for a new connection; reconnection policy lives with
// the caller.
type SocketState int32

const (
	// StateConnecting is the initial state, before Connect succeeds.
	StateConnecting SocketState = iota
	// StateOpen means the connection is established and usable.
	StateOpen
	// StateClosing means Close has begun.
	StateClosing
	// StateClosed is terminal.
	StateClosed
)

// String returns the string representation of SocketState
func (s SocketState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Socket owns the raw duplex websocket connection. Two execution contexts
// write through it, the receive path and the heartbeat supervisor, so Send
// serializes writers behind a mutex.
type Socket struct {
	dialer *websocket.Dialer
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex
	state   atomic.Int32

	// heartbeat is set by the router once the handshake arrives; it is
	// consulted for Latency only.
	heartbeat atomic.Pointer[Heartbeat]
}

// NewSocket creates a disconnected socket.
func NewSocket(logger *slog.Logger) *Socket {
	if logger == nil {
		logger = slog.Default()
	}
	return &Socket{
		dialer: &websocket.Dialer{
			HandshakeTimeout: 45 * time.Second,
		},
		logger: logger,
	}
}

// State returns the current lifecycle state.
func (s *Socket) State() SocketState {
	return SocketState(s.state.Load())
}

// Connect dials the gateway endpoint, presenting the session cookie. A
// handshake failure is returned as-is; this component never retries.
func (s *Socket) Connect(ctx context.Context, endpoint, cookie string) error {
	if s.State() != StateConnecting {
		return errors.ErrAlreadyConnected
	}

	header := http.Header{}
	if cookie != "" {
		header.Set("Cookie", cookie)
	}

	s.logger.Info("connecting to gateway", "endpoint", endpoint)
	conn, resp, err := s.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return errors.WrapTransient(err, "socket", "Connect",
				"websocket handshake (status "+resp.Status+")")
		}
		return errors.WrapTransient(err, "socket", "Connect", "websocket dial")
	}

	s.conn = conn
	s.state.Store(int32(StateOpen))
	s.logger.Info("gateway connected")
	return nil
}

// Send writes one text frame. Concurrent senders (receive path and
// heartbeat supervisor) are serialized.
func (s *Socket) Send(text string) error {
	if s.State() != StateOpen {
		return errors.ErrConnectionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return errors.Wrap(err, "socket", "Send", "write text frame")
	}
	return nil
}

// ReceiveOne blocks until one text message arrives or a terminal condition
// does. In Closing or Closed state, or once the peer has closed the
// connection, it returns errors.ErrConnectionClosed instead of blocking
// forever.
func (s *Socket) ReceiveOne() (string, error) {
	if st := s.State(); st == StateClosing || st == StateClosed {
		return "", errors.ErrConnectionClosed
	}
	if s.conn == nil {
		return "", errors.ErrNotConnected
	}

	_, data, err := s.conn.ReadMessage()
	if err != nil {
		if st := s.State(); st == StateClosing || st == StateClosed {
			return "", errors.ErrConnectionClosed
		}
		if websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseAbnormalClosure,
			websocket.CloseNoStatusReceived) {
			s.state.Store(int32(StateClosed))
			return "", errors.ErrConnectionClosed
		}
		return "", errors.WrapTransient(err, "socket", "ReceiveOne", "read message")
	}
	return string(data), nil
}

// Close transitions to Closing, sends a close control frame best-effort,
// and tears the connection down. It unblocks a pending ReceiveOne.
func (s *Socket) Close(code int) error {
	if !s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
		// Never opened, or already closing/closed.
		s.state.Store(int32(StateClosed))
		if s.conn != nil {
			_ = s.conn.Close()
		}
		return nil
	}

	s.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), deadline)
	s.writeMu.Unlock()

	err := s.conn.Close()
	s.state.Store(int32(StateClosed))
	s.logger.Info("gateway connection closed", "code", code)
	if err != nil {
		return errors.Wrap(err, "socket", "Close", "close connection")
	}
	return nil
}

// setHeartbeat is called by the router once the supervisor starts.
func (s *Socket) setHeartbeat(h *Heartbeat) {
	s.heartbeat.Store(h)
}

// Latency returns the most recent heartbeat round-trip duration, or
// LatencyUnmeasured before the handshake (or before the first round trip).
func (s *Socket) Latency() time.Duration {
	if h := s.heartbeat.Load(); h != nil {
		return h.Latency()
	}
	return LatencyUnmeasured
}

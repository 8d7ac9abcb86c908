// Package client is the top-level facade: it wires the REST client, the
// gateway socket, the event router, and the object cache into one
// connected session and exposes the public hook surface.
package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/8r2y5/guilded/config"
	"github.com/8r2y5/guilded/errors"
	"github.com/8r2y5/guilded/gateway"
	"github.com/8r2y5/guilded/metric"
	"github.com/8r2y5/guilded/rest"
	"github.com/8r2y5/guilded/state"
	"github.com/8r2y5/guilded/types"
)

// Client is one authenticated session against the platform: REST access,
// a single gateway connection, and the object cache fed by both.
type Client struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *metric.Registry

	rest   *rest.Client
	state  *state.State
	hooks  *gateway.Hooks
	socket *gateway.Socket
	router *gateway.Router
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics exports all component metrics through registry.
func WithMetrics(registry *metric.Registry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// New creates a client from the given configuration. The returned client
// is not yet authenticated or connected; call Login then Connect.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "client", "New", "validate configuration")
	}

	c := &Client{
		cfg:    cfg,
		logger: slog.Default(),
		hooks:  &gateway.Hooks{},
	}
	for _, opt := range opts {
		opt(c)
	}

	var stateOpts []state.Option
	restOpts := []rest.Option{rest.WithLogger(c.logger)}
	if c.registry != nil {
		stateOpts = append(stateOpts, state.WithMetrics(c.registry))
		restOpts = append(restOpts, rest.WithMetrics(c.registry))
	}

	st, err := state.New(cfg.MaxMessages, stateOpts...)
	if err != nil {
		return nil, err
	}
	c.state = st

	rc, err := rest.New(cfg, restOpts...)
	if err != nil {
		return nil, err
	}
	c.rest = rc

	return c, nil
}

// Hooks exposes the event callback surface. Assign callbacks before
// Connect; the router reads them without locking.
func (c *Client) Hooks() *gateway.Hooks {
	return c.hooks
}

// REST exposes the underlying REST client for direct API calls.
func (c *Client) REST() *rest.Client {
	return c.rest
}

// State exposes the object cache.
func (c *Client) State() *state.State {
	return c.state
}

// Login authenticates against the REST API and captures the session
// cookie the gateway connection requires.
func (c *Client) Login(ctx context.Context, email, password string) (*types.User, error) {
	user, err := c.rest.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := c.state.AddUser(user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Connect dials the gateway and processes frames until the handshake has
// established the session, leaving the heartbeat supervisor running. It
// requires a prior successful Login.
func (c *Client) Connect(ctx context.Context) error {
	if c.rest.Cookie() == "" {
		return errors.ErrNoCookie
	}
	if c.socket != nil && c.socket.State() == gateway.StateOpen {
		return errors.ErrAlreadyConnected
	}

	socket := gateway.NewSocket(c.logger)
	router := gateway.NewRouter(c.state, c, c.hooks, socket.Send,
		gateway.WithLogger(c.logger),
		gateway.WithMetrics(c.registry),
		gateway.WithHeartbeatSendWait(c.cfg.HeartbeatSendWait),
		gateway.WithSocket(socket))

	if err := socket.Connect(ctx, c.rest.GatewayURL(), c.rest.Cookie()); err != nil {
		return err
	}

	// The protocol expects a heartbeat straight after dialing, before the
	// handshake arrives.
	if err := socket.Send(gateway.HeartbeatPayload); err != nil {
		_ = socket.Close(1002)
		return err
	}

	// The handshake is the first meaningful frame; process until the
	// session exists so callers observe a fully established connection.
	for router.Session() == nil {
		raw, err := socket.ReceiveOne()
		if err != nil {
			_ = socket.Close(1002)
			return err
		}
		if err := router.HandleRaw(ctx, raw); err != nil {
			_ = socket.Close(1002)
			return err
		}
	}

	c.socket = socket
	c.router = router
	c.logger.Info("gateway connected", "sid", router.Session().ID)
	return nil
}

// Listen receives and dispatches frames until the connection closes or a
// handler fails. Handler failures have already been reported through the
// Error hook when Listen returns them.
func (c *Client) Listen(ctx context.Context) error {
	if c.socket == nil {
		return errors.ErrNotConnected
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := c.socket.ReceiveOne()
		if err != nil {
			c.router.Stop()
			if errors.IsConnectionClosed(err) {
				c.logger.Info("gateway connection closed")
			}
			return err
		}

		if err := c.router.HandleRaw(ctx, raw); err != nil {
			var eventErr *errors.EventError
			if !errors.As(err, &eventErr) {
				// Decode failures end the connection; handler failures
				// leave it usable for the caller to decide.
				c.router.Stop()
			}
			return err
		}
	}
}

// Send encodes and transmits a custom event frame.
func (c *Client) Send(eventName string, payload any) error {
	if c.socket == nil {
		return errors.ErrNotConnected
	}
	text, err := gateway.Encode(eventName, payload)
	if err != nil {
		return err
	}
	return c.socket.Send(text)
}

// Close stops the heartbeat supervisor and closes the gateway connection
// with the given close code.
func (c *Client) Close(code int) error {
	if c.socket == nil {
		return errors.ErrNotConnected
	}
	c.router.Stop()
	return c.socket.Close(code)
}

// Latency is the most recent heartbeat round-trip time, or
// gateway.LatencyUnmeasured before the first acknowledged heartbeat.
func (c *Client) Latency() time.Duration {
	if c.socket == nil {
		return gateway.LatencyUnmeasured
	}
	return c.socket.Latency()
}

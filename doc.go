// Package guilded is a Go client library for the Guilded chat platform.
//
// The library is organized around a small set of cooperating packages:
//
//	┌─────────────────────────────────────┐
//	│            client                   │  Facade: login, connect,
//	│   (receive loop, resolvers)         │  cache-or-fetch resolution
//	└─────────────────────────────────────┘
//	      ↓ drives                ↓ calls
//	┌───────────────────┐  ┌───────────────────┐
//	│      gateway      │  │       rest        │  Framed websocket protocol
//	│ (frames, socket,  │  │ (routes, request  │  and rate-limit-aware HTTP
//	│  heartbeat,       │  │  executor, REST   │  requests
//	│  event router)    │  │  operations)      │
//	└───────────────────┘  └───────────────────┘
//	      ↓ reconciles into       ↓ writes into
//	┌─────────────────────────────────────┐
//	│             state                   │  Per-kind object caches over
//	│        (object cache)               │  pkg/cache stores
//	└─────────────────────────────────────┘
//
// The gateway package owns the long-lived websocket connection: it decodes
// the digit-prefixed frame encoding, keeps the connection alive with an
// independently scheduled heartbeat, and routes decoded events through an
// event router that reconciles them against the in-memory object cache and
// fires the public hooks in gateway.Hooks.
//
// Reconnection policy is deliberately not part of this library. The receive
// loop in client.Listen returns when the connection ends (or a frame fails
// to decode), and the caller decides whether and when to reconnect.
//
// Observability follows the rest of our tooling: structured logging via
// log/slog and optional Prometheus metrics through a metric.Registry.
package guilded

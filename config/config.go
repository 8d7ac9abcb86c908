// Package config defines the client configuration: endpoint bases, cache
// bounds, heartbeat supervision and rate-limit retry policy. All fields
// have working defaults; zero values are filled in by Validate.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Fixed platform origins. Overridable in Config for tests and proxies.
const (
	DefaultAPIBase    = "https://www.guilded.gg/api"
	DefaultMediaBase  = "https://media.guilded.gg"
	DefaultCDNBase    = "https://s3-us-west-2.amazonaws.com/www.guilded.gg"
	DefaultGatewayURL = "wss://api.guilded.gg/socket.io/"
)

const (
	// DefaultMaxMessages bounds the message cache.
	DefaultMaxMessages = 1000

	// DefaultHeartbeatSendWait is how long the heartbeat supervisor waits
	// for one send to complete before logging a blocked warning.
	DefaultHeartbeatSendWait = 10 * time.Second

	// DefaultRateLimitFallback is the wait before resubmitting a
	// rate-limited request whose response carried no Retry-After hint.
	DefaultRateLimitFallback = 5 * time.Second

	// DefaultHTTPTimeout bounds a single HTTP attempt (not the whole
	// rate-limit retry loop).
	DefaultHTTPTimeout = 30 * time.Second
)

// RateLimitConfig controls the 429 resubmission loop.
type RateLimitConfig struct {
	// MaxRetries caps rate-limit resubmissions. Zero means unlimited,
	// mirroring the platform contract of retrying for as long as the
	// server keeps asking.
	MaxRetries int `json:"max_retries"`

	// FallbackDelay is used when a 429 response has no Retry-After header.
	FallbackDelay time.Duration `json:"fallback_delay"`
}

// Config represents the complete client configuration
type Config struct {
	APIBase    string `json:"api_base"`
	MediaBase  string `json:"media_base"`
	CDNBase    string `json:"cdn_base"`
	GatewayURL string `json:"gateway_url"`

	// MaxMessages bounds the message cache; other entity caches are
	// unbounded.
	MaxMessages int `json:"max_messages"`

	HeartbeatSendWait time.Duration   `json:"heartbeat_send_wait"`
	HTTPTimeout       time.Duration   `json:"http_timeout"`
	RateLimit         RateLimitConfig `json:"rate_limit"`
}

// Default returns a configuration with all defaults applied.
func Default() Config {
	return Config{
		APIBase:           DefaultAPIBase,
		MediaBase:         DefaultMediaBase,
		CDNBase:           DefaultCDNBase,
		GatewayURL:        DefaultGatewayURL,
		MaxMessages:       DefaultMaxMessages,
		HeartbeatSendWait: DefaultHeartbeatSendWait,
		HTTPTimeout:       DefaultHTTPTimeout,
		RateLimit: RateLimitConfig{
			MaxRetries:    0,
			FallbackDelay: DefaultRateLimitFallback,
		},
	}
}

// Validate fills zero values with defaults and rejects configurations that
// cannot work.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.MediaBase == "" {
		c.MediaBase = DefaultMediaBase
	}
	if c.CDNBase == "" {
		c.CDNBase = DefaultCDNBase
	}
	if c.GatewayURL == "" {
		c.GatewayURL = DefaultGatewayURL
	}
	if c.MaxMessages == 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if c.HeartbeatSendWait == 0 {
		c.HeartbeatSendWait = DefaultHeartbeatSendWait
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.RateLimit.FallbackDelay == 0 {
		c.RateLimit.FallbackDelay = DefaultRateLimitFallback
	}

	if c.MaxMessages < 0 {
		return fmt.Errorf("config: max_messages cannot be negative")
	}
	if c.RateLimit.MaxRetries < 0 {
		return fmt.Errorf("config: rate_limit.max_retries cannot be negative")
	}
	for name, raw := range map[string]string{
		"api_base":    c.APIBase,
		"media_base":  c.MediaBase,
		"cdn_base":    c.CDNBase,
		"gateway_url": c.GatewayURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config: %s is not an absolute URL: %q", name, raw)
		}
	}

	return nil
}

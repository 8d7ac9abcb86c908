package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, DefaultGatewayURL, cfg.GatewayURL)
	assert.Equal(t, DefaultMaxMessages, cfg.MaxMessages)
	assert.Equal(t, DefaultHeartbeatSendWait, cfg.HeartbeatSendWait)
	assert.Equal(t, DefaultRateLimitFallback, cfg.RateLimit.FallbackDelay)
	// Zero means rate-limit resubmission has no ceiling.
	assert.Equal(t, 0, cfg.RateLimit.MaxRetries)
}

func TestValidateFillsZeroValues(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, DefaultMediaBase, cfg.MediaBase)
	assert.Equal(t, DefaultCDNBase, cfg.CDNBase)
	assert.Equal(t, DefaultMaxMessages, cfg.MaxMessages)
	assert.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		APIBase:     "https://example.test/api",
		MaxMessages: 50,
		HTTPTimeout: 5 * time.Second,
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://example.test/api", cfg.APIBase)
	assert.Equal(t, 50, cfg.MaxMessages)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "negative max messages", cfg: Config{MaxMessages: -1}},
		{name: "negative max retries", cfg: Config{RateLimit: RateLimitConfig{MaxRetries: -1}}},
		{name: "relative api base", cfg: Config{APIBase: "/api"}},
		{name: "schemeless gateway url", cfg: Config{GatewayURL: "api.guilded.gg/socket.io/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.MaxMessages = 42

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, cfg, decoded)
}

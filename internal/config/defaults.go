package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout           = 30 * time.Second
	DefaultMaxRetries           = 3
	DefaultTokenParam           = "token"
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultPingInterval         = 15 * time.Second
	DefaultReadTimeout          = 30 * time.Second
	DefaultStaleTime            = 30 * time.Second
	DefaultRefreshInterval      = 1 * time.Minute
	DefaultRefreshConcurrency   = 4
	DefaultRefreshTimeout       = 10 * time.Second
	DefaultRecentLimit          = 50
)

func (c *ClientConfig) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Realtime defaults
	if c.Realtime.TokenParam == "" {
		c.Realtime.TokenParam = DefaultTokenParam
	}
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.ReconnectMaxDelay == 0 {
		c.Realtime.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Realtime.MaxReconnectAttempts == 0 {
		c.Realtime.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Realtime.PingInterval == 0 {
		c.Realtime.PingInterval = DefaultPingInterval
	}
	if c.Realtime.ReadTimeout == 0 {
		c.Realtime.ReadTimeout = DefaultReadTimeout
	}

	// Cache defaults
	if c.Cache.StaleTime == 0 {
		c.Cache.StaleTime = DefaultStaleTime
	}
	if c.Cache.RefreshInterval == 0 {
		c.Cache.RefreshInterval = DefaultRefreshInterval
	}
	if c.Cache.RefreshConcurrency == 0 {
		c.Cache.RefreshConcurrency = DefaultRefreshConcurrency
	}
	if c.Cache.RefreshTimeout == 0 {
		c.Cache.RefreshTimeout = DefaultRefreshTimeout
	}

	// Notifications defaults
	if c.Notifications.RecentLimit == 0 {
		c.Notifications.RecentLimit = DefaultRecentLimit
	}
}

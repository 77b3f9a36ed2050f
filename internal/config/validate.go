package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}

	if c.Realtime.URL == "" {
		return errors.New("realtime.url is required")
	}
	if !strings.HasPrefix(c.Realtime.URL, "ws://") && !strings.HasPrefix(c.Realtime.URL, "wss://") {
		return fmt.Errorf("realtime.url must be a ws:// or wss:// URL, got %q", c.Realtime.URL)
	}
	if c.Realtime.MaxReconnectAttempts < 1 {
		return errors.New("realtime.max_reconnect_attempts must be >= 1")
	}
	if c.Realtime.ReconnectBaseDelay > c.Realtime.ReconnectMaxDelay {
		return fmt.Errorf("realtime.reconnect_base_delay (%v) cannot exceed reconnect_max_delay (%v)",
			c.Realtime.ReconnectBaseDelay, c.Realtime.ReconnectMaxDelay)
	}

	if c.Cache.RefreshConcurrency < 1 {
		return errors.New("cache.refresh_concurrency must be >= 1")
	}

	if c.Storage.Dir == "" {
		return errors.New("storage.dir is required")
	}

	if c.Notifications.RecentLimit < 1 {
		return errors.New("notifications.recent_limit must be >= 1")
	}

	return nil
}

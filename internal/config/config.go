package config

import "time"

// ClientConfig is the root configuration for a sync client instance.
type ClientConfig struct {
	API           APIConfig           `yaml:"api"`
	Realtime      RealtimeConfig      `yaml:"realtime"`
	Cache         CacheConfig         `yaml:"cache"`
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// APIConfig holds CRM REST API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// RealtimeConfig holds WebSocket connection settings.
type RealtimeConfig struct {
	URL                  string        `yaml:"url"`
	TokenParam           string        `yaml:"token_param"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	ReadTimeout          time.Duration `yaml:"read_timeout"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	StaleTime          time.Duration `yaml:"stale_time"`
	RefreshInterval    time.Duration `yaml:"refresh_interval"`
	RefreshConcurrency int           `yaml:"refresh_concurrency"`
	RefreshTimeout     time.Duration `yaml:"refresh_timeout"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// NotificationsConfig holds system notification bridge settings.
type NotificationsConfig struct {
	Enabled     bool `yaml:"enabled"`
	RecentLimit int  `yaml:"recent_limit"`
}

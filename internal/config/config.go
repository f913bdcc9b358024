package config

import "time"

// Config is the root configuration for a relay server instance.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Backend BackendConfig `yaml:"backend"`
	Buffer  BufferConfig  `yaml:"buffer"`
	Redis   RedisConfig   `yaml:"redis"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds the WebSocket listener settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"` // empty = any origin
}

// AuthConfig holds session token verification settings.
type AuthConfig struct {
	SigningSecret string `yaml:"signing_secret"` // empty = all sessions anonymous
}

// BackendConfig holds the document backend connection.
type BackendConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// BufferConfig holds buffered broadcast pipeline settings.
type BufferConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
	MaxBufferSize int           `yaml:"max_buffer_size"`
	MaxChunkSize  int           `yaml:"max_chunk_size"`
}

// RedisConfig holds the durable queue store connection.
type RedisConfig struct {
	Enabled          bool          `yaml:"enabled"`
	URL              string        `yaml:"url"`
	Timeout          time.Duration `yaml:"timeout"`           // connect probe and per-operation bound
	FailureThreshold int           `yaml:"failure_threshold"` // consecutive failures before memory downgrade
}

// MetricsConfig holds Prometheus metrics and health endpoint settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr             = ":8080"
	DefaultBackendTimeout   = 10 * time.Second
	DefaultFlushInterval    = 500 * time.Millisecond
	DefaultMaxBufferSize    = 1000
	DefaultMaxChunkSize     = 100
	DefaultRedisURL         = "redis://localhost:6379/0"
	DefaultRedisTimeout     = 5 * time.Second
	DefaultFailureThreshold = 3
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}

	// Backend defaults
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultBackendTimeout
	}

	// Buffer defaults
	if c.Buffer.FlushInterval == 0 {
		c.Buffer.FlushInterval = DefaultFlushInterval
	}
	if c.Buffer.MaxBufferSize == 0 {
		c.Buffer.MaxBufferSize = DefaultMaxBufferSize
	}
	if c.Buffer.MaxChunkSize == 0 {
		c.Buffer.MaxChunkSize = DefaultMaxChunkSize
	}

	// Redis defaults
	if c.Redis.URL == "" {
		c.Redis.URL = DefaultRedisURL
	}
	if c.Redis.Timeout == 0 {
		c.Redis.Timeout = DefaultRedisTimeout
	}
	if c.Redis.FailureThreshold == 0 {
		c.Redis.FailureThreshold = DefaultFailureThreshold
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

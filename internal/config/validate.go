package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be > 0")
	}

	if c.Buffer.FlushInterval <= 0 {
		return errors.New("buffer.flush_interval must be > 0")
	}
	if c.Buffer.MaxBufferSize < 1 {
		return errors.New("buffer.max_buffer_size must be >= 1")
	}
	if c.Buffer.MaxChunkSize < 1 {
		return errors.New("buffer.max_chunk_size must be >= 1")
	}

	if c.Redis.Enabled {
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when redis is enabled")
		}
		if c.Redis.Timeout <= 0 {
			return errors.New("redis.timeout must be > 0")
		}
		if c.Redis.FailureThreshold < 1 {
			return errors.New("redis.failure_threshold must be >= 1")
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

package config

import "github.com/mejarrett/netmap/internal/confbuf"

// Channel config accessor methods with default fallbacks. These
// provide safe access to channel sizing when values are not set or
// invalid.

// GetSegmentSize returns the segment capacity with a default fallback.
func (c *Config) GetSegmentSize() int {
	if c.Channel.SegmentSize <= 0 {
		return confbuf.DefaultSegmentSize
	}
	return c.Channel.SegmentSize
}

// GetMaxSegments returns the per-buffer segment cap with a default fallback.
func (c *Config) GetMaxSegments() int {
	if c.Channel.MaxSegments <= 0 {
		return confbuf.DefaultMaxSegments
	}
	return c.Channel.MaxSegments
}

// GetMaxRequestBytes returns the per-session request cap with a default fallback.
func (c *Config) GetMaxRequestBytes() int {
	if c.Channel.MaxRequestBytes <= 0 {
		return 1 << 20 // Default: 1 MiB
	}
	return c.Channel.MaxRequestBytes
}

// GetMaxSessions returns the concurrent session cap with a default fallback.
func (c *Config) GetMaxSessions() int {
	if c.Channel.MaxSessions <= 0 {
		return 16 // Default: 16 sessions
	}
	return c.Channel.MaxSessions
}

// GetTransform returns the configured transform name with a default fallback.
func (c *Config) GetTransform() string {
	if c.Channel.Transform == "" {
		return "compact"
	}
	return c.Channel.Transform
}

package authcore

import (
	"errors"
	"time"
)

// Config is the full engine configuration tree. Instances are configured
// during initialization and treated as immutable afterwards; the builder
// clones them on Build.
type Config struct {
	JWT      JWTConfig
	Refresh  RefreshConfig
	Rotation RotationConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// JWTConfig carries the access-credential signing parameters.
type JWTConfig struct {
	AccessTTL  time.Duration
	SigningKey []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// RefreshConfig carries the refresh-credential lifetime.
type RefreshConfig struct {
	RefreshTTL time.Duration
}

// RotationConfig tunes rotation policy.
type RotationConfig struct {
	// RevokeChainOnReuse revokes every descendant of a replayed token,
	// cutting off a stolen chain at the cost of logging out the legitimate
	// holder. Off by default.
	RevokeChainOnReuse bool
}

// ThrottleConfig tunes the optional Redis-backed issue/refresh throttles.
// Ignored unless the builder receives a Redis client.
type ThrottleConfig struct {
	Enabled            bool
	EnableIPThrottle   bool
	MaxIssueAttempts   int
	IssueWindow        time.Duration
	MaxRefreshAttempts int
	RefreshWindow      time.Duration
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL: 60 * time.Minute,
		},
		Refresh: RefreshConfig{
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Throttle: ThrottleConfig{
			MaxIssueAttempts:   30,
			IssueWindow:        time.Minute,
			MaxRefreshAttempts: 10,
			RefreshWindow:      time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	if len(c.JWT.SigningKey) == 0 {
		return errors.New("JWT.SigningKey is required")
	}
	if c.Refresh.RefreshTTL <= 0 {
		return errors.New("Refresh.RefreshTTL must be positive")
	}
	if c.Refresh.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("Refresh.RefreshTTL must not be shorter than JWT.AccessTTL")
	}
	if c.Throttle.Enabled {
		if c.Throttle.MaxIssueAttempts <= 0 || c.Throttle.IssueWindow <= 0 {
			return errors.New("Throttle issue settings must be positive when enabled")
		}
		if c.Throttle.MaxRefreshAttempts <= 0 || c.Throttle.RefreshWindow <= 0 {
			return errors.New("Throttle refresh settings must be positive when enabled")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit.BufferSize must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.SigningKey = cloneBytes(cfg.JWT.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

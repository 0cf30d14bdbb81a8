package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/rentora/authcore/internal/rate"
	"github.com/rentora/authcore/jwt"
	"github.com/rentora/authcore/refresh"
)

// Builder assembles an Engine. A builder is single-use: Build consumes it.
type Builder struct {
	config Config
	store  refresh.Store
	redis  redis.UniversalClient

	directory UserDirectory
	roles     RoleSource
	auditSink AuditSink
	warn      func(format string, args ...any)

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the refresh record store. Required.
func (b *Builder) WithStore(store refresh.Store) *Builder {
	b.store = store
	return b
}

// WithRedis supplies the client backing the issue/refresh throttles.
// Without one, Throttle settings are ignored.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory wires the account lookup used by IssueForUser.
func (b *Builder) WithUserDirectory(directory UserDirectory) *Builder {
	b.directory = directory
	return b
}

// WithRoleSource wires the role lookup used by IssueForUser.
func (b *Builder) WithRoleSource(roles RoleSource) *Builder {
	b.roles = roles
	return b
}

// WithAuditSink sets the destination for audit events. Defaults to a
// NoOpSink when auditing is enabled without one.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithWarnFunc sets an optional hook for non-fatal operational warnings,
// such as a throttle backend being unreachable.
func (b *Builder) WithWarnFunc(warn func(format string, args ...any)) *Builder {
	b.warn = warn
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.store == nil {
		return nil, errors.New("refresh store required")
	}
	if cfg.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("throttling requires a redis client")
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		SigningKey: cloneBytes(cfg.JWT.SigningKey),
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		jwtManager: jm,
		store:      b.store,
		directory:  b.directory,
		roles:      b.roles,
		warn:       b.warn,
	}

	if b.redis != nil && cfg.Throttle.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle:   cfg.Throttle.EnableIPThrottle,
			MaxIssueAttempts:   cfg.Throttle.MaxIssueAttempts,
			IssueWindow:        cfg.Throttle.IssueWindow,
			MaxRefreshAttempts: cfg.Throttle.MaxRefreshAttempts,
			RefreshWindow:      cfg.Throttle.RefreshWindow,
		})
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

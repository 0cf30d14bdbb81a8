package authcore

import (
	"github.com/rentora/authcore/internal/rate"
	"github.com/rentora/authcore/jwt"
	"github.com/rentora/authcore/refresh"
)

// Engine is the credential session core: it issues, rotates, revokes, and
// validates token pairs against a refresh store. Configure it through the
// Builder; all methods are safe for concurrent use once built.
type Engine struct {
	config     Config
	jwtManager *jwt.Manager
	store      refresh.Store
	limiter    *rate.Limiter
	audit      *auditDispatcher
	metrics    *Metrics
	directory  UserDirectory
	roles      RoleSource
	warn       func(format string, args ...any)
}

// Close shuts down the audit dispatcher, draining buffered events. The
// engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warnf(format string, args ...any) {
	if e == nil || e.warn == nil {
		return
	}
	e.warn(format, args...)
}

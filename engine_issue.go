package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentora/authcore/internal/rate"
	"github.com/rentora/authcore/internal/token"
	"github.com/rentora/authcore/refresh"
)

// Issue mints a fresh token pair for the identity: a signed access
// credential and an opaque refresh value backed by a new store record. The
// two are linked through the credential's jti. A login audit event is
// emitted best-effort; a store failure surfaces and nothing is returned.
func (e *Engine) Issue(ctx context.Context, identity Identity) (*TokenPair, error) {
	if e == nil || e.jwtManager == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if identity.UserID == "" {
		return nil, errors.New("user id required")
	}

	ip := clientIPFromContext(ctx)

	if err := e.checkIssueThrottle(ctx, identity.UserID, ip); err != nil {
		return nil, err
	}

	jti := uuid.NewString()

	access, accessExpiresAt, err := e.jwtManager.CreateAccess(
		identity.UserID, identity.Email, identity.Name, identity.IsAdmin, identity.Roles, jti,
	)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		return nil, fmt.Errorf("sign access credential: %w", err)
	}

	opaque, err := token.NewOpaque()
	if err != nil {
		e.metricInc(MetricIssueFailure)
		return nil, fmt.Errorf("generate refresh value: %w", err)
	}

	now := time.Now()
	refreshExpiresAt := now.Add(e.config.Refresh.RefreshTTL)
	rec := &refresh.Record{
		Value:       opaque,
		JTI:         jti,
		UserID:      identity.UserID,
		IssuedAt:    now,
		ExpiresAt:   refreshExpiresAt,
		CreatedByIP: ip,
	}
	if err := e.store.Create(ctx, rec); err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.UserID, jti, err, nil)
		return nil, fmt.Errorf("persist refresh record: %w", err)
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEventLogin, true, identity.UserID, jti, nil, nil)

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     opaque,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// IssueForUser resolves the account through the configured directory and
// role source, then delegates to Issue.
func (e *Engine) IssueForUser(ctx context.Context, userID string) (*TokenPair, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.directory.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}

	var roles []string
	if e.roles != nil {
		roles, err = e.roles.RolesForUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("resolve roles: %w", err)
		}
	}

	return e.Issue(ctx, Identity{
		UserID:  record.UserID,
		Email:   record.Email,
		Name:    record.DisplayName,
		IsAdmin: record.IsAdmin,
		Roles:   roles,
	})
}

func (e *Engine) checkIssueThrottle(ctx context.Context, userID, ip string) error {
	if e.limiter == nil || !e.config.Throttle.Enabled {
		return nil
	}

	err := e.limiter.CheckIssue(ctx, userID, ip)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricIssueRateLimited)
		e.emitRateLimit(ctx, "issue", userID)
		return ErrIssueRateLimited
	default:
		// Throttling is an extra guard; a dead Redis must not block logins.
		e.warnf("issue throttle unavailable: %v", err)
		return nil
	}
}

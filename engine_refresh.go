package authcore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentora/authcore/internal/rate"
	"github.com/rentora/authcore/internal/token"
	"github.com/rentora/authcore/jwt"
	"github.com/rentora/authcore/refresh"
)

// Refresh rotates a token pair. The expired access credential proves which
// jti the refresh value must be paired with; the store's conditional update
// guarantees that of any number of concurrent calls presenting the same
// value, exactly one receives a successor pair. Every loser, and every
// presentation of an already-rotated value, gets ErrRevokedToken.
func (e *Engine) Refresh(ctx context.Context, accessToken, refreshValue string) (*TokenPair, error) {
	if e == nil || e.jwtManager == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if err := token.CheckOpaque(refreshValue); err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, ErrUnknownToken
	}

	claims, err := e.jwtManager.ParseAccessExpired(accessToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrInvalidCredential, nil)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if err := e.checkRefreshThrottle(ctx, refreshValue, claims.Subject); err != nil {
		return nil, err
	}

	rec, err := e.store.Find(ctx, refreshValue, claims.Subject, claims.ID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		if errors.Is(err, refresh.ErrNotFound) {
			e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.ID, ErrUnknownToken, nil)
			return nil, ErrUnknownToken
		}
		return nil, fmt.Errorf("look up refresh record: %w", err)
	}

	now := time.Now()

	if rec.Revoked {
		return nil, e.handleReplay(ctx, rec)
	}
	if rec.Expired(now) {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, rec.UserID, rec.JTI, ErrExpiredToken, nil)
		return nil, ErrExpiredToken
	}

	ip := clientIPFromContext(ctx)

	won, err := e.store.Revoke(ctx, refreshValue, now, ip, refresh.ReasonRotated)
	if err != nil && !errors.Is(err, refresh.ErrNotFound) {
		e.metricInc(MetricRefreshFailure)
		return nil, fmt.Errorf("retire refresh record: %w", err)
	}
	if err != nil || !won {
		// The record was revoked between Find and Revoke. Same outcome as
		// presenting an already-rotated value.
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, auditEventRefreshFailure, false, rec.UserID, rec.JTI, ErrRevokedToken, nil)
		return nil, ErrRevokedToken
	}

	pair, newJTI, err := e.mintSuccessor(ctx, claims, ip, now)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, rec.UserID, rec.JTI, err, nil)
		return nil, err
	}

	if err := e.store.SetReplacedBy(ctx, refreshValue, pair.RefreshToken); err != nil {
		// The successor exists and the predecessor is revoked; a missing
		// link only degrades chain queries. Report it but hand out the pair.
		e.warnf("link rotation successor: %v", err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventTokenRefresh, true, rec.UserID, newJTI, nil, func() map[string]string {
		return map[string]string{"previous_token_id": rec.JTI}
	})

	return pair, nil
}

func (e *Engine) mintSuccessor(ctx context.Context, claims *jwt.AccessClaims, ip string, now time.Time) (*TokenPair, string, error) {
	jti := uuid.NewString()

	access, accessExpiresAt, err := e.jwtManager.CreateAccess(
		claims.Subject, claims.Email, claims.Name, claims.Admin, claims.Roles, jti,
	)
	if err != nil {
		return nil, "", fmt.Errorf("sign access credential: %w", err)
	}

	opaque, err := token.NewOpaque()
	if err != nil {
		return nil, "", fmt.Errorf("generate refresh value: %w", err)
	}

	refreshExpiresAt := now.Add(e.config.Refresh.RefreshTTL)
	rec := &refresh.Record{
		Value:       opaque,
		JTI:         jti,
		UserID:      claims.Subject,
		IssuedAt:    now,
		ExpiresAt:   refreshExpiresAt,
		CreatedByIP: ip,
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return nil, "", fmt.Errorf("persist refresh record: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     opaque,
		RefreshExpiresAt: refreshExpiresAt,
	}, jti, nil
}

// handleReplay records a presentation of an already-revoked value. When
// RevokeChainOnReuse is set, every descendant minted after the replayed
// record is revoked too, cutting off whoever holds the tip of the chain.
func (e *Engine) handleReplay(ctx context.Context, rec *refresh.Record) error {
	e.metricInc(MetricReplayDetected)

	cascaded := 0
	if e.config.Rotation.RevokeChainOnReuse {
		cascaded = e.revokeDescendants(ctx, rec)
	}

	e.emitAudit(ctx, auditEventTokenReuse, false, rec.UserID, rec.JTI, ErrRevokedToken, func() map[string]string {
		detail := map[string]string{
			"revoked_reason": rec.RevokedReason,
		}
		if cascaded > 0 {
			detail["cascade_revoked"] = fmt.Sprintf("%d", cascaded)
		}
		return detail
	})

	return ErrRevokedToken
}

func (e *Engine) revokeDescendants(ctx context.Context, rec *refresh.Record) int {
	chain, err := e.store.Descendants(ctx, rec.Value)
	if err != nil {
		e.warnf("resolve rotation chain: %v", err)
		return 0
	}

	now := time.Now()
	ip := clientIPFromContext(ctx)
	revoked := 0
	for _, value := range chain {
		won, err := e.store.Revoke(ctx, value, now, ip, refresh.ReasonReuseCascade)
		if err != nil {
			e.warnf("cascade revoke: %v", err)
			continue
		}
		if won {
			revoked++
		}
	}
	return revoked
}

func (e *Engine) checkRefreshThrottle(ctx context.Context, refreshValue, userID string) error {
	if e.limiter == nil || !e.config.Throttle.Enabled {
		return nil
	}

	fp := token.Fingerprint(refreshValue)
	err := e.limiter.CheckRefresh(ctx, hex.EncodeToString(fp[:]))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricRefreshRateLimited)
		e.emitRateLimit(ctx, "refresh", userID)
		return ErrRefreshRateLimited
	default:
		e.warnf("refresh throttle unavailable: %v", err)
		return nil
	}
}

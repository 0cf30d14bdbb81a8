package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentora/authcore/internal/token"
	"github.com/rentora/authcore/refresh"
)

// RevokeOne retires a single refresh value. Revoking an already-revoked
// value is a no-op success; only an unknown value is an error. The access
// credential paired with the record stays valid until its own expiry.
func (e *Engine) RevokeOne(ctx context.Context, refreshValue string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := token.CheckOpaque(refreshValue); err != nil {
		return ErrUnknownToken
	}

	rec, err := e.store.FindByValue(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, refresh.ErrNotFound) {
			return ErrUnknownToken
		}
		return fmt.Errorf("look up refresh record: %w", err)
	}

	won, err := e.store.Revoke(ctx, refreshValue, time.Now(), clientIPFromContext(ctx), refresh.ReasonRevoked)
	if err != nil && !errors.Is(err, refresh.ErrNotFound) {
		return fmt.Errorf("revoke refresh record: %w", err)
	}
	if !won {
		// Already terminal; revocation is idempotent.
		return nil
	}

	e.metricInc(MetricTokenRevoked)
	e.emitAudit(ctx, auditEventTokenRevoked, true, rec.UserID, rec.JTI, nil, nil)

	return nil
}

// RevokeAll retires every active refresh record belonging to the user and
// returns how many records transitioned. Zero active records is a success.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (int64, error) {
	if e == nil || e.store == nil {
		return 0, ErrEngineNotReady
	}
	if userID == "" {
		return 0, errors.New("user id required")
	}

	n, err := e.store.RevokeAllForUser(ctx, userID, time.Now(), clientIPFromContext(ctx), refresh.ReasonRevokeAll)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh records: %w", err)
	}

	e.metricInc(MetricAllTokensRevoked)
	e.emitAudit(ctx, auditEventAllTokensRevoked, true, userID, "", nil, func() map[string]string {
		return map[string]string{"revoked_count": fmt.Sprintf("%d", n)}
	})

	return n, nil
}

package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLogin            = "login"
	auditEventLoginFailure     = "login_failure"
	auditEventTokenRefresh     = "token_refresh"
	auditEventRefreshFailure   = "refresh_failure"
	auditEventTokenReuse       = "token_reuse_detected"
	auditEventTokenRevoked     = "token_revoked"
	auditEventAllTokensRevoked = "all_tokens_revoked"
	auditEventRateLimitTrigger = "rate_limit_triggered"
)

// AuditErrorCode is the normalized error label stamped on failure events.
type AuditErrorCode string

const (
	auditErrInvalidCredential AuditErrorCode = "invalid_credential"
	auditErrExpiredCredential AuditErrorCode = "expired_credential"
	auditErrUnknownToken      AuditErrorCode = "unknown_token"
	auditErrRevokedToken      AuditErrorCode = "revoked_token"
	auditErrExpiredToken      AuditErrorCode = "expired_token"
	auditErrUserNotFound      AuditErrorCode = "user_not_found"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	tokenID string,
	err error,
	detailBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var detail map[string]string
	if detailBuilder != nil {
		detail = detailBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		TokenID:   tokenID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Detail:    detail,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope, userID string) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTrigger, false, userID, "", nil, func() map[string]string {
		return map[string]string{"scope": scope}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredential):
		return auditErrInvalidCredential
	case errors.Is(err, ErrExpiredCredential):
		return auditErrExpiredCredential
	case errors.Is(err, ErrUnknownToken):
		return auditErrUnknownToken
	case errors.Is(err, ErrRevokedToken):
		return auditErrRevokedToken
	case errors.Is(err, ErrExpiredToken):
		return auditErrExpiredToken
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrIssueRateLimited),
		errors.Is(err, ErrRefreshRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}

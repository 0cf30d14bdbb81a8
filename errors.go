package authcore

import "errors"

var (
	// ErrInvalidCredential is returned when an access credential fails
	// verification for any reason other than expiry.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrExpiredCredential is returned when an access credential is
	// authentic but past its lifetime.
	ErrExpiredCredential = errors.New("credential expired")
	// ErrUnknownToken is returned when a refresh value has no matching
	// record, or the record is bound to a different user or credential.
	ErrUnknownToken = errors.New("unknown refresh token")
	// ErrRevokedToken is returned when a refresh value was already retired.
	// Losing a concurrent rotation race surfaces the same way: by the time
	// the loser observes the record, it is revoked.
	ErrRevokedToken = errors.New("refresh token revoked")
	// ErrExpiredToken is returned when a refresh record exists but is past
	// its expiry.
	ErrExpiredToken = errors.New("refresh token expired")
	// ErrUserNotFound is returned by IssueForUser when the directory has no
	// such user.
	ErrUserNotFound = errors.New("user not found")
	// ErrIssueRateLimited is returned when issuance throttling rejects the
	// request.
	ErrIssueRateLimited = errors.New("issue rate limited")
	// ErrRefreshRateLimited is returned when refresh throttling rejects the
	// request.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

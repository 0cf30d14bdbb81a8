package authcore

import (
	"context"
	"time"
)

// Identity is the claim payload carried by an access credential. The engine
// treats it as opaque profile data; authorization decisions belong to the
// caller.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool
	Roles   []string

	// TokenID is the jti of the credential the identity was decoded from.
	// Empty on input to Issue; the engine assigns it.
	TokenID string
}

// TokenPair is returned by Issue and Refresh: a signed access credential and
// the opaque refresh value that can redeem a successor pair.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// UserRecord is the directory's view of an account, consumed by
// IssueForUser.
type UserRecord struct {
	UserID      string
	Email       string
	DisplayName string
	IsAdmin     bool
}

// UserDirectory resolves accounts for convenience issuance. Implementations
// live with the caller's user database.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
}

// RoleSource resolves the role set stamped into issued credentials.
// Optional; when absent, IssueForUser issues with no roles.
type RoleSource interface {
	RolesForUser(ctx context.Context, userID string) ([]string, error)
}

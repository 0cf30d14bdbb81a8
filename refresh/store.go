package refresh

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no record exists for the requested
// value, or when the (value, user, jti) triple does not match as a unit.
var ErrNotFound = errors.New("refresh record not found")

// ErrDuplicateValue is returned by Create when the token value already exists.
// With 256-bit random values this indicates a caller bug, not a collision.
var ErrDuplicateValue = errors.New("refresh record value already exists")

// Store persists refresh Records. Implementations must make Revoke a
// compare-and-set on the revoked flag: of any number of concurrent calls for
// the same value, exactly one observes true. Records are never deleted.
type Store interface {
	// Create persists a new active record.
	Create(ctx context.Context, rec *Record) error

	// Find looks up a record by its full identifying triple. A value that
	// exists but is bound to a different user or jti is ErrNotFound; the
	// caller cannot distinguish which element mismatched.
	Find(ctx context.Context, value, userID, jti string) (*Record, error)

	// FindByValue looks up a record by token value alone.
	FindByValue(ctx context.Context, value string) (*Record, error)

	// Revoke marks the record revoked if and only if it is not already.
	// Returns true when this call performed the transition.
	Revoke(ctx context.Context, value string, at time.Time, ip, reason string) (bool, error)

	// SetReplacedBy links a revoked record to its rotation successor. Only
	// the winner of the Revoke race may call this.
	SetReplacedBy(ctx context.Context, value, replacedBy string) error

	// RevokeAllForUser revokes every non-revoked record belonging to the
	// user and returns how many records transitioned.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time, ip, reason string) (int64, error)

	// Descendants returns the values of every record that descends from the
	// given value through replaced-by links, nearest first.
	Descendants(ctx context.Context, value string) ([]string, error)
}

package refresh

import "time"

// Revocation reasons recorded on a Record. Callers may supply their own
// free-form reason for explicit revocations; these are the ones the engine
// writes itself.
const (
	ReasonRotated      = "rotated"
	ReasonRevoked      = "revoked"
	ReasonRevokeAll    = "revoke_all"
	ReasonReuseCascade = "reuse_cascade"
)

// Record is the persisted state of one refresh credential. The Value is the
// opaque token itself; JTI pairs the record with the access credential minted
// alongside it.
type Record struct {
	Value     string
	JTI       string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time

	Revoked       bool
	RevokedAt     time.Time
	RevokedByIP   string
	RevokedReason string

	// ReplacedBy names the successor value and is set only when the record
	// was retired by rotation.
	ReplacedBy string

	CreatedByIP string
}

// Active reports whether the record can still be redeemed at the given
// instant: not revoked and not past its expiry.
func (r *Record) Active(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// Expired reports whether the record is past its expiry, regardless of
// revocation state.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

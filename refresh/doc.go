// Package refresh persists the lifecycle state of refresh credentials.
//
// Every issuance and every rotation creates exactly one Record. Records move
// from active to revoked exactly once and are never deleted, so the full
// rotation history of a credential line stays queryable for audit and replay
// investigation. Stores guarantee that concurrent rotation of the same value
// admits exactly one winner through a conditional update, never an
// application-level lock.
package refresh

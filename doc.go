// Package authcore is the credential session core of a rental-booking
// backend: it issues signed access credentials paired with opaque refresh
// values, rotates pairs with single-use refresh semantics, revokes tokens
// singly or in bulk, and validates credentials for request authorization.
//
// The engine is storage-agnostic behind the refresh.Store interface, with
// in-memory and PostgreSQL implementations provided. Rotation races are
// settled at the store through a conditional update, so exactly one of any
// number of concurrent refreshes of the same value wins, across processes
// as well as goroutines. Replayed values are detected, audited, and can
// optionally revoke the whole descendant chain.
//
// Construction goes through the fluent Builder:
//
//	engine, err := authcore.New().
//		WithConfig(cfg).
//		WithStore(refresh.NewMemoryStore()).
//		WithAuditSink(authcore.NewJSONWriterSink(os.Stdout)).
//		Build()
package authcore

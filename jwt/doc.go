// Package jwt manages access-credential issuance and verification with a
// pinned HMAC-SHA-256 algorithm and strict validation semantics.
//
// Two parse modes exist: ParseAccess enforces the full lifetime and claim
// set for request authorization; ParseAccessExpired disables lifetime
// checking for the refresh path while still enforcing signature, algorithm,
// issuer, and audience.
package jwt

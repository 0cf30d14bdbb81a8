// Package rate provides Redis-backed fixed-window throttles for credential
// issuance and refresh.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - ci:  issuance per-user
//   - cii: issuance per-IP
//   - cr:  refresh per-token fingerprint
package rate

package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{
		AccessTTL:  time.Hour,
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
		Issuer:     "rentora",
		Audience:   "rentora-api",
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"short key", func(c *Config) { c.SigningKey = []byte("short") }},
		{"negative leeway", func(c *Config) { c.Leeway = -time.Second }},
		{"excessive leeway", func(c *Config) { c.Leeway = 5 * time.Minute }},
		{"negative max future iat", func(c *Config) { c.MaxFutureIAT = -time.Minute }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatal("expected config rejection")
			}
		})
	}
}

func TestCreateParseRoundTrip(t *testing.T) {
	m := newTestManager(t, testConfig())

	signed, expiresAt, err := m.CreateAccess("42", "guest@example.com", "Guest User", false, []string{"guest"}, "jti-1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Fatalf("expiry not within expected TTL window: %v", expiresAt)
	}

	claims, err := m.ParseAccess(signed)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.Subject != "42" {
		t.Fatalf("subject mismatch: %q", claims.Subject)
	}
	if claims.Email != "guest@example.com" || claims.Name != "Guest User" {
		t.Fatalf("profile claims mismatch: %+v", claims)
	}
	if claims.Admin {
		t.Fatal("admin flag leaked into non-admin token")
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "guest" {
		t.Fatalf("roles mismatch: %v", claims.Roles)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("jti mismatch: %q", claims.ID)
	}
	if claims.Issuer != "rentora" {
		t.Fatalf("issuer mismatch: %q", claims.Issuer)
	}
}

func TestParseAccessRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Millisecond
	m := newTestManager(t, cfg)

	signed, _, err := m.CreateAccess("42", "", "", false, nil, "jti-exp")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := m.ParseAccess(signed); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseAccessExpiredAcceptsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Millisecond
	m := newTestManager(t, cfg)

	signed, _, err := m.CreateAccess("42", "guest@example.com", "", true, []string{"host"}, "jti-exp2")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	claims, err := m.ParseAccessExpired(signed)
	if err != nil {
		t.Fatalf("ParseAccessExpired rejected an authentic expired token: %v", err)
	}
	if claims.Subject != "42" || claims.ID != "jti-exp2" {
		t.Fatalf("claims mismatch after expired parse: %+v", claims)
	}
	if !claims.Admin {
		t.Fatal("admin flag lost on expired parse")
	}
}

func TestParseAccessExpiredStillChecksSignature(t *testing.T) {
	m := newTestManager(t, testConfig())

	signed, _, err := m.CreateAccess("42", "", "", false, nil, "jti-sig")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.SigningKey = []byte("ffffffffffffffffffffffffffffffff")
	other := newTestManager(t, otherCfg)

	if _, err := other.ParseAccessExpired(signed); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestParseAccessExpiredEnforcesIssuerAndAudience(t *testing.T) {
	m := newTestManager(t, testConfig())

	signed, _, err := m.CreateAccess("42", "", "", false, nil, "jti-iss")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	otherIssuer := testConfig()
	otherIssuer.Issuer = "someone-else"
	if _, err := newTestManager(t, otherIssuer).ParseAccessExpired(signed); !errors.Is(err, ErrClaimsInvalid) {
		t.Fatalf("expected ErrClaimsInvalid for issuer mismatch, got %v", err)
	}

	otherAudience := testConfig()
	otherAudience.Audience = "different-api"
	if _, err := newTestManager(t, otherAudience).ParseAccessExpired(signed); !errors.Is(err, ErrClaimsInvalid) {
		t.Fatalf("expected ErrClaimsInvalid for audience mismatch, got %v", err)
	}
}

func TestParseRejectsAlgorithmConfusion(t *testing.T) {
	cfg := testConfig()
	m := newTestManager(t, cfg)

	// Same key, different MAC algorithm in the header.
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ID:        "jti-alg",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
		},
	}
	confused, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(cfg.SigningKey)
	if err != nil {
		t.Fatalf("signing HS512 token failed: %v", err)
	}

	// The mismatch must be reported as such, not as a bad signature.
	_, parseErr := m.ParseAccess(confused)
	if !errors.Is(parseErr, ErrAlgorithmMismatch) {
		t.Fatalf("expected ErrAlgorithmMismatch for HS512 token, got %v", parseErr)
	}
	if errors.Is(parseErr, ErrSignatureInvalid) {
		t.Fatalf("algorithm confusion must not classify as signature failure: %v", parseErr)
	}
	if _, err := m.ParseAccessExpired(confused); !errors.Is(err, ErrAlgorithmMismatch) {
		t.Fatalf("expected ErrAlgorithmMismatch with lifetime checking disabled, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("building alg=none token failed: %v", err)
	}
	if _, err := m.ParseAccess(unsigned); !errors.Is(err, ErrAlgorithmMismatch) {
		t.Fatalf("expected ErrAlgorithmMismatch for alg=none token, got %v", err)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	m := newTestManager(t, testConfig())

	for _, tokenStr := range []string{"", "garbage", "a.b", strings.Repeat("x", 512)} {
		if _, err := m.ParseAccess(tokenStr); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", tokenStr, err)
		}
	}
}

func TestParseRejectsTampering(t *testing.T) {
	m := newTestManager(t, testConfig())

	signed, _, err := m.CreateAccess("42", "", "", false, nil, "jti-tamper")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token segment count %d", len(parts))
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := m.ParseAccess(tampered); err == nil {
		t.Fatal("expected rejection of tampered payload")
	}
}

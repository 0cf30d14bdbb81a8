package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Access tokens are always HMAC-SHA-256. The algorithm is pinned at parse
// time as well as embedded at signing time so a tampered header cannot
// downgrade verification.
const signingAlgorithm = "HS256"

const minKeySize = 32

var (
	// ErrMalformed is returned when a token cannot be decoded at all.
	ErrMalformed = errors.New("malformed token")
	// ErrSignatureInvalid is returned when the HMAC does not verify.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrExpired is returned when a token is past its exp claim and lifetime
	// checking is enabled.
	ErrExpired = errors.New("token expired")
	// ErrAlgorithmMismatch is returned when the token header names any
	// algorithm other than the pinned one.
	ErrAlgorithmMismatch = errors.New("unexpected signing algorithm")
	// ErrClaimsInvalid is returned when the signature verifies but a
	// registered claim (issuer, audience, iat) fails validation.
	ErrClaimsInvalid = errors.New("token claims invalid")
)

// Config holds the immutable signing parameters. The key is injected once at
// process start; the Manager never mutates it.
type Config struct {
	AccessTTL    time.Duration
	SigningKey   []byte
	Issuer       string
	Audience     string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// Manager signs and verifies access credentials. Safe for concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the claim set carried by every access credential.
type AccessClaims struct {
	Email string   `json:"email,omitempty"`
	Name  string   `json:"name,omitempty"`
	Admin bool     `json:"adm,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.SigningKey) < minKeySize {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minKeySize)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess signs a fresh access credential for the subject. jti is
// supplied by the caller so issuance can pair the credential with its
// refresh record. Returns the compact token and its expiry.
func (m *Manager) CreateAccess(
	userID string,
	email string,
	displayName string,
	isAdmin bool,
	roles []string,
	jti string,
) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.AccessTTL)

	claims := AccessClaims{
		Email: email,
		Name:  displayName,
		Admin: isAdmin,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.SigningKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ParseAccess verifies a token with full lifetime checking. This is the
// variant used for ordinary request authorization.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	return m.parse(tokenStr, options)
}

// ParseAccessExpired verifies a token with lifetime checking disabled. The
// refresh path calls this: the access credential is expected to be past exp,
// but signature, algorithm, issuer, and audience are still enforced.
func (m *Manager) ParseAccessExpired(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithoutClaimsValidation(),
	}

	claims, err := m.parse(tokenStr, options)
	if err != nil {
		return nil, err
	}

	// WithoutClaimsValidation skips registered-claim checks wholesale, so
	// issuer and audience are re-checked by hand.
	if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrClaimsInvalid)
	}
	if m.config.Audience != "" && !hasAudience(claims.Audience, m.config.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrClaimsInvalid)
	}

	return claims, nil
}

func (m *Manager) parse(tokenStr string, options []jwt.ParserOption) (*AccessClaims, error) {
	parser := jwt.NewParser(options...)
	// The keyfunc is the algorithm gate: no key is released for any header
	// algorithm other than the pinned one, and its error joins the parse
	// error, so confusion surfaces as ErrAlgorithmMismatch rather than a
	// generic signature failure.
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingAlgorithm {
			return nil, ErrAlgorithmMismatch
		}
		return m.config.SigningKey, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrClaimsInvalid
	}

	if claims.IssuedAt != nil && m.config.MaxFutureIAT > 0 {
		maxAllowed := time.Now().Add(m.config.MaxFutureIAT)
		if claims.IssuedAt.Time.After(maxAllowed) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrClaimsInvalid)
		}
	}

	return claims, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgorithmMismatch):
		return ErrAlgorithmMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func hasAudience(audience jwt.ClaimStrings, expected string) bool {
	for _, a := range audience {
		if a == expected {
			return true
		}
	}
	return false
}

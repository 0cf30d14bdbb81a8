package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rentora/authcore/jwt"
)

// Validate verifies an access credential for request authorization and
// returns the identity it carries. Expiry is reported distinctly from every
// other failure so callers can drive the refresh flow off it. Validation is
// purely cryptographic: it never touches the refresh store.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	claims, err := e.jwtManager.ParseAccess(accessToken)
	if e.metrics != nil {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}
	if err != nil {
		e.metricInc(MetricValidateFailure)
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	e.metricInc(MetricValidateSuccess)

	return &Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		IsAdmin: claims.Admin,
		Roles:   claims.Roles,
		TokenID: claims.ID,
	}, nil
}

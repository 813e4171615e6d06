package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks ID tokens minted by the identity provider against its JWKS.
// It exists to catch a compromised or misrouted provider response before the
// subject is trusted for a session cookie.
type Verifier struct {
	keyfunc     jwt.Keyfunc
	allowedAlgs []string
	leeway      time.Duration
}

// NewVerifier builds a Verifier with an auto-refreshing JWKS fetched from
// jwksURL. RS256 only; the provider does not sign ID tokens with anything
// else.
func NewVerifier(ctx context.Context, jwksURL string) (*Verifier, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url required")
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	allowed := []string{"RS256"}
	return &Verifier{
		allowedAlgs: allowed,
		leeway:      60 * time.Second,
		keyfunc: func(t *jwt.Token) (any, error) {
			alg := t.Method.Alg()
			for _, a := range allowed {
				if alg == a {
					return kf.Keyfunc(t)
				}
			}
			return nil, fmt.Errorf("disallowed alg: %s", alg)
		},
	}, nil
}

// Subject parses and verifies raw and returns the token's subject claim.
func (v *Verifier) Subject(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty token")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.allowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)

	parsed, err := parser.Parse(raw, v.keyfunc)
	if err != nil {
		return "", fmt.Errorf("token parse/verify failed: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims type")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

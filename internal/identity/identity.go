// Package identity defines the capability boundary to the external identity
// provider. The gateway never validates credentials itself: every
// authentication decision is delegated to a Provider implementation and comes
// back as either an Identity or a ProviderError carrying a failure code.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Identity is the provider's answer to a successful authentication. UserID is
// the only attribute the gateway keeps; further profile claims are discarded
// at this boundary.
type Identity struct {
	UserID string
}

// FailureCode enumerates provider failure conditions the gateway understands.
// Codes are opaque to clients; the auth service translates them into
// field-attributed domain errors.
type FailureCode string

const (
	FailureEmailInUse    FailureCode = "email-already-in-use"
	FailureInvalidEmail  FailureCode = "invalid-email"
	FailureWeakPassword  FailureCode = "weak-password"
	FailureUserNotFound  FailureCode = "user-not-found"
	FailureWrongPassword FailureCode = "wrong-password"

	// FailureUnavailable marks transport-level trouble (network, decode,
	// unexpected provider responses). It is never attributed to a credential.
	FailureUnavailable FailureCode = "provider-unavailable"
)

// ProviderError is a failed provider decision. Message carries the provider's
// human-readable description and may be surfaced for unmapped codes; it must
// never contain secrets.
type ProviderError struct {
	Code    FailureCode
	Message string

	err error
}

func (e *ProviderError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("identity provider: %s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("identity provider: %s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.err }

// NewProviderError builds a ProviderError with the given code and message.
func NewProviderError(code FailureCode, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}

// WrapProviderError keeps the underlying cause reachable for logs while the
// code and message describe the decision.
func WrapProviderError(err error, code FailureCode, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message, err: err}
}

// AsProviderError extracts a ProviderError from err, if one is present.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Provider is the full capability surface the gateway needs from an identity
// provider. Implementations: the REST client for the real provider and the
// in-process development provider.
type Provider interface {
	// Register creates an account for the credentials. The returned identity
	// is informational only: registration never signs the caller in.
	Register(ctx context.Context, email, password string) (Identity, error)

	// AuthenticatePassword checks the credentials and returns the account's
	// identity.
	AuthenticatePassword(ctx context.Context, email, password string) (Identity, error)

	// AuthenticateFederated runs the federated (Google) flow on the provider
	// side and returns the resulting identity.
	AuthenticateFederated(ctx context.Context) (Identity, error)

	// RevokeSession invalidates the provider-side session for the user. The
	// gateway only clears its cookie after this succeeds.
	RevokeSession(ctx context.Context, userID string) error
}

// Package service orchestrates the authentication lifecycle: validate the
// credentials, delegate the decision to the identity provider, and translate
// failures into field-attributed domain errors. It holds no cross-request
// state; sessions live in the cookie the handler writes after a success.
package service

import (
	"context"
	"log/slog"
	"time"

	"authgate/internal/audit"
	"authgate/internal/auth/models"
	"authgate/internal/identity"
	"authgate/internal/platform/metrics"
	"authgate/internal/platform/middleware"
	"authgate/internal/ratelimit/lockout"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/privacy"
	"authgate/pkg/validation"
)

const (
	methodPassword = "password"
	methodGoogle   = "google"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeInvalid = "invalid"
	outcomeLocked  = "locked"
)

// Service is the authentication gateway. All collaborators are injected;
// lockout, audit and metrics are optional (nil skips them).
type Service struct {
	provider identity.Provider
	lockout  *lockout.Service
	audit    *audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(provider identity.Provider, lock *lockout.Service, rec *audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		lockout:  lock,
		audit:    rec,
		metrics:  m,
		logger:   logger,
	}
}

// SignUp registers the credentials with the provider. Registration never
// signs the caller in: the provider requires a separate sign-in afterwards,
// so no identity is returned here.
func (s *Service) SignUp(ctx context.Context, creds models.Credentials) error {
	if err := validation.Struct(creds); err != nil {
		s.metrics.ObserveSignUp(outcomeInvalid)
		return err
	}

	start := time.Now()
	_, err := s.provider.Register(ctx, creds.Email, creds.Password)
	s.metrics.ObserveProvider("register", time.Since(start))
	if err != nil {
		s.metrics.ObserveSignUp(outcomeFailure)
		s.logger.InfoContext(ctx, "sign-up rejected",
			"email", privacy.MaskEmail(creds.Email),
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		return translateRegister(err)
	}

	s.metrics.ObserveSignUp(outcomeSuccess)
	s.audit.Record(ctx, audit.Event{
		Action: audit.ActionUserRegistered,
		Email:  creds.Email,
	})
	return nil
}

// SignInPassword authenticates the credentials and returns the identity the
// handler binds to a session cookie. Failed credential checks feed the
// lockout; a locked identifier+IP short-circuits before the provider is
// called.
func (s *Service) SignInPassword(ctx context.Context, creds models.Credentials) (identity.Identity, error) {
	if err := validation.Struct(creds); err != nil {
		s.metrics.ObserveSignIn(methodPassword, outcomeInvalid)
		return identity.Identity{}, err
	}

	ip := middleware.GetClientIP(ctx)
	if status := s.lockout.Check(ctx, creds.Email, ip); status.Locked {
		s.metrics.ObserveSignIn(methodPassword, outcomeLocked)
		return identity.Identity{}, dErrors.Wrap(
			&lockout.LockedError{RetryAfter: status.RetryAfter},
			dErrors.CodeRateLimited,
			"too many failed sign-in attempts",
		)
	}

	start := time.Now()
	id, err := s.provider.AuthenticatePassword(ctx, creds.Email, creds.Password)
	s.metrics.ObserveProvider("authenticate", time.Since(start))
	if err != nil {
		if isCredentialMismatch(err) {
			s.lockout.RecordFailure(ctx, creds.Email, ip)
		}
		s.metrics.ObserveSignIn(methodPassword, outcomeFailure)
		s.audit.Record(ctx, audit.Event{
			Action: audit.ActionSignInFailed,
			Email:  creds.Email,
			Method: methodPassword,
			Reason: failureReason(err),
		})
		return identity.Identity{}, translateAuthenticate(err)
	}

	s.lockout.Clear(ctx, creds.Email, ip)
	s.metrics.ObserveSignIn(methodPassword, outcomeSuccess)
	s.audit.Record(ctx, audit.Event{
		Action: audit.ActionSignInSucceeded,
		UserID: id.UserID,
		Email:  creds.Email,
		Method: methodPassword,
	})
	return id, nil
}

// SignInFederated runs the provider's Google flow. The gateway never sees
// credentials here, so there is nothing to validate and failures carry no
// field attribution.
func (s *Service) SignInFederated(ctx context.Context) (identity.Identity, error) {
	start := time.Now()
	id, err := s.provider.AuthenticateFederated(ctx)
	s.metrics.ObserveProvider("authenticate_federated", time.Since(start))
	if err != nil {
		s.metrics.ObserveSignIn(methodGoogle, outcomeFailure)
		s.audit.Record(ctx, audit.Event{
			Action: audit.ActionSignInFailed,
			Method: methodGoogle,
			Reason: failureReason(err),
		})
		return identity.Identity{}, translateFederated(err)
	}

	s.metrics.ObserveSignIn(methodGoogle, outcomeSuccess)
	s.audit.Record(ctx, audit.Event{
		Action: audit.ActionSignInSucceeded,
		UserID: id.UserID,
		Method: methodGoogle,
	})
	return id, nil
}

// SignOut revokes the provider-side session. The handler only clears the
// cookie when this succeeds: an unconfirmed revoke leaves the cookie alone.
func (s *Service) SignOut(ctx context.Context, userID string) error {
	start := time.Now()
	err := s.provider.RevokeSession(ctx, userID)
	s.metrics.ObserveProvider("revoke_session", time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "session revoke failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		return translateRevoke(err)
	}

	s.metrics.ObserveSignOut()
	s.audit.Record(ctx, audit.Event{
		Action: audit.ActionSignedOut,
		UserID: userID,
	})
	return nil
}

// isCredentialMismatch reports whether the failure is one a caller probing
// credentials would produce. Only these count against the lockout; provider
// outages must not lock users out.
func isCredentialMismatch(err error) bool {
	pe, ok := identity.AsProviderError(err)
	if !ok {
		return false
	}
	switch pe.Code {
	case identity.FailureWrongPassword, identity.FailureUserNotFound, identity.FailureInvalidEmail:
		return true
	}
	return false
}

// failureReason extracts the provider failure code for audit records.
func failureReason(err error) string {
	if pe, ok := identity.AsProviderError(err); ok {
		return string(pe.Code)
	}
	return "unknown"
}

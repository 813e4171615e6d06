// Package lockout throttles credential guessing: repeated failed sign-ins for
// the same identifier and client IP inside a sliding window trigger a hard
// lock. The gateway consults it before every provider call on the password
// paths and records outcomes afterwards.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"authgate/internal/audit"
	"authgate/internal/platform/config"
	"authgate/internal/platform/metrics"
	"authgate/pkg/platform/privacy"
)

// Record is the stored failure state for one identifier+IP key.
type Record struct {
	Failures    int
	LockedUntil time.Time
}

// Store persists failure records. Implementations: MemoryStore and RedisStore.
type Store interface {
	// AddFailure counts one failure inside the sliding window and returns
	// the updated record.
	AddFailure(ctx context.Context, key string, window time.Duration) (Record, error)
	// Lock hard-locks the key until the given time.
	Lock(ctx context.Context, key string, until time.Time) error
	Get(ctx context.Context, key string) (Record, error)
	Clear(ctx context.Context, key string) error
}

// Status is the answer to a pre-authentication check.
type Status struct {
	Locked     bool
	RetryAfter time.Duration
}

// LockedError signals a locked key to transport layers, which surface
// RetryAfter as a Retry-After header.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("locked out, retry after %s", e.RetryAfter)
}

// Service applies the lockout policy on top of a Store. A nil *Service allows
// everything, so wiring can skip it when lockout is disabled.
type Service struct {
	store   Store
	cfg     config.Lockout
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   *audit.Recorder
}

func New(store Store, cfg config.Lockout, logger *slog.Logger, m *metrics.Metrics, rec *audit.Recorder) *Service {
	return &Service{store: store, cfg: cfg, logger: logger, metrics: m, audit: rec}
}

// key scopes lockout state to identifier+IP so one address guessing at an
// account cannot lock the real owner out from everywhere.
func key(identifier, ip string) string {
	return strings.ToLower(strings.TrimSpace(identifier)) + "|" + ip
}

// Check reports whether the identifier+IP is currently locked. Store trouble
// fails open: losing the lockout store must not take sign-in down with it.
func (s *Service) Check(ctx context.Context, identifier, ip string) Status {
	if s == nil {
		return Status{}
	}

	record, err := s.store.Get(ctx, key(identifier, ip))
	if err != nil {
		s.logger.WarnContext(ctx, "lockout check failed, allowing request", "error", err)
		return Status{}
	}

	now := time.Now()
	if record.LockedUntil.After(now) {
		return Status{Locked: true, RetryAfter: record.LockedUntil.Sub(now)}
	}
	return Status{}
}

// RecordFailure counts a failed sign-in and hard-locks the key once the
// window's failure budget is spent.
func (s *Service) RecordFailure(ctx context.Context, identifier, ip string) {
	if s == nil {
		return
	}

	k := key(identifier, ip)
	record, err := s.store.AddFailure(ctx, k, s.cfg.Window)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout failure not recorded", "error", err)
		return
	}

	if record.Failures < s.cfg.MaxFailures || record.LockedUntil.After(time.Now()) {
		return
	}

	until := time.Now().Add(s.cfg.LockDuration)
	if err := s.store.Lock(ctx, k, until); err != nil {
		s.logger.WarnContext(ctx, "lockout not applied", "error", err)
		return
	}

	s.metrics.ObserveLockout()
	s.audit.Record(ctx, audit.Event{
		Action: audit.ActionLockoutTriggered,
		Email:  identifier,
		Reason: fmt.Sprintf("%d failures within %s", record.Failures, s.cfg.Window),
	})
	s.logger.WarnContext(ctx, "sign-in lockout triggered",
		"ip", privacy.AnonymizeIP(ip),
		"failures", record.Failures,
		"locked_until", until,
	)
}

// Clear wipes the failure state after a successful sign-in.
func (s *Service) Clear(ctx context.Context, identifier, ip string) {
	if s == nil {
		return
	}
	if err := s.store.Clear(ctx, key(identifier, ip)); err != nil {
		s.logger.WarnContext(ctx, "lockout state not cleared", "error", err)
	}
}

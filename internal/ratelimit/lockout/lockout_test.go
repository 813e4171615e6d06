package lockout

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"authgate/internal/platform/config"
)

func testConfig() config.Lockout {
	return config.Lockout{
		MaxFailures:  3,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

func testService(store Store) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, testConfig(), logger, nil, nil)
}

func TestLockoutTriggersAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	svc := testService(NewMemoryStore())

	for i := 0; i < 2; i++ {
		svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
		require.False(t, svc.Check(ctx, "alice@example.com", "203.0.113.7").Locked)
	}

	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")

	status := svc.Check(ctx, "alice@example.com", "203.0.113.7")
	require.True(t, status.Locked)
	require.Greater(t, status.RetryAfter, time.Duration(0))
	require.LessOrEqual(t, status.RetryAfter, 15*time.Minute)
}

func TestLockoutKeyIsScopedToIdentifierAndIP(t *testing.T) {
	ctx := context.Background()
	svc := testService(NewMemoryStore())

	for i := 0; i < 3; i++ {
		svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	}

	require.True(t, svc.Check(ctx, "alice@example.com", "203.0.113.7").Locked)
	require.False(t, svc.Check(ctx, "alice@example.com", "198.51.100.1").Locked,
		"a different IP must not be locked")
	require.False(t, svc.Check(ctx, "bob@example.com", "203.0.113.7").Locked,
		"a different identifier must not be locked")
}

func TestLockoutIdentifierIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := testService(NewMemoryStore())

	for i := 0; i < 3; i++ {
		svc.RecordFailure(ctx, "Alice@Example.COM", "203.0.113.7")
	}
	require.True(t, svc.Check(ctx, "alice@example.com", "203.0.113.7").Locked)
}

func TestClearResetsFailures(t *testing.T) {
	ctx := context.Background()
	svc := testService(NewMemoryStore())

	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	svc.Clear(ctx, "alice@example.com", "203.0.113.7")

	// The budget starts over after a successful sign-in.
	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	require.False(t, svc.Check(ctx, "alice@example.com", "203.0.113.7").Locked)
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	svc := testService(store)

	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")

	// Failures age out of the sliding window.
	now = now.Add(16 * time.Minute)
	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	require.False(t, svc.Check(ctx, "alice@example.com", "203.0.113.7").Locked)

	record, err := store.Get(ctx, key("alice@example.com", "203.0.113.7"))
	require.NoError(t, err)
	require.Equal(t, 1, record.Failures)
}

func TestNilServiceAllowsEverything(t *testing.T) {
	var svc *Service
	ctx := context.Background()

	require.False(t, svc.Check(ctx, "alice@example.com", "203.0.113.7").Locked)
	svc.RecordFailure(ctx, "alice@example.com", "203.0.113.7")
	svc.Clear(ctx, "alice@example.com", "203.0.113.7")
}

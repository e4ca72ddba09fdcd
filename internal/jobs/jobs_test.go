package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/service"
)

// ============================================================================
// Mocks
// ============================================================================

type mockPayments struct {
	reconcileFunc func(ctx context.Context, grace, expiry time.Duration) (service.ReconcileResult, error)
}

func (m *mockPayments) Reconcile(ctx context.Context, grace, expiry time.Duration) (service.ReconcileResult, error) {
	return m.reconcileFunc(ctx, grace, expiry)
}

type countFunc func(ctx context.Context) (int, error)

func (f countFunc) ExpireEnded(ctx context.Context) (int, error)      { return f(ctx) }
func (f countFunc) CompleteFinished(ctx context.Context) (int, error) { return f(ctx) }

type cleanFunc func(ctx context.Context) error

func (f cleanFunc) CleanupExpired(ctx context.Context) error { return f(ctx) }

// ============================================================================
// Reconciler Tests
// ============================================================================

func TestReconciler_Defaults(t *testing.T) {
	t.Parallel()

	r := NewReconciler(&mockPayments{}, ReconcilerConfig{Grace: time.Hour, Expiry: time.Minute})
	assert.Equal(t, 5*time.Minute, r.cfg.Interval)
	assert.Equal(t, 24*time.Hour, r.cfg.Expiry, "expiry shorter than grace falls back to the default")
}

func TestReconciler_RunOnce_PassesWindows(t *testing.T) {
	t.Parallel()

	var gotGrace, gotExpiry time.Duration
	r := NewReconciler(&mockPayments{
		reconcileFunc: func(ctx context.Context, grace, expiry time.Duration) (service.ReconcileResult, error) {
			gotGrace, gotExpiry = grace, expiry
			return service.ReconcileResult{Checked: 3, Settled: 1, Expired: 1}, nil
		},
	}, ReconcilerConfig{Interval: time.Minute, Grace: 10 * time.Minute, Expiry: 2 * time.Hour})

	result, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, gotGrace)
	assert.Equal(t, 2*time.Hour, gotExpiry)
	assert.Equal(t, 1, result.Settled)
}

func TestReconciler_RunOnce_ReturnsError(t *testing.T) {
	t.Parallel()

	r := NewReconciler(&mockPayments{
		reconcileFunc: func(ctx context.Context, grace, expiry time.Duration) (service.ReconcileResult, error) {
			return service.ReconcileResult{Checked: 1}, errors.New("db down")
		},
	}, ReconcilerConfig{})

	_, err := r.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

// ============================================================================
// Housekeeper Tests
// ============================================================================

func TestHousekeeper_RunsEveryStepDespiteFailures(t *testing.T) {
	t.Parallel()

	var completed, cleaned atomic.Bool
	h := NewHousekeeper(
		countFunc(func(ctx context.Context) (int, error) { return 0, errors.New("memberships unavailable") }),
		countFunc(func(ctx context.Context) (int, error) { completed.Store(true); return 2, nil }),
		cleanFunc(func(ctx context.Context) error { cleaned.Store(true); return nil }),
		time.Hour,
	)

	err := h.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expire memberships")
	assert.True(t, completed.Load())
	assert.True(t, cleaned.Load())
}

func TestHousekeeper_NilDependencies(t *testing.T) {
	t.Parallel()

	h := NewHousekeeper(nil, nil, nil, 0)
	assert.NoError(t, h.RunOnce(context.Background()))
	assert.Equal(t, time.Hour, h.interval)
}

// ============================================================================
// Loop Tests
// ============================================================================

func TestPeriodic_StartStop(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	p := newPeriodic("test", 10*time.Millisecond, func(ctx context.Context) {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			ticks.Add(1)
		}
	})
	p.initialDelay = 0

	p.Start()
	p.Start()
	assert.True(t, p.IsRunning())

	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.IsRunning())
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ticks.Load(), "no ticks after Stop returns")

	assert.NotPanics(t, p.Stop)
}

func TestPeriodic_StopDuringInitialDelay(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	p := newPeriodic("test", time.Hour, func(ctx context.Context) { ticks.Add(1) })
	p.initialDelay = time.Hour

	p.Start()
	p.Stop()

	assert.Zero(t, ticks.Load())
}

func TestPeriodic_Restart(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	p := newPeriodic("test", time.Hour, func(ctx context.Context) { ticks.Add(1) })
	p.initialDelay = 0

	p.Start()
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, 5*time.Millisecond)
	p.Stop()

	p.Start()
	require.Eventually(t, func() bool { return ticks.Load() == 2 }, time.Second, 5*time.Millisecond)
	p.Stop()
}

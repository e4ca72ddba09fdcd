package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/eatmeetclub/api/internal/service"
)

// PaymentReconciler is the slice of the payment service the reconciler drives.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, grace, expiry time.Duration) (service.ReconcileResult, error)
}

// ReconcilerConfig controls how stale a pending payment must be before it
// is re-checked with the processor, and when it is given up on.
type ReconcilerConfig struct {
	Interval time.Duration
	Grace    time.Duration
	Expiry   time.Duration
}

// Reconciler settles checkouts whose browser redirect and webhook never
// arrived. Pending payments older than Grace are verified with the
// processor; those older than Expiry are marked expired.
type Reconciler struct {
	*periodic
	payments PaymentReconciler
	cfg      ReconcilerConfig
}

// NewReconciler creates a payment reconciliation job
func NewReconciler(payments PaymentReconciler, cfg ReconcilerConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Grace <= 0 {
		cfg.Grace = 10 * time.Minute
	}
	if cfg.Expiry <= cfg.Grace {
		cfg.Expiry = 24 * time.Hour
	}

	r := &Reconciler{payments: payments, cfg: cfg}
	r.periodic = newPeriodic("payment_reconciler", cfg.Interval, func(ctx context.Context) {
		if _, err := r.RunOnce(ctx); err != nil {
			slog.Error("payment reconciliation failed", slog.Any("error", err))
		}
	})
	return r
}

// RunOnce performs a single reconciliation pass
func (r *Reconciler) RunOnce(ctx context.Context) (service.ReconcileResult, error) {
	result, err := r.payments.Reconcile(ctx, r.cfg.Grace, r.cfg.Expiry)
	if result.Checked > 0 {
		slog.Info("payments reconciled",
			slog.Int("checked", result.Checked),
			slog.Int("settled", result.Settled),
			slog.Int("expired", result.Expired),
		)
	}
	return result, err
}

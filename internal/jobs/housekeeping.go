package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// MembershipExpirer lapses memberships past their period end.
type MembershipExpirer interface {
	ExpireEnded(ctx context.Context) (int, error)
}

// EventCompleter moves finished dining events to completed.
type EventCompleter interface {
	CompleteFinished(ctx context.Context) (int, error)
}

// TokenCleaner removes expired refresh tokens.
type TokenCleaner interface {
	CleanupExpired(ctx context.Context) error
}

// Housekeeper runs the state transitions driven by the clock rather than
// by a request: membership expiry, event completion and token cleanup.
// A failing step does not prevent the others from running.
type Housekeeper struct {
	*periodic
	memberships MembershipExpirer
	events      EventCompleter
	tokens      TokenCleaner
}

// NewHousekeeper creates the housekeeping job. Any dependency may be nil.
func NewHousekeeper(memberships MembershipExpirer, events EventCompleter, tokens TokenCleaner, interval time.Duration) *Housekeeper {
	if interval <= 0 {
		interval = time.Hour
	}
	h := &Housekeeper{memberships: memberships, events: events, tokens: tokens}
	h.periodic = newPeriodic("housekeeper", interval, func(ctx context.Context) {
		if err := h.RunOnce(ctx); err != nil {
			slog.Error("housekeeping failed", slog.Any("error", err))
		}
	})
	return h
}

// RunOnce performs every housekeeping step once and joins their errors.
func (h *Housekeeper) RunOnce(ctx context.Context) error {
	var errs []error

	if h.memberships != nil {
		n, err := h.memberships.ExpireEnded(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("expire memberships: %w", err))
		} else if n > 0 {
			slog.Info("memberships expired", slog.Int("count", n))
		}
	}

	if h.events != nil {
		n, err := h.events.CompleteFinished(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("complete events: %w", err))
		} else if n > 0 {
			slog.Info("dining events completed", slog.Int("count", n))
		}
	}

	if h.tokens != nil {
		if err := h.tokens.CleanupExpired(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cleanup tokens: %w", err))
		}
	}

	return errors.Join(errs...)
}

package service

import (
	"context"
	"sort"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// SuccessfulPaymentLister reads the payments revenue is computed from
type SuccessfulPaymentLister interface {
	ListSuccessful(ctx context.Context, from, to *time.Time) ([]*model.Payment, error)
}

// BillingService aggregates revenue for the admin dashboard
type BillingService struct {
	payments SuccessfulPaymentLister
}

// NewBillingService creates a new billing service
func NewBillingService(payments SuccessfulPaymentLister) *BillingService {
	return &BillingService{payments: payments}
}

// Report loads successful payments in [from, to) and aggregates them
func (s *BillingService) Report(ctx context.Context, from, to *time.Time) (*model.BillingReport, error) {
	if from != nil && to != nil && !to.After(*from) {
		return nil, NewValidationError([]model.FieldError{{Field: "to", Message: "to must be after from"}})
	}

	list, err := s.payments.ListSuccessful(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &model.BillingReport{
		From:    from,
		To:      to,
		Months:  RevenueByMonth(list),
		Summary: Summarize(list),
	}, nil
}

// RevenueByMonth groups successful payments by UTC month of payment and
// currency in a single pass. Buckets come back sorted by month then
// currency; months without payments are omitted.
func RevenueByMonth(list []*model.Payment) []model.MonthlyRevenue {
	type key struct{ month, currency string }
	buckets := make(map[key]*model.MonthlyRevenue)

	for _, p := range list {
		if p.Status != model.PaymentStatusSuccessful {
			continue
		}
		paid := p.CreatedOn
		if p.PaidOn != nil {
			paid = *p.PaidOn
		}
		k := key{month: paid.UTC().Format("2006-01"), currency: p.Currency}
		b, ok := buckets[k]
		if !ok {
			b = &model.MonthlyRevenue{Month: k.month, Currency: k.currency}
			buckets[k] = b
		}
		b.Amount += p.Amount
		b.Count++
	}

	out := make([]model.MonthlyRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

// Summarize totals successful payments per currency. The average order
// value is rounded down to minor units.
func Summarize(list []*model.Payment) []model.RevenueSummary {
	totals := make(map[string]*model.RevenueSummary)
	for _, p := range list {
		if p.Status != model.PaymentStatusSuccessful {
			continue
		}
		t, ok := totals[p.Currency]
		if !ok {
			t = &model.RevenueSummary{Currency: p.Currency}
			totals[p.Currency] = t
		}
		t.Total += p.Amount
		t.Count++
	}

	out := make([]model.RevenueSummary, 0, len(totals))
	for _, t := range totals {
		if t.Count > 0 {
			t.AverageOrder = t.Total / int64(t.Count)
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

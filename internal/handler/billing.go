package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/eatmeetclub/api/internal/model"
)

// BillingService is the part of service.BillingService the dashboard uses
type BillingService interface {
	Report(ctx context.Context, from, to *time.Time) (*model.BillingReport, error)
}

// BillingHandler serves the admin billing dashboard
type BillingHandler struct {
	svc BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(svc BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// Report handles GET /v1/admin/billing?from=&to=.
// Revenue per UTC month and currency plus per-currency totals.
func (h *BillingHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, problem := parseTimeParam(r, "from")
	if problem != nil {
		WriteError(w, problem)
		return
	}
	to, problem := parseTimeParam(r, "to")
	if problem != nil {
		WriteError(w, problem)
		return
	}

	report, err := h.svc.Report(r.Context(), from, to)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, report, map[string]string{
		"payments": "/v1/admin/payments?status=" + model.PaymentStatusSuccessful,
	})
}

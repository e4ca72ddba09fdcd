package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// maxWebhookBody caps the webhook payload read from the processor
const maxWebhookBody = 1 << 20

// PaymentService is the part of service.PaymentService the endpoints use
type PaymentService interface {
	Get(ctx context.Context, actor service.Actor, id string) (*model.Payment, error)
	List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, bool, error)
	VerifyPayment(ctx context.Context, viewer *service.Actor, id string) (*model.Payment, error)
	HandleWebhook(ctx context.Context, body *model.WebhookEvent) error
}

// PaymentHandler handles payment lookups, verification and processor webhooks
type PaymentHandler struct {
	svc PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Get handles GET /v1/payments/{paymentId}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	payment, err := h.svc.Get(r.Context(), actor, r.PathValue("paymentId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, payment, paymentLinks(payment))
}

// Verify handles POST /v1/payments/{paymentId}/verify.
// Called by the checkout return page; asks the processor for the charge
// status and settles the payment if it is final. Safe to call repeatedly.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	payment, err := h.svc.VerifyPayment(r.Context(), optionalActor(r), r.PathValue("paymentId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, payment, paymentLinks(payment))
}

// Webhook handles POST /v1/payments/webhook.
// The processor sends more fields than the event id and key, so unknown
// fields are accepted here.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var body model.WebhookEvent
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&body); err != nil {
		WriteError(w, model.NewBadRequestError("invalid webhook body"))
		return
	}

	if err := h.svc.HandleWebhook(r.Context(), &body); err != nil {
		slog.Warn("webhook failed",
			slog.String("event_id", body.ID),
			slog.String("error", err.Error()))
		WriteServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// List handles GET /v1/admin/payments.
// Filters: status, kind, user_id, from, to.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.PaymentFilter{
		Status: q.Get("status"),
		Kind:   model.PaymentKind(q.Get("kind")),
		UserID: q.Get("user_id"),
		Page:   ParsePage(r),
	}

	var problem *model.ProblemDetails
	if filter.From, problem = parseTimeParam(r, "from"); problem != nil {
		WriteError(w, problem)
		return
	}
	if filter.To, problem = parseTimeParam(r, "to"); problem != nil {
		WriteError(w, problem)
		return
	}

	list, hasMore, err := h.svc.List(r.Context(), filter)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteCollection(w, http.StatusOK, list, NewPagination(filter.Page, hasMore), nil)
}

func paymentLinks(p *model.Payment) map[string]string {
	links := map[string]string{
		"self":   "/v1/payments/" + p.ID,
		"verify": "/v1/payments/" + p.ID + "/verify",
	}
	if p.AuthorizeURI != nil && !p.IsSettled() {
		links["authorize"] = *p.AuthorizeURI
	}
	return links
}

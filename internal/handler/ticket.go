package handler

import (
	"context"
	"net/http"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// TicketService is the part of service.TicketService the endpoints use
type TicketService interface {
	PurchaseTickets(ctx context.Context, actor service.Actor, eventID string, req *model.PurchaseTicketsRequest) (*model.PurchaseResult, error)
	ListMine(ctx context.Context, actor service.Actor, page model.Page) ([]*model.Ticket, bool, error)
	Get(ctx context.Context, actor service.Actor, id string) (*model.Ticket, error)
	Attendees(ctx context.Context, actor service.Actor, eventID string) ([]*model.Attendee, error)
	Cancel(ctx context.Context, actor service.Actor, id string) (*model.Ticket, error)
}

// TicketHandler handles ticket purchases and lookups
type TicketHandler struct {
	svc TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

// Purchase handles POST /v1/events/{eventId}/tickets.
// Responds 201 with the ticket, its payment and the URI the browser must
// visit to authorize the charge. Free events and captured cards need no redirect.
func (h *TicketHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	var req model.PurchaseTicketsRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	result, err := h.svc.PurchaseTickets(r.Context(), actor, r.PathValue("eventId"), &req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	links := map[string]string{"self": "/v1/tickets/" + result.Ticket.ID}
	if result.Payment != nil {
		links["payment"] = "/v1/payments/" + result.Payment.ID
		links["verify"] = "/v1/payments/" + result.Payment.ID + "/verify"
	}
	if result.AuthorizeURI != "" {
		links["authorize"] = result.AuthorizeURI
	}

	WriteData(w, http.StatusCreated, result, links)
}

// ListMine handles GET /v1/tickets
func (h *TicketHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	page := ParsePage(r)
	tickets, hasMore, err := h.svc.ListMine(r.Context(), actor, page)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteCollection(w, http.StatusOK, tickets, NewPagination(page, hasMore), nil)
}

// Get handles GET /v1/tickets/{ticketId}
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ticket, err := h.svc.Get(r.Context(), actor, r.PathValue("ticketId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, ticket, map[string]string{
		"self":  "/v1/tickets/" + ticket.ID,
		"event": "/v1/events/" + ticket.EventID,
	})
}

// Cancel handles POST /v1/tickets/{ticketId}/cancel
func (h *TicketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	ticket, err := h.svc.Cancel(r.Context(), actor, r.PathValue("ticketId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, ticket, nil)
}

// Attendees handles GET /v1/events/{eventId}/attendees for the host
func (h *TicketHandler) Attendees(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}

	attendees, err := h.svc.Attendees(r.Context(), actor, r.PathValue("eventId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteData(w, http.StatusOK, attendees, nil)
}

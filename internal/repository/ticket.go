package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

// TicketRepository handles ticket data access
type TicketRepository struct {
	db database.Database
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db database.Database) *TicketRepository {
	return &TicketRepository{db: db}
}

const createTicketQuery = `
	CREATE ticket CONTENT {
		event_id: $event_id,
		user_id: $user_id,
		quantity: $quantity,
		unit_price: $unit_price,
		discount_percent: $discount_percent,
		amount: $amount,
		currency: $currency,
		code: $code,
		status: $status,
		created_on: time::now(),
		updated_on: time::now()
	}
`

func ticketVars(ticket *model.Ticket) map[string]interface{} {
	return map[string]interface{}{
		"event_id":         ticket.EventID,
		"user_id":          ticket.UserID,
		"quantity":         ticket.Quantity,
		"unit_price":       ticket.UnitPrice,
		"discount_percent": ticket.DiscountPercent,
		"amount":           ticket.Amount,
		"currency":         ticket.Currency,
		"code":             ticket.Code,
		"status":           ticket.Status,
	}
}

// Create creates a ticket
func (r *TicketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	result, err := r.db.Query(ctx, createTicketQuery, ticketVars(ticket))
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	created, err := extractCreatedRecord(result)
	if err != nil {
		return err
	}
	ticket.ID = created.ID
	ticket.CreatedOn = created.CreatedOn
	ticket.UpdatedOn = created.UpdatedOn
	return nil
}

// CreatePaid issues a ticket that needs no payment and counts its seats as
// sold in the same transaction. The ticket is read back by its code.
// Returns service.ErrSeatsUnavailable when the event cannot seat it.
func (r *TicketRepository) CreatePaid(ctx context.Context, ticket *model.Ticket) error {
	ticket.Status = model.TicketStatusPaid

	b := database.NewBatch()
	b.Add(createTicketQuery, ticketVars(ticket))
	addSeats(b, ticket)
	if err := b.Run(ctx, r.db); err != nil {
		if strings.Contains(err.Error(), seatsUnavailable) {
			return service.ErrSeatsUnavailable
		}
		return fmt.Errorf("failed to issue ticket: %w", err)
	}

	result, err := r.db.QueryOne(ctx, `SELECT * FROM ticket WHERE code = $code LIMIT 1`, map[string]interface{}{"code": ticket.Code})
	if err != nil {
		return err
	}
	stored, err := decodeRecord[model.Ticket](result)
	if err != nil {
		return err
	}
	*ticket = *stored
	return nil
}

// GetByID retrieves a ticket
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Ticket](result)
}

// ListByUser returns a user's tickets, newest first
func (r *TicketRepository) ListByUser(ctx context.Context, userID string, page model.Page) ([]*model.Ticket, bool, error) {
	query := `
		SELECT * FROM ticket
		WHERE user_id = $user_id
		ORDER BY created_on DESC
		LIMIT $limit START $offset
	`
	vars := map[string]interface{}{"user_id": userID}
	pageVars(vars, page.Limit, page.Offset)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list tickets: %w", err)
	}
	tickets, err := decodeRecords[model.Ticket](result)
	if err != nil {
		return nil, false, err
	}
	tickets, more := trimPage(tickets, page.Limit)
	return tickets, more, nil
}

// ListAttendees returns the paid tickets of an event joined with their holders
func (r *TicketRepository) ListAttendees(ctx context.Context, eventID string) ([]*model.Attendee, error) {
	query := `
		SELECT * FROM ticket WHERE event_id = $event_id AND status = $status ORDER BY created_on;
		SELECT id, firstname, lastname, email FROM user
		WHERE <string>id IN (SELECT VALUE user_id FROM ticket WHERE event_id = $event_id AND status = $status);
	`
	vars := map[string]interface{}{
		"event_id": eventID,
		"status":   model.TicketStatusPaid,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees: %w", err)
	}

	tickets, err := decodeRecords[model.Ticket](result)
	if err != nil {
		return nil, err
	}

	holders := make(map[string]*model.User)
	for _, row := range statementRows(result, 1) {
		user, err := parseUserResult(row)
		if err != nil {
			return nil, err
		}
		holders[user.ID] = user
	}

	attendees := make([]*model.Attendee, 0, len(tickets))
	for _, t := range tickets {
		a := &model.Attendee{
			TicketID: t.ID,
			UserID:   t.UserID,
			Quantity: t.Quantity,
			Code:     t.Code,
		}
		if u, ok := holders[t.UserID]; ok {
			a.Name = u.DisplayName()
			a.Email = u.Email
		}
		attendees = append(attendees, a)
	}
	return attendees, nil
}

// HasPaidTicket reports whether the user holds a paid ticket to the event
func (r *TicketRepository) HasPaidTicket(ctx context.Context, userID, eventID string) (bool, error) {
	query := `
		SELECT count() as cnt FROM ticket
		WHERE user_id = $user_id AND event_id = $event_id AND status = $status
		GROUP ALL
	`
	vars := map[string]interface{}{
		"user_id":  userID,
		"event_id": eventID,
		"status":   model.TicketStatusPaid,
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return false, err
	}
	return extractCount(result) > 0, nil
}

// HeldSeats sums the seats of the event's tickets still waiting on payment
func (r *TicketRepository) HeldSeats(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT math::sum(quantity) AS cnt FROM ticket
		WHERE event_id = $event_id AND status = $status
		GROUP ALL
	`
	vars := map[string]interface{}{
		"event_id": eventID,
		"status":   model.TicketStatusPending,
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to count held seats: %w", err)
	}
	return extractCount(result), nil
}

// SetPayment links a ticket to its payment
func (r *TicketRepository) SetPayment(ctx context.Context, ticketID, paymentID string) error {
	query := `UPDATE type::record($id) SET payment_id = $payment_id, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":         ticketID,
		"payment_id": paymentID,
	}
	return r.db.Execute(ctx, query, vars)
}

// TransitionStatus moves a ticket from one status to another. It returns
// nil when the ticket was not in the expected status.
func (r *TicketRepository) TransitionStatus(ctx context.Context, id, from, to string) (*model.Ticket, error) {
	query := `
		UPDATE ticket SET status = $to, updated_on = time::now()
		WHERE id = type::record($id) AND status = $from
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"id":   id,
		"from": from,
		"to":   to,
	}
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord[model.Ticket](result)
}

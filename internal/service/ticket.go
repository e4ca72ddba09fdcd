package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eatmeetclub/api/internal/model"
)

// TicketRepository defines the interface for ticket storage
type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	CreatePaid(ctx context.Context, ticket *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID string, page model.Page) ([]*model.Ticket, bool, error)
	ListAttendees(ctx context.Context, eventID string) ([]*model.Attendee, error)
	HeldSeats(ctx context.Context, eventID string) (int, error)
	SetPayment(ctx context.Context, ticketID, paymentID string) error
	TransitionStatus(ctx context.Context, id, from, to string) (*model.Ticket, error)
}

// EventReader looks dining events up by id
type EventReader interface {
	GetByID(ctx context.Context, id string) (*model.DiningEvent, error)
}

// ActiveMembershipReader finds the membership discount a user is entitled to
type ActiveMembershipReader interface {
	GetActiveForUser(ctx context.Context, userID string) (*model.Membership, error)
	GetPlan(ctx context.Context, id string) (*model.MembershipPlan, error)
}

// TicketService sells seats at dining events
type TicketService struct {
	repo        TicketRepository
	events      EventReader
	restaurants RestaurantReader
	memberships ActiveMembershipReader
	users       UserReader
	payments    *PaymentService
	feed        *LiveFeed
	now         func() time.Time
}

// TicketServiceConfig holds configuration for the ticket service
type TicketServiceConfig struct {
	Repo        TicketRepository
	Events      EventReader
	Restaurants RestaurantReader
	Memberships ActiveMembershipReader
	Users       UserReader
	Payments    *PaymentService
	Feed        *LiveFeed // optional
	Now         func() time.Time
}

// NewTicketService creates a new ticket service
func NewTicketService(cfg TicketServiceConfig) *TicketService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TicketService{
		repo:        cfg.Repo,
		events:      cfg.Events,
		restaurants: cfg.Restaurants,
		memberships: cfg.Memberships,
		users:       cfg.Users,
		payments:    cfg.Payments,
		feed:        cfg.Feed,
		now:         cfg.Now,
	}
}

// PurchaseTickets reserves seats and starts the checkout for them. Free
// events (after any member discount) issue a paid ticket straight away.
func (s *TicketService) PurchaseTickets(ctx context.Context, actor Actor, eventID string, req *model.PurchaseTicketsRequest) (*model.PurchaseResult, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if !event.IsOnSale(s.now()) {
		return nil, ErrEventNotOnSale
	}
	held, err := s.repo.HeldSeats(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if remaining := max(event.RemainingSeats()-held, 0); remaining < req.Quantity {
		return nil, &SoldOutError{Remaining: remaining}
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	discount, err := s.memberDiscount(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		EventID:         event.ID,
		UserID:          actor.UserID,
		Quantity:        req.Quantity,
		UnitPrice:       event.Price,
		DiscountPercent: discount,
		Amount:          TicketAmount(event.Price, req.Quantity, discount),
		Currency:        event.Currency,
		Code:            newTicketCode(),
		Status:          model.TicketStatusPending,
	}

	if ticket.Amount == 0 {
		if err := s.repo.CreatePaid(ctx, ticket); err != nil {
			if errors.Is(err, ErrSeatsUnavailable) {
				return nil, &SoldOutError{Remaining: 0}
			}
			return nil, err
		}
		s.publish(ticket)
		return &model.PurchaseResult{Ticket: ticket}, nil
	}

	if err := s.payments.checkMethod(req.CheckoutOptions); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	payment, err := s.payments.startCheckout(ctx, checkout{
		Kind:        model.PaymentKindTicket,
		ReferenceID: ticket.ID,
		UserID:      &actor.UserID,
		Email:       user.Email,
		Amount:      ticket.Amount,
		Currency:    ticket.Currency,
		Description: fmt.Sprintf("%d x %s", ticket.Quantity, event.Title),
		Options:     req.CheckoutOptions,
	})
	if payment != nil {
		if linkErr := s.repo.SetPayment(ctx, ticket.ID, payment.ID); linkErr != nil {
			return nil, linkErr
		}
		ticket.PaymentID = &payment.ID
	}
	if err != nil {
		return nil, err
	}

	// An immediate capture has already settled the ticket
	if payment.IsSettled() {
		if stored, err := s.repo.GetByID(ctx, ticket.ID); err == nil && stored != nil {
			ticket = stored
		}
	}

	result := &model.PurchaseResult{Ticket: ticket, Payment: payment}
	if payment.AuthorizeURI != nil && !payment.IsSettled() {
		result.AuthorizeURI = *payment.AuthorizeURI
	}
	return result, nil
}

// ListMine returns the actor's tickets, newest first
func (s *TicketService) ListMine(ctx context.Context, actor Actor, page model.Page) ([]*model.Ticket, bool, error) {
	return s.repo.ListByUser(ctx, actor.UserID, page.Normalize())
}

// Get returns a ticket owned by the actor
func (s *TicketService) Get(ctx context.Context, actor Actor, id string) (*model.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket == nil || (ticket.UserID != actor.UserID && !actor.IsAdmin()) {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// Attendees returns the guest list of an event for its host
func (s *TicketService) Attendees(ctx context.Context, actor Actor, eventID string) ([]*model.Attendee, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if _, err := loadOwnedRestaurant(ctx, s.restaurants, actor, event.RestaurantID); err != nil {
		return nil, err
	}
	return s.repo.ListAttendees(ctx, eventID)
}

// Cancel abandons a pending ticket of the actor. A checkout that completes
// afterwards still settles the ticket as paid.
func (s *TicketService) Cancel(ctx context.Context, actor Actor, id string) (*model.Ticket, error) {
	ticket, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != model.TicketStatusPending {
		return nil, ErrTicketNotPending
	}

	updated, err := s.repo.TransitionStatus(ctx, id, model.TicketStatusPending, model.TicketStatusCancelled)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrTicketNotPending
	}
	s.publish(updated)
	return updated, nil
}

// memberDiscount returns the ticket discount of the user's current plan
func (s *TicketService) memberDiscount(ctx context.Context, userID string) (int, error) {
	membership, err := s.memberships.GetActiveForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if membership == nil || !membership.IsCurrent(s.now()) {
		return 0, nil
	}
	plan, err := s.memberships.GetPlan(ctx, membership.PlanID)
	if err != nil {
		return 0, err
	}
	if plan == nil {
		return 0, nil
	}
	return plan.DiscountPercent, nil
}

func (s *TicketService) publish(ticket *model.Ticket) {
	if s.feed != nil {
		s.feed.Publish(&FeedEvent{Type: FeedTicketUpdated, Data: ticket, UserID: ticket.UserID})
	}
}

// TicketAmount is the total for quantity seats after a percent discount.
// The discount is rounded down to whole minor units.
func TicketAmount(unitPrice int64, quantity, discountPercent int) int64 {
	total := unitPrice * int64(quantity)
	return total - total*int64(discountPercent)/100
}

// newTicketCode derives a short code the host can read out at the door
func newTicketCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "EMC-" + strings.ToUpper(id[:10])
}

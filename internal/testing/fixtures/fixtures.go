package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/repository"
)

// DefaultPassword is the plain-text password of every fixture user
const DefaultPassword = "testpass123"

// Factory creates test entities in the database
type Factory struct {
	users       *repository.UserRepository
	restaurants *repository.RestaurantRepository
	menu        *repository.MenuRepository
	events      *repository.DiningEventRepository
	tickets     *repository.TicketRepository
	payments    *repository.PaymentRepository
	memberships *repository.MembershipRepository
	signups     *repository.SignupRepository
	settlements *repository.SettlementRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		users:       repository.NewUserRepository(db),
		restaurants: repository.NewRestaurantRepository(db),
		menu:        repository.NewMenuRepository(db),
		events:      repository.NewDiningEventRepository(db),
		tickets:     repository.NewTicketRepository(db),
		payments:    repository.NewPaymentRepository(db),
		memberships: repository.NewMembershipRepository(db),
		signups:     repository.NewSignupRepository(db),
		settlements: repository.NewSettlementRepository(db),
	}
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email     string
	Firstname string
	Lastname  string
	Password  string
	Role      model.UserRole
}

// CreateUser creates a user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:     fmt.Sprintf("diner_%s@test.local", randomID()),
		Firstname: "Test",
		Lastname:  "Diner",
		Password:  DefaultPassword,
		Role:      model.UserRoleMember,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	hashed := string(hash)

	user := &model.User{
		Email:     strings.ToLower(o.Email),
		Hash:      &hashed,
		Firstname: o.Firstname,
		Lastname:  o.Lastname,
		Role:      o.Role,
	}
	if err := f.users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}
	user.Hash = nil
	return user
}

// CreateRestaurantOwner creates a user with the restaurant role
func (f *Factory) CreateRestaurantOwner(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleRestaurant
		o.Lastname = "Host"
	})
}

// CreateAdmin creates an admin user
func (f *Factory) CreateAdmin(t *testing.T) *model.User {
	return f.CreateUser(t, func(o *UserOpts) {
		o.Role = model.UserRoleAdmin
		o.Lastname = "Admin"
	})
}

// ============================================================================
// Restaurant Fixtures
// ============================================================================

// RestaurantOpts customizes restaurant creation
type RestaurantOpts struct {
	Name    string
	Cuisine string
	City    string
	Status  string
}

// CreateRestaurant creates an active restaurant owned by owner
func (f *Factory) CreateRestaurant(t *testing.T, owner *model.User, opts ...func(*RestaurantOpts)) *model.Restaurant {
	t.Helper()

	o := &RestaurantOpts{
		Name:    "Kitchen " + randomID(),
		Cuisine: "thai",
		City:    "Bangkok",
		Status:  model.RestaurantStatusActive,
	}
	for _, fn := range opts {
		fn(o)
	}

	r := &model.Restaurant{
		OwnerID: owner.ID,
		Name:    o.Name,
		Cuisine: o.Cuisine,
		Address: "1 Sukhumvit Rd",
		City:    o.City,
		Status:  o.Status,
	}
	if err := f.restaurants.Create(ctx(t), r); err != nil {
		t.Fatalf("fixtures: failed to create restaurant: %v", err)
	}
	return r
}

// CreateMenuItem adds an available dish to the restaurant's menu
func (f *Factory) CreateMenuItem(t *testing.T, r *model.Restaurant, name string, price int64) *model.MenuItem {
	t.Helper()

	item := &model.MenuItem{
		RestaurantID: r.ID,
		Name:         name,
		Price:        price,
		Category:     "main",
		DietaryTags:  []string{},
		Available:    true,
	}
	if err := f.menu.Create(ctx(t), item); err != nil {
		t.Fatalf("fixtures: failed to create menu item: %v", err)
	}
	return item
}

// ============================================================================
// Dining Event Fixtures
// ============================================================================

// EventOpts customizes event creation
type EventOpts struct {
	Title    string
	Start    time.Time
	Duration time.Duration
	Price    int64
	Currency string
	Capacity int
	Status   string
}

// CreateEvent creates a dining event at r. It is a draft unless opts say otherwise.
func (f *Factory) CreateEvent(t *testing.T, r *model.Restaurant, opts ...func(*EventOpts)) *model.DiningEvent {
	t.Helper()

	o := &EventOpts{
		Title:    "Supper club " + randomID(),
		Start:    time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second),
		Duration: 3 * time.Hour,
		Price:    150000,
		Currency: "thb",
		Capacity: 12,
		Status:   model.EventStatusDraft,
	}
	for _, fn := range opts {
		fn(o)
	}

	ev := &model.DiningEvent{
		RestaurantID: r.ID,
		City:         r.City,
		Title:        o.Title,
		StartTime:    o.Start,
		EndTime:      o.Start.Add(o.Duration),
		Price:        o.Price,
		Currency:     o.Currency,
		Capacity:     o.Capacity,
		MenuItemIDs:  []string{},
		Status:       o.Status,
		CreatedBy:    r.OwnerID,
	}
	if err := f.events.Create(ctx(t), ev); err != nil {
		t.Fatalf("fixtures: failed to create event: %v", err)
	}
	return ev
}

// CreatePublishedEvent creates an event that is on sale
func (f *Factory) CreatePublishedEvent(t *testing.T, r *model.Restaurant, opts ...func(*EventOpts)) *model.DiningEvent {
	return f.CreateEvent(t, r, append([]func(*EventOpts){func(o *EventOpts) {
		o.Status = model.EventStatusPublished
	}}, opts...)...)
}

// ============================================================================
// Ticket and Payment Fixtures
// ============================================================================

// CreatePendingTicket creates a pending ticket for quantity seats along with
// the pending payment that will settle it.
func (f *Factory) CreatePendingTicket(t *testing.T, ev *model.DiningEvent, user *model.User, quantity int) (*model.Ticket, *model.Payment) {
	t.Helper()

	ticket := &model.Ticket{
		EventID:   ev.ID,
		UserID:    user.ID,
		Quantity:  quantity,
		UnitPrice: ev.Price,
		Amount:    ev.Price * int64(quantity),
		Currency:  ev.Currency,
		Code:      strings.ToUpper(randomID()),
		Status:    model.TicketStatusPending,
	}
	if err := f.tickets.Create(ctx(t), ticket); err != nil {
		t.Fatalf("fixtures: failed to create ticket: %v", err)
	}

	payment := f.CreatePendingPayment(t, model.PaymentKindTicket, ticket.ID, user.Email, &user.ID, ticket.Amount)
	if err := f.tickets.SetPayment(ctx(t), ticket.ID, payment.ID); err != nil {
		t.Fatalf("fixtures: failed to link payment: %v", err)
	}
	ticket.PaymentID = &payment.ID
	return ticket, payment
}

// ============================================================================
// Membership Fixtures
// ============================================================================

// CreatePlan creates an active monthly plan with the given ticket discount
func (f *Factory) CreatePlan(t *testing.T, discountPercent int) *model.MembershipPlan {
	t.Helper()

	plan := &model.MembershipPlan{
		Name:            "Regular " + randomID(),
		Price:           49900,
		Currency:        "thb",
		Interval:        model.PlanIntervalMonth,
		DiscountPercent: discountPercent,
		Active:          true,
	}
	if err := f.memberships.CreatePlan(ctx(t), plan); err != nil {
		t.Fatalf("fixtures: failed to create plan: %v", err)
	}
	return plan
}

// CreatePendingMembership creates a membership awaiting its first payment
func (f *Factory) CreatePendingMembership(t *testing.T, user *model.User, plan *model.MembershipPlan) *model.Membership {
	t.Helper()

	m := &model.Membership{
		UserID: user.ID,
		PlanID: plan.ID,
		Status: model.MembershipStatusPending,
	}
	if err := f.memberships.Create(ctx(t), m); err != nil {
		t.Fatalf("fixtures: failed to create membership: %v", err)
	}
	return m
}

// CreateActiveMembership creates a membership paid for and running from
// start until end
func (f *Factory) CreateActiveMembership(t *testing.T, user *model.User, plan *model.MembershipPlan, start, end time.Time) *model.Membership {
	t.Helper()

	m := f.CreatePendingMembership(t, user, plan)
	payment := f.CreatePendingPayment(t, model.PaymentKindMembership, m.ID, user.Email, &user.ID, plan.Price)
	if err := f.settlements.SettleMembership(ctx(t), payment.ID, m, start, end); err != nil {
		t.Fatalf("fixtures: failed to settle membership: %v", err)
	}

	active, err := f.memberships.GetByID(ctx(t), m.ID)
	if err != nil {
		t.Fatalf("fixtures: failed to reload membership: %v", err)
	}
	return active
}

// ============================================================================
// Payment and Signup Fixtures
// ============================================================================

// CreatePendingPayment records a pending payment for the referenced record
func (f *Factory) CreatePendingPayment(t *testing.T, kind model.PaymentKind, referenceID, email string, userID *string, amount int64) *model.Payment {
	t.Helper()

	payment := &model.Payment{
		UserID:      userID,
		Email:       email,
		Kind:        kind,
		ReferenceID: referenceID,
		Amount:      amount,
		Currency:    "thb",
		Status:      model.PaymentStatusPending,
	}
	if err := f.payments.Create(ctx(t), payment); err != nil {
		t.Fatalf("fixtures: failed to create payment: %v", err)
	}
	return payment
}

// CreateSignupIntent creates a signup waiting on its payment
func (f *Factory) CreateSignupIntent(t *testing.T, plan *model.MembershipPlan) *model.SignupIntent {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}

	intent := &model.SignupIntent{
		Email:     fmt.Sprintf("joiner_%s@test.local", randomID()),
		Firstname: "New",
		Lastname:  "Member",
		Hash:      string(hash),
		PlanID:    plan.ID,
		Step:      model.SignupStepPayment,
	}
	if err := f.signups.Create(ctx(t), intent); err != nil {
		t.Fatalf("fixtures: failed to create signup intent: %v", err)
	}
	return intent
}

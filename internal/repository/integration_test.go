package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/repository"
	"github.com/eatmeetclub/api/internal/service"
	"github.com/eatmeetclub/api/internal/testing/fixtures"
	"github.com/eatmeetclub/api/internal/testing/helpers"
	"github.com/eatmeetclub/api/internal/testing/testdb"
)

// These tests run against a real SurrealDB with migrations applied and skip
// when none is reachable:
//
//	surreal start memory -A --user root --pass root
//	go test ./internal/repository/...

// ============================================================================
// Users
// ============================================================================

func TestUserRepository_DuplicateEmail(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	existing := f.CreateUser(t)

	repo := repository.NewUserRepository(tdb.DB)
	err := repo.Create(tdb.Ctx(), &model.User{Email: existing.Email, Firstname: "Again"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrDuplicate))
}

func TestUserRepository_SetRole(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	user := fixtures.New(tdb.DB).CreateUser(t)
	repo := repository.NewUserRepository(tdb.DB)

	require.NoError(t, repo.SetRole(tdb.Ctx(), user.ID, model.UserRoleRestaurant))

	got, err := repo.GetByID(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleRestaurant, got.Role)
}

// ============================================================================
// Discovery
// ============================================================================

func TestDiningEventRepository_DiscoveryHidesDraftsAndPast(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	published := f.CreatePublishedEvent(t, r)
	f.CreateEvent(t, r) // draft
	f.CreatePublishedEvent(t, r, func(o *fixtures.EventOpts) {
		o.Start = time.Now().Add(-48 * time.Hour).UTC()
	})

	repo := repository.NewDiningEventRepository(tdb.DB)
	events, _, err := repo.List(tdb.Ctx(), model.DiningEventFilter{
		City: "bangkok",
		Page: model.Page{Limit: 20},
	}, time.Now())
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, published.ID, events[0].ID)
}

func TestDiningEventRepository_CompleteFinished(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	past := f.CreatePublishedEvent(t, r, func(o *fixtures.EventOpts) {
		o.Start = time.Now().Add(-6 * time.Hour).UTC()
		o.Duration = 2 * time.Hour
	})
	upcoming := f.CreatePublishedEvent(t, r)

	repo := repository.NewDiningEventRepository(tdb.DB)
	n, err := repo.CompleteFinished(tdb.Ctx(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(tdb.Ctx(), past.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusCompleted, got.Status)

	got, err = repo.GetByID(tdb.Ctx(), upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusPublished, got.Status)
}

// ============================================================================
// Settlement
// ============================================================================

func TestSettlementRepository_SettleTicket(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	ev := f.CreatePublishedEvent(t, r)
	ticket, payment := f.CreatePendingTicket(t, ev, f.CreateUser(t), 2)

	settlements := repository.NewSettlementRepository(tdb.DB)
	require.NoError(t, settlements.SettleTicket(tdb.Ctx(), payment.ID, ticket))

	gotTicket, err := repository.NewTicketRepository(tdb.DB).GetByID(tdb.Ctx(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusPaid, gotTicket.Status)

	gotEvent, err := repository.NewDiningEventRepository(tdb.DB).GetByID(tdb.Ctx(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotEvent.SeatsSold)

	gotPayment, err := repository.NewPaymentRepository(tdb.DB).GetByID(tdb.Ctx(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccessful, gotPayment.Status)
	assert.NotNil(t, gotPayment.PaidOn)
}

func TestSettlementRepository_SecondSettleRejected(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	ev := f.CreatePublishedEvent(t, r)
	ticket, payment := f.CreatePendingTicket(t, ev, f.CreateUser(t), 1)

	settlements := repository.NewSettlementRepository(tdb.DB)
	require.NoError(t, settlements.SettleTicket(tdb.Ctx(), payment.ID, ticket))

	err := settlements.SettleTicket(tdb.Ctx(), payment.ID, ticket)
	assert.ErrorIs(t, err, service.ErrPaymentAlreadySettled)

	gotEvent, err := repository.NewDiningEventRepository(tdb.DB).GetByID(tdb.Ctx(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotEvent.SeatsSold, "seats are counted once")
}

func TestSettlementRepository_FailReleasesTicket(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	ev := f.CreatePublishedEvent(t, r)
	ticket, payment := f.CreatePendingTicket(t, ev, f.CreateUser(t), 1)

	settlements := repository.NewSettlementRepository(tdb.DB)
	require.NoError(t, settlements.Fail(tdb.Ctx(), payment, model.PaymentStatusFailed, "card declined"))

	gotTicket, err := repository.NewTicketRepository(tdb.DB).GetByID(tdb.Ctx(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusCancelled, gotTicket.Status)

	gotPayment, err := repository.NewPaymentRepository(tdb.DB).GetByID(tdb.Ctx(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, gotPayment.Status)
	require.NotNil(t, gotPayment.FailureMessage)
	assert.Equal(t, "card declined", *gotPayment.FailureMessage)
}

func TestSettlementRepository_SettleMembership(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	user := f.CreateUser(t)
	plan := f.CreatePlan(t, 10)
	m := f.CreatePendingMembership(t, user, plan)

	payment := &model.Payment{
		UserID:      &user.ID,
		Email:       user.Email,
		Kind:        model.PaymentKindMembership,
		ReferenceID: m.ID,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Status:      model.PaymentStatusPending,
	}
	require.NoError(t, repository.NewPaymentRepository(tdb.DB).Create(tdb.Ctx(), payment))

	start := time.Now().UTC().Truncate(time.Second)
	end := plan.PeriodEnd(start)
	require.NoError(t, repository.NewSettlementRepository(tdb.DB).SettleMembership(tdb.Ctx(), payment.ID, m, start, end))

	active, err := repository.NewMembershipRepository(tdb.DB).GetActiveForUser(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, m.ID, active.ID)
	assert.True(t, active.IsCurrent(time.Now()))
}

func TestSettlementRepository_SettleTicket_SoldOutChangesNothing(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	ev := f.CreatePublishedEvent(t, r, func(o *fixtures.EventOpts) { o.Capacity = 3 })
	first, firstPayment := f.CreatePendingTicket(t, ev, f.CreateUser(t), 2)
	second, secondPayment := f.CreatePendingTicket(t, ev, f.CreateUser(t), 2)

	tickets := repository.NewTicketRepository(tdb.DB)
	held, err := tickets.HeldSeats(tdb.Ctx(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, held)

	settlements := repository.NewSettlementRepository(tdb.DB)
	require.NoError(t, settlements.SettleTicket(tdb.Ctx(), firstPayment.ID, first))

	err = settlements.SettleTicket(tdb.Ctx(), secondPayment.ID, second)
	assert.ErrorIs(t, err, service.ErrSeatsUnavailable)

	gotEvent, err := repository.NewDiningEventRepository(tdb.DB).GetByID(tdb.Ctx(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotEvent.SeatsSold)

	payments := repository.NewPaymentRepository(tdb.DB)
	gotPayment, err := payments.GetByID(tdb.Ctx(), secondPayment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, gotPayment.Status)

	require.NoError(t, settlements.Fail(tdb.Ctx(), secondPayment, model.PaymentStatusRefunded, "sold out"))

	gotPayment, err = payments.GetByID(tdb.Ctx(), secondPayment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, gotPayment.Status)

	gotTicket, err := tickets.GetByID(tdb.Ctx(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusRefunded, gotTicket.Status)

	held, err = tickets.HeldSeats(tdb.Ctx(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, held)
}

func TestTicketRepository_CreatePaid_RespectsCapacity(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	ev := f.CreatePublishedEvent(t, r, func(o *fixtures.EventOpts) {
		o.Price = 0
		o.Capacity = 2
	})
	user := f.CreateUser(t)

	tickets := repository.NewTicketRepository(tdb.DB)
	err := tickets.CreatePaid(tdb.Ctx(), &model.Ticket{
		EventID: ev.ID, UserID: user.ID, Quantity: 3, Currency: "thb", Code: "EMC-FULL",
	})
	assert.ErrorIs(t, err, service.ErrSeatsUnavailable)

	ticket := &model.Ticket{EventID: ev.ID, UserID: user.ID, Quantity: 2, Currency: "thb", Code: "EMC-FITS"}
	require.NoError(t, tickets.CreatePaid(tdb.Ctx(), ticket))
	assert.Equal(t, model.TicketStatusPaid, ticket.Status)

	gotEvent, err := repository.NewDiningEventRepository(tdb.DB).GetByID(tdb.Ctx(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotEvent.SeatsSold)
}

func TestSettlementRepository_SettleMembership_RejectsSecondActive(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	user := f.CreateUser(t)
	plan := f.CreatePlan(t, 10)
	now := time.Now().UTC().Truncate(time.Second)
	f.CreateActiveMembership(t, user, plan, now.Add(-24*time.Hour), now.Add(10*24*time.Hour))

	m := f.CreatePendingMembership(t, user, plan)
	payment := f.CreatePendingPayment(t, model.PaymentKindMembership, m.ID, user.Email, &user.ID, plan.Price)

	err := repository.NewSettlementRepository(tdb.DB).SettleMembership(tdb.Ctx(), payment.ID, m, now, plan.PeriodEnd(now))
	assert.ErrorIs(t, err, service.ErrMembershipChanged)

	gotPayment, err := repository.NewPaymentRepository(tdb.DB).GetByID(tdb.Ctx(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, gotPayment.Status)
}

func TestSettlementRepository_ExtendMembership(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	user := f.CreateUser(t)
	plan := f.CreatePlan(t, 10)
	upgrade := f.CreatePlan(t, 20)
	now := time.Now().UTC().Truncate(time.Second)
	current := f.CreateActiveMembership(t, user, plan, now.Add(-24*time.Hour), now.Add(10*24*time.Hour))

	pending := f.CreatePendingMembership(t, user, upgrade)
	payment := f.CreatePendingPayment(t, model.PaymentKindMembership, pending.ID, user.Email, &user.ID, upgrade.Price)

	settlements := repository.NewSettlementRepository(tdb.DB)

	t.Run("stale read is rejected", func(t *testing.T) {
		stale := *current
		seen := current.CurrentPeriodEnd.Add(-time.Hour)
		stale.CurrentPeriodEnd = &seen
		err := settlements.ExtendMembership(tdb.Ctx(), payment.ID, pending, &stale, now)
		assert.ErrorIs(t, err, service.ErrMembershipChanged)
	})

	end := upgrade.PeriodEnd(*current.CurrentPeriodEnd)
	require.NoError(t, settlements.ExtendMembership(tdb.Ctx(), payment.ID, pending, current, end))

	memberships := repository.NewMembershipRepository(tdb.DB)
	active, err := memberships.GetActiveForUser(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, current.ID, active.ID)
	assert.Equal(t, upgrade.ID, active.PlanID)
	assert.True(t, end.Equal(*active.CurrentPeriodEnd))

	all, err := memberships.ListByUser(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	activeCount := 0
	for _, m := range all {
		if m.Status == model.MembershipStatusActive {
			activeCount++
		}
		if m.ID == pending.ID {
			assert.Equal(t, model.MembershipStatusCancelled, m.Status)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestSettlementRepository_SettleSignup(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	plan := f.CreatePlan(t, 10)
	intent := f.CreateSignupIntent(t, plan)
	payment := f.CreatePendingPayment(t, model.PaymentKindSignup, intent.ID, intent.Email, nil, plan.Price)

	start := time.Now().UTC().Truncate(time.Second)
	settlements := repository.NewSettlementRepository(tdb.DB)
	require.NoError(t, settlements.SettleSignup(tdb.Ctx(), payment.ID, intent, start, plan.PeriodEnd(start)))

	user, err := repository.NewUserRepository(tdb.DB).GetByEmail(tdb.Ctx(), intent.Email)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, model.UserRoleMember, user.Role)

	active, err := repository.NewMembershipRepository(tdb.DB).GetActiveForUser(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, plan.ID, active.PlanID)

	gotIntent, err := repository.NewSignupRepository(tdb.DB).GetByID(tdb.Ctx(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SignupStepComplete, gotIntent.Step)
	require.NotNil(t, gotIntent.UserID)
	assert.Equal(t, user.ID, *gotIntent.UserID)

	gotPayment, err := repository.NewPaymentRepository(tdb.DB).GetByID(tdb.Ctx(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSuccessful, gotPayment.Status)
	require.NotNil(t, gotPayment.UserID)
	assert.Equal(t, user.ID, *gotPayment.UserID)
}

func TestSettlementRepository_SettleSignup_EmailTakenChangesNothing(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	plan := f.CreatePlan(t, 10)
	intent := f.CreateSignupIntent(t, plan)
	f.CreateUser(t, func(o *fixtures.UserOpts) { o.Email = intent.Email })
	payment := f.CreatePendingPayment(t, model.PaymentKindSignup, intent.ID, intent.Email, nil, plan.Price)

	start := time.Now().UTC()
	err := repository.NewSettlementRepository(tdb.DB).SettleSignup(tdb.Ctx(), payment.ID, intent, start, plan.PeriodEnd(start))
	assert.ErrorIs(t, err, database.ErrDuplicate)

	gotPayment, err := repository.NewPaymentRepository(tdb.DB).GetByID(tdb.Ctx(), payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, gotPayment.Status)
}

func TestSettlementRepository_FailReleasesSignupAndMembership(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	plan := f.CreatePlan(t, 10)
	settlements := repository.NewSettlementRepository(tdb.DB)

	t.Run("signup", func(t *testing.T) {
		intent := f.CreateSignupIntent(t, plan)
		payment := f.CreatePendingPayment(t, model.PaymentKindSignup, intent.ID, intent.Email, nil, plan.Price)

		require.NoError(t, settlements.Fail(tdb.Ctx(), payment, model.PaymentStatusExpired, "checkout expired"))

		got, err := repository.NewSignupRepository(tdb.DB).GetByID(tdb.Ctx(), intent.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SignupStepFailed, got.Step)
		assert.True(t, got.CanRetry())
		require.NotNil(t, got.FailureMessage)
		assert.Equal(t, "checkout expired", *got.FailureMessage)
		require.NotNil(t, got.PaymentID)
		assert.Equal(t, payment.ID, *got.PaymentID)
	})

	t.Run("membership", func(t *testing.T) {
		user := f.CreateUser(t)
		m := f.CreatePendingMembership(t, user, plan)
		payment := f.CreatePendingPayment(t, model.PaymentKindMembership, m.ID, user.Email, &user.ID, plan.Price)

		require.NoError(t, settlements.Fail(tdb.Ctx(), payment, model.PaymentStatusFailed, "card declined"))

		got, err := repository.NewMembershipRepository(tdb.DB).GetByID(tdb.Ctx(), m.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MembershipStatusCancelled, got.Status)

		err = settlements.Fail(tdb.Ctx(), payment, model.PaymentStatusFailed, "again")
		assert.ErrorIs(t, err, service.ErrPaymentAlreadySettled)
	})
}

// ============================================================================
// Billing
// ============================================================================

func TestPaymentRepository_ListSuccessful_Bounds(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	ev := f.CreatePublishedEvent(t, r)
	settlements := repository.NewSettlementRepository(tdb.DB)

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	paidOn := []time.Time{day.Add(-time.Second), day, day.Add(36 * time.Hour), day.AddDate(0, 1, 0)}
	ids := make([]string, len(paidOn))
	for i, at := range paidOn {
		ticket, payment := f.CreatePendingTicket(t, ev, f.CreateUser(t), 1)
		require.NoError(t, settlements.SettleTicket(tdb.Ctx(), payment.ID, ticket))
		tdb.MustExec(`UPDATE type::record($id) SET paid_on = <datetime>$at`, map[string]interface{}{
			"id": payment.ID,
			"at": at.Format(time.RFC3339Nano),
		})
		ids[i] = payment.ID
	}
	// a pending payment is never listed
	f.CreatePendingTicket(t, ev, f.CreateUser(t), 1)

	listed := func(from, to *time.Time) []string {
		got, err := repository.NewPaymentRepository(tdb.DB).ListSuccessful(tdb.Ctx(), from, to)
		require.NoError(t, err)
		out := make([]string, 0, len(got))
		for _, p := range got {
			out = append(out, p.ID)
		}
		return out
	}

	from := day
	to := day.AddDate(0, 1, 0)
	assert.Equal(t, ids, listed(nil, nil))
	assert.Equal(t, ids[1:3], listed(&from, &to), "from is inclusive and to exclusive")
	assert.Equal(t, ids[1:], listed(&from, nil))
	assert.Equal(t, ids[:3], listed(nil, &to))
}

// ============================================================================
// Menu
// ============================================================================

func TestMenuRepository_ListByRestaurant_OrdersByCategoryThenName(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	f := fixtures.New(tdb.DB)
	r := f.CreateRestaurant(t, f.CreateRestaurantOwner(t))
	menu := repository.NewMenuRepository(tdb.DB)

	for _, item := range []struct {
		name, category string
		available      bool
	}{
		{"Tom Yum", "soup", true},
		{"Mango Sticky Rice", "dessert", true},
		{"Green Curry", "main", true},
		{"Coconut Ice Cream", "dessert", false},
		{"Basil Pork", "main", true},
	} {
		require.NoError(t, menu.Create(tdb.Ctx(), &model.MenuItem{
			RestaurantID: r.ID,
			Name:         item.name,
			Price:        12000,
			Category:     item.category,
			DietaryTags:  []string{},
			Available:    item.available,
		}))
	}

	names := func(availableOnly bool) []string {
		items, err := menu.ListByRestaurant(tdb.Ctx(), r.ID, availableOnly)
		require.NoError(t, err)
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Coconut Ice Cream", "Mango Sticky Rice", "Basil Pork", "Green Curry", "Tom Yum"}, names(false))
	assert.Equal(t, []string{"Mango Sticky Rice", "Basil Pork", "Green Curry", "Tom Yum"}, names(true))
}

// ============================================================================
// Feature flags
// ============================================================================

func TestFlagRepository_Toggle(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	repo := repository.NewFlagRepository(tdb.DB)
	require.NoError(t, repo.Create(tdb.Ctx(), &model.FeatureFlag{
		Key:         "memories",
		Enabled:     false,
		Description: helpers.StringPtr("post-dinner photo wall"),
	}))

	flag, err := repo.Toggle(tdb.Ctx(), "memories")
	require.NoError(t, err)
	assert.True(t, flag.Enabled)

	err = repo.Create(tdb.Ctx(), &model.FeatureFlag{Key: "memories"})
	assert.True(t, errors.Is(err, database.ErrDuplicate))
}

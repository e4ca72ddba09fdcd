package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/model"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockDiningEventRepo struct {
	events  map[string]*model.DiningEvent
	updates map[string]interface{}
}

func newMockDiningEventRepo(events ...*model.DiningEvent) *mockDiningEventRepo {
	m := &mockDiningEventRepo{events: make(map[string]*model.DiningEvent)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *mockDiningEventRepo) Create(ctx context.Context, event *model.DiningEvent) error {
	event.ID = "dining_event:new"
	m.events[event.ID] = event
	return nil
}

func (m *mockDiningEventRepo) GetByID(ctx context.Context, id string) (*model.DiningEvent, error) {
	if e, ok := m.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *mockDiningEventRepo) List(ctx context.Context, filter model.DiningEventFilter, now time.Time) ([]*model.DiningEvent, bool, error) {
	var out []*model.DiningEvent
	for _, e := range m.events {
		if filter.IncludeAll || e.IsOnSale(now) {
			out = append(out, e)
		}
	}
	return out, false, nil
}

func (m *mockDiningEventRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.DiningEvent, error) {
	m.updates = updates
	e := m.events[id]
	if e == nil {
		return nil, nil
	}
	if v, ok := updates["status"].(string); ok {
		e.Status = v
	}
	if v, ok := updates["capacity"].(int); ok {
		e.Capacity = v
	}
	cp := *e
	return &cp, nil
}

func (m *mockDiningEventRepo) CountUpcomingPublished(ctx context.Context, restaurantID string, now time.Time) (int, error) {
	n := 0
	for _, e := range m.events {
		if e.RestaurantID == restaurantID && e.IsOnSale(now) {
			n++
		}
	}
	return n, nil
}

func (m *mockDiningEventRepo) CompleteFinished(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type mockMenuLookup struct{ known map[string]bool }

func (m mockMenuLookup) CountInRestaurant(ctx context.Context, restaurantID string, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if m.known[id] {
			n++
		}
	}
	return n, nil
}

func setupDiningEventService(t *testing.T, events ...*model.DiningEvent) (*DiningEventService, *mockDiningEventRepo, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	store.restaurants["restaurant:1"] = &model.Restaurant{ID: "restaurant:1", OwnerID: "user:owner", City: "Chiang Mai", Status: model.RestaurantStatusActive}
	repo := newMockDiningEventRepo(events...)
	svc := NewDiningEventService(DiningEventServiceConfig{
		Repo:        repo,
		Restaurants: fakeRestaurants{store},
		Menu:        mockMenuLookup{known: map[string]bool{"menu_item:1": true, "menu_item:2": true}},
		Now:         func() time.Time { return testNow },
	})
	return svc, repo, store
}

func validEventRequest() *model.CreateDiningEventRequest {
	return &model.CreateDiningEventRequest{
		Title:       "  Northern Thai Supper  ",
		StartTime:   testNow.Add(72 * time.Hour),
		EndTime:     testNow.Add(75 * time.Hour),
		Price:       120000,
		Capacity:    12,
		MenuItemIDs: []string{"menu_item:1", "menu_item:2", "menu_item:1"},
	}
}

func draftEvent() *model.DiningEvent {
	return &model.DiningEvent{
		ID: "dining_event:1", RestaurantID: "restaurant:1", Status: model.EventStatusDraft,
		StartTime: testNow.Add(24 * time.Hour), EndTime: testNow.Add(27 * time.Hour), Capacity: 10,
	}
}

var host = Actor{UserID: "user:owner", Role: model.UserRoleRestaurant}

// ============================================================================
// Tests
// ============================================================================

func TestDiningEventService_Create_Draft(t *testing.T) {
	t.Parallel()
	svc, _, _ := setupDiningEventService(t)

	event, err := svc.Create(context.Background(), host, "restaurant:1", validEventRequest())
	require.NoError(t, err)

	assert.Equal(t, model.EventStatusDraft, event.Status)
	assert.Equal(t, "Northern Thai Supper", event.Title)
	assert.Equal(t, "Chiang Mai", event.City)
	assert.Equal(t, "thb", event.Currency)
	assert.Equal(t, []string{"menu_item:1", "menu_item:2"}, event.MenuItemIDs)
}

func TestDiningEventService_Create_Rules(t *testing.T) {
	t.Parallel()
	svc, _, store := setupDiningEventService(t)

	_, err := svc.Create(context.Background(), Actor{UserID: "user:other", Role: model.UserRoleRestaurant}, "restaurant:1", validEventRequest())
	assert.ErrorIs(t, err, ErrNotOwner)

	past := validEventRequest()
	past.StartTime = testNow.Add(-time.Hour)
	past.EndTime = testNow.Add(time.Hour)
	_, err = svc.Create(context.Background(), host, "restaurant:1", past)
	assert.ErrorIs(t, err, ErrEventInPast)

	foreign := validEventRequest()
	foreign.MenuItemIDs = []string{"menu_item:elsewhere"}
	_, err = svc.Create(context.Background(), host, "restaurant:1", foreign)
	assert.ErrorIs(t, err, ErrMenuItemNotInMenu)

	store.restaurants["restaurant:1"].Status = model.RestaurantStatusInactive
	_, err = svc.Create(context.Background(), host, "restaurant:1", validEventRequest())
	assert.ErrorIs(t, err, ErrRestaurantInactive)
}

func TestDiningEventService_Get_DraftVisibility(t *testing.T) {
	t.Parallel()
	svc, _, _ := setupDiningEventService(t, draftEvent())

	_, err := svc.Get(context.Background(), nil, "dining_event:1")
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = svc.Get(context.Background(), &Actor{UserID: "user:1"}, "dining_event:1")
	assert.ErrorIs(t, err, ErrEventNotFound)

	event, err := svc.Get(context.Background(), &host, "dining_event:1")
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusDraft, event.Status)
}

func TestDiningEventService_PublishAndCancel(t *testing.T) {
	t.Parallel()
	svc, _, _ := setupDiningEventService(t, draftEvent())

	published, err := svc.Publish(context.Background(), host, "dining_event:1")
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusPublished, published.Status)

	_, err = svc.Publish(context.Background(), host, "dining_event:1")
	assert.ErrorIs(t, err, ErrEventNotDraft)

	cancelled, err := svc.Cancel(context.Background(), host, "dining_event:1")
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), host, "dining_event:1")
	assert.ErrorIs(t, err, ErrEventCancelled)
}

func TestDiningEventService_Update_CapacityBelowSold(t *testing.T) {
	t.Parallel()
	e := draftEvent()
	e.Status = model.EventStatusPublished
	e.SeatsSold = 6
	svc, repo, _ := setupDiningEventService(t, e)

	small := 5
	_, err := svc.Update(context.Background(), host, "dining_event:1", &model.UpdateDiningEventRequest{Capacity: &small})
	assert.ErrorIs(t, err, ErrCapacityTooSmall)

	enough := 6
	updated, err := svc.Update(context.Background(), host, "dining_event:1", &model.UpdateDiningEventRequest{Capacity: &enough})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Capacity)
	assert.Equal(t, map[string]interface{}{"capacity": 6}, repo.updates)
}

func TestDiningEventService_Update_CompletedLocked(t *testing.T) {
	t.Parallel()
	e := draftEvent()
	e.Status = model.EventStatusCompleted
	svc, _, _ := setupDiningEventService(t, e)

	title := "New title"
	_, err := svc.Update(context.Background(), host, "dining_event:1", &model.UpdateDiningEventRequest{Title: &title})
	assert.ErrorIs(t, err, ErrEventCompleted)
}

func TestDiningEventService_Discover_OnlyOnSale(t *testing.T) {
	t.Parallel()
	published := draftEvent()
	published.ID = "dining_event:2"
	published.Status = model.EventStatusPublished
	svc, _, _ := setupDiningEventService(t, draftEvent(), published)

	list, _, err := svc.Discover(context.Background(), model.DiningEventFilter{IncludeAll: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dining_event:2", list[0].ID)
}

// ============================================================================
// RestaurantService
// ============================================================================

func TestRestaurantService_Delete_RefusesWithUpcomingEvents(t *testing.T) {
	t.Parallel()
	e := draftEvent()
	e.Status = model.EventStatusPublished
	events := newMockDiningEventRepo(e)

	store := newFakeStore()
	repo := &stubRestaurantRepo{restaurants: map[string]*model.Restaurant{
		"restaurant:1": {ID: "restaurant:1", OwnerID: "user:owner"},
	}}
	svc := NewRestaurantService(RestaurantServiceConfig{
		Repo:     repo,
		UserRepo: store.users,
		Events:   events,
		Now:      func() time.Time { return testNow },
	})

	assert.ErrorIs(t, svc.Delete(context.Background(), host, "restaurant:1"), ErrRestaurantHasEvents)

	events.events["dining_event:1"].Status = model.EventStatusCancelled
	require.NoError(t, svc.Delete(context.Background(), host, "restaurant:1"))
	assert.Empty(t, repo.restaurants)
}

func TestRestaurantService_Create_OnBehalfOfOwner(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.users.add(&model.User{ID: "user:chef", Email: "chef@example.com", Role: model.UserRoleRestaurant})
	store.users.add(&model.User{ID: "user:diner", Email: "diner@example.com", Role: model.UserRoleMember})
	repo := &stubRestaurantRepo{restaurants: map[string]*model.Restaurant{}}
	svc := NewRestaurantService(RestaurantServiceConfig{Repo: repo, UserRepo: store.users})

	req := &model.CreateRestaurantRequest{Name: "Baan", Cuisine: "Thai", Address: "1 Nimman", City: "Chiang Mai", OwnerID: strPtr("user:chef")}

	_, err := svc.Create(context.Background(), host, req)
	assert.ErrorIs(t, err, ErrForbidden)

	created, err := svc.Create(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "user:chef", created.OwnerID)

	req.OwnerID = strPtr("user:diner")
	_, err = svc.Create(context.Background(), admin, req)
	assert.ErrorIs(t, err, ErrOwnerMustBeRestaurant)
}

type stubRestaurantRepo struct {
	restaurants map[string]*model.Restaurant
}

func (s *stubRestaurantRepo) Create(ctx context.Context, r *model.Restaurant) error {
	r.ID = "restaurant:" + r.Name
	s.restaurants[r.ID] = r
	return nil
}

func (s *stubRestaurantRepo) GetByID(ctx context.Context, id string) (*model.Restaurant, error) {
	return s.restaurants[id], nil
}

func (s *stubRestaurantRepo) List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, bool, error) {
	return nil, false, nil
}

func (s *stubRestaurantRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Restaurant, error) {
	return s.restaurants[id], nil
}

func (s *stubRestaurantRepo) Delete(ctx context.Context, id string) error {
	delete(s.restaurants, id)
	return nil
}

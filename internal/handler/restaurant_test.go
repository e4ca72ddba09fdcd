package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eatmeetclub/api/internal/model"
	"github.com/eatmeetclub/api/internal/service"
)

type mockRestaurantService struct {
	lastFilter model.RestaurantFilter
	deleteErr  error
}

func (m *mockRestaurantService) Create(ctx context.Context, actor service.Actor, req *model.CreateRestaurantRequest) (*model.Restaurant, error) {
	return &model.Restaurant{ID: "restaurant:new", OwnerID: actor.UserID, Name: req.Name}, nil
}

func (m *mockRestaurantService) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	return nil, service.ErrRestaurantNotFound
}

func (m *mockRestaurantService) List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, bool, error) {
	m.lastFilter = filter
	return []*model.Restaurant{}, false, nil
}

func (m *mockRestaurantService) Update(ctx context.Context, actor service.Actor, id string, req *model.UpdateRestaurantRequest) (*model.Restaurant, error) {
	return nil, service.ErrNotOwner
}

func (m *mockRestaurantService) Delete(ctx context.Context, actor service.Actor, id string) error {
	return m.deleteErr
}

func TestRestaurantList_StatusVisibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    string
		user   string
		role   model.UserRole
		status string
	}{
		{"anonymous forced active", "/v1/restaurants?status=inactive", "", "", model.RestaurantStatusActive},
		{"member forced active", "/v1/restaurants?status=inactive", "user:1", model.UserRoleMember, model.RestaurantStatusActive},
		{"owner sees own", "/v1/restaurants?status=inactive&owner_id=user:1", "user:1", model.UserRoleRestaurant, model.RestaurantStatusInactive},
		{"owner of another forced active", "/v1/restaurants?status=inactive&owner_id=user:2", "user:1", model.UserRoleRestaurant, model.RestaurantStatusActive},
		{"admin sees all", "/v1/restaurants", "user:9", model.UserRoleAdmin, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockRestaurantService{}
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.user != "" {
				req = withUser(req, tt.user, tt.role)
			}
			rr := httptest.NewRecorder()
			NewRestaurantHandler(svc).List(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.status, svc.lastFilter.Status)
		})
	}
}

func TestRestaurantCreate_ReturnsLinks(t *testing.T) {
	t.Parallel()

	req := withUser(makeJSONRequest(http.MethodPost, "/v1/restaurants", map[string]string{"name": "Baan"}), "user:1", model.UserRoleRestaurant)
	rr := httptest.NewRecorder()
	NewRestaurantHandler(&mockRestaurantService{}).Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	links := decodeData(t, rr, nil)
	assert.Equal(t, "/v1/restaurants/restaurant:new/menu", links["menu"])
}

func TestRestaurantUpdate_NotOwner_ReturnsForbidden(t *testing.T) {
	t.Parallel()

	req := withUser(makeJSONRequest(http.MethodPatch, "/v1/restaurants/r", map[string]string{"name": "X"}), "user:2", model.UserRoleRestaurant)
	rr := httptest.NewRecorder()
	NewRestaurantHandler(&mockRestaurantService{}).Update(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRestaurantDelete_WithUpcomingEvents_ReturnsConflict(t *testing.T) {
	t.Parallel()

	req := withUser(httptest.NewRequest(http.MethodDelete, "/v1/restaurants/r", nil), "user:1", model.UserRoleRestaurant)
	rr := httptest.NewRecorder()
	NewRestaurantHandler(&mockRestaurantService{deleteErr: service.ErrRestaurantHasEvents}).Delete(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

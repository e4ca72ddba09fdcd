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

// ============================================================================
// Mock MembershipService
// ============================================================================

// mockMembershipService stubs the plan endpoints; other calls panic.
type mockMembershipService struct {
	MembershipService
	listPlansFunc  func(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error)
	retirePlanFunc func(ctx context.Context, id string) (*model.MembershipPlan, error)
}

func (m *mockMembershipService) ListPlans(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error) {
	return m.listPlansFunc(ctx, activeOnly)
}

func (m *mockMembershipService) RetirePlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	return m.retirePlanFunc(ctx, id)
}

// ============================================================================
// Admin Plan Tests
// ============================================================================

func TestListAllPlans_IncludesRetired(t *testing.T) {
	t.Parallel()

	gotActiveOnly := true
	h := NewMembershipHandler(&mockMembershipService{
		listPlansFunc: func(ctx context.Context, activeOnly bool) ([]*model.MembershipPlan, error) {
			gotActiveOnly = activeOnly
			return []*model.MembershipPlan{
				{ID: "membership_plan:1", Name: "Monthly", Active: true},
				{ID: "membership_plan:2", Name: "Founders", Active: false},
			}, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodGet, "/v1/admin/plans", nil), "user:admin", model.UserRoleAdmin)
	rr := httptest.NewRecorder()
	h.ListAllPlans(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.False(t, gotActiveOnly)
	var plans []*model.MembershipPlan
	decodeData(t, rr, &plans)
	require.Len(t, plans, 2)
	assert.False(t, plans[1].Active)
}

func TestRetirePlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"retired", nil, http.StatusNoContent},
		{"unknown plan", service.ErrPlanNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotID string
			h := NewMembershipHandler(&mockMembershipService{
				retirePlanFunc: func(ctx context.Context, id string) (*model.MembershipPlan, error) {
					gotID = id
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.MembershipPlan{ID: id, Active: false}, nil
				},
			})

			req := httptest.NewRequest(http.MethodDelete, "/v1/admin/plans/membership_plan:1", nil)
			req = withPath(withUser(req, "user:admin", model.UserRoleAdmin), "planId", "membership_plan:1")
			rr := httptest.NewRecorder()
			h.RetirePlan(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, "membership_plan:1", gotID)
			if tt.err != nil {
				assert.Equal(t, http.StatusNotFound, parseProblem(t, rr).Status)
			}
		})
	}
}

package planner

import (
	"context"
	"fmt"

	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// GetPlanQuery fetches one plan by id, or a driver's active plan when only
// DriverID is set.
type GetPlanQuery struct {
	PlanID   string
	DriverID string
}

// GetPlanResponse carries the plan, nil when a driver has no active plan
type GetPlanResponse struct {
	Plan *planning.RoutePlan
}

// GetPlanHandler handles the GetPlan query
type GetPlanHandler struct {
	store planning.PlanStore
}

// NewGetPlanHandler creates a new GetPlanHandler
func NewGetPlanHandler(store planning.PlanStore) *GetPlanHandler {
	return &GetPlanHandler{store: store}
}

// Handle fetches the requested plan
func (h *GetPlanHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetPlanQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetPlanQuery")
	}

	if query.PlanID != "" {
		plan, err := h.store.GetPlan(ctx, query.PlanID)
		if err != nil {
			return nil, err
		}
		return &GetPlanResponse{Plan: plan}, nil
	}

	plan, err := h.store.GetActivePlanByDriver(ctx, query.DriverID)
	if err != nil {
		return nil, err
	}
	return &GetPlanResponse{Plan: plan}, nil
}

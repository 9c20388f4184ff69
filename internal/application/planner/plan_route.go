// Package planner exposes the planning, compliance, and rest operations as
// mediator commands and queries.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetyard/truckplan-go/internal/adapters/metrics"
	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// PlanRouteCommand requests a new route plan for a driver and vehicle
type PlanRouteCommand struct {
	DriverID     string
	VehicleID    string
	LoadID       string
	DriverState  hos.State
	VehicleState planning.VehicleState
	Stops        []planning.Stop
	Priority     planning.OptimizationPriority

	// Activate makes the new plan the driver's active plan immediately
	// instead of leaving it in draft.
	Activate bool
}

// PlanRouteResponse carries the persisted plan
type PlanRouteResponse struct {
	Plan *planning.RoutePlan
}

// PlanRouteHandler handles the PlanRoute command
type PlanRouteHandler struct {
	engine *planning.Engine
	store  planning.PlanStore
}

// NewPlanRouteHandler creates a new PlanRouteHandler
func NewPlanRouteHandler(engine *planning.Engine, store planning.PlanStore) *PlanRouteHandler {
	return &PlanRouteHandler{engine: engine, store: store}
}

// Handle builds, persists, and optionally activates a route plan
func (h *PlanRouteHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*PlanRouteCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *PlanRouteCommand")
	}

	start := time.Now()
	plan, err := h.engine.PlanRoute(ctx, planning.PlanRequest{
		DriverID:     cmd.DriverID,
		VehicleID:    cmd.VehicleID,
		LoadID:       cmd.LoadID,
		DriverState:  cmd.DriverState,
		VehicleState: cmd.VehicleState,
		Stops:        cmd.Stops,
		Priority:     cmd.Priority,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordPlanBuilt(plan.DriverID, plan.IsFeasible,
		time.Since(start).Seconds(), plan.TotalDistanceMiles)

	if cmd.Activate {
		if err := h.store.Activate(ctx, plan.PlanID); err != nil {
			return nil, err
		}
	}

	common.LoggerFromContext(ctx).Log("info", "route plan created", map[string]interface{}{
		"plan_id":   plan.PlanID,
		"driver_id": plan.DriverID,
		"stops":     len(cmd.Stops),
		"feasible":  plan.IsFeasible,
		"miles":     plan.TotalDistanceMiles,
	})

	return &PlanRouteResponse{Plan: plan}, nil
}

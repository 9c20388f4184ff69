package planner

import (
	"context"
	"fmt"

	"github.com/fleetyard/truckplan-go/internal/adapters/metrics"
	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/domain/dispatch"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// UpdatePlanCommand applies one runtime trigger to an existing plan
type UpdatePlanCommand struct {
	PlanID       string
	Trigger      dispatch.Trigger
	TriggeredBy  string
	DriverState  *hos.State
	VehicleState *planning.VehicleState
}

// UpdatePlanResponse reports what the handler decided and did
type UpdatePlanResponse struct {
	Result *dispatch.UpdateResult
}

// UpdatePlanHandler handles the UpdatePlan command
type UpdatePlanHandler struct {
	dispatcher *dispatch.Handler
}

// NewUpdatePlanHandler creates a new UpdatePlanHandler
func NewUpdatePlanHandler(dispatcher *dispatch.Handler) *UpdatePlanHandler {
	return &UpdatePlanHandler{dispatcher: dispatcher}
}

// Handle classifies the trigger and runs the update or replan
func (h *UpdatePlanHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*UpdatePlanCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *UpdatePlanCommand")
	}

	result, err := h.dispatcher.HandleTrigger(ctx, dispatch.UpdateRequest{
		PlanID:       cmd.PlanID,
		Trigger:      cmd.Trigger,
		TriggeredBy:  cmd.TriggeredBy,
		DriverState:  cmd.DriverState,
		VehicleState: cmd.VehicleState,
	})
	triggerType := "unknown"
	if cmd.Trigger != nil {
		triggerType = cmd.Trigger.Type()
	}
	if err != nil {
		if result != nil && result.ReplanTriggered {
			metrics.RecordReplan(cmd.PlanID, triggerType, false)
		}
		return nil, err
	}

	metrics.RecordTrigger(cmd.PlanID, triggerType, result.Action)
	if result.ReplanTriggered {
		metrics.RecordReplan(cmd.PlanID, triggerType, true)
	}

	common.LoggerFromContext(ctx).Log("info", "plan update handled", map[string]interface{}{
		"plan_id":   cmd.PlanID,
		"update_id": result.UpdateID,
		"decision":  string(result.Decision),
		"replanned": result.ReplanTriggered,
	})

	return &UpdatePlanResponse{Result: result}, nil
}

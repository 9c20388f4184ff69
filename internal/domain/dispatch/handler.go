package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// UpdateRequest applies one trigger to an existing plan. DriverState and
// VehicleState are the latest telemetry; when absent, the handler falls back
// to the plan's own snapshots or degrades to an ETA refresh.
type UpdateRequest struct {
	PlanID       string
	Trigger      Trigger
	TriggeredBy  string
	DriverState  *hos.State
	VehicleState *planning.VehicleState
}

// UpdateResult reports what the handler decided and did
type UpdateResult struct {
	UpdateID        string
	Decision        Decision
	ReplanTriggered bool
	Priority        Priority
	Action          string
	Reason          string
	PreviousVersion int
	NewVersion      *int
	NewPlan         *planning.RoutePlan
}

// Handler classifies triggers and runs the replan protocol. Replans for the
// same driver are serialized through a per-driver lock; a waiter that misses
// the deadline fails with ConcurrencyConflict.
type Handler struct {
	engine     *planning.Engine
	store      planning.PlanStore
	thresholds Thresholds
	clock      shared.Clock

	lockTimeout time.Duration
	mu          sync.Mutex
	driverLocks map[string]chan struct{}
}

// NewHandler creates an update handler
func NewHandler(
	engine *planning.Engine,
	store planning.PlanStore,
	thresholds Thresholds,
	clock shared.Clock,
	lockTimeout time.Duration,
) *Handler {
	return &Handler{
		engine:      engine,
		store:       store,
		thresholds:  thresholds,
		clock:       clock,
		lockTimeout: lockTimeout,
		driverLocks: make(map[string]chan struct{}),
	}
}

// HandleTrigger classifies the trigger, writes the audit record, and replans
// when the decision calls for it. Every trigger leaves a PlanUpdate behind,
// replan or not.
func (h *Handler) HandleTrigger(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	trigger := req.Trigger
	if trigger == nil {
		trigger = UnknownTrigger{}
	}

	plan, err := h.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	assessment := trigger.Assess(h.thresholds)
	decision := h.decide(assessment)

	update := planning.NewPlanUpdate(plan.PlanID, trigger.Type(), req.TriggeredBy, h.clock.Now())
	update.PreviousVersion = plan.Version
	update.ReplanReason = assessment.Reason
	if data, err := json.Marshal(trigger); err == nil {
		update.TriggerData = data
	}

	result := &UpdateResult{
		UpdateID:        update.UpdateID,
		Decision:        decision,
		Priority:        assessment.Priority,
		Action:          assessment.Action,
		Reason:          assessment.Reason,
		PreviousVersion: plan.Version,
	}

	if decision != DecisionReplan {
		update.Impact = planning.ImpactSummary{
			ETAShiftHours: assessment.ImpactHours,
			Description:   assessment.Action,
		}
		if err := h.store.AppendUpdate(ctx, update); err != nil {
			return nil, err
		}
		return result, nil
	}

	newPlan, replanErr := h.replan(ctx, plan, trigger, req, assessment, update)
	if replanErr != nil {
		if errors.Is(replanErr, shared.ErrConcurrencyConflict) || errors.Is(replanErr, shared.ErrFatal) {
			return nil, replanErr
		}
		// Degraded path: the replan could not run (missing telemetry, no
		// remaining drive segments). Record the trigger and refresh ETAs.
		result.Decision = DecisionUpdateETAs
		result.Reason = fmt.Sprintf("%s; replan degraded to ETA update: %v", assessment.Reason, replanErr)
		update.ReplanReason = result.Reason
		update.Impact = planning.ImpactSummary{
			ETAShiftHours: assessment.ImpactHours,
			Description:   "UPDATE_ETAS",
		}
		if err := h.store.AppendUpdate(ctx, update); err != nil {
			return nil, err
		}
		return result, nil
	}

	result.ReplanTriggered = true
	result.NewVersion = update.NewVersion
	result.NewPlan = newPlan
	return result, nil
}

// decide maps priority to an action per the decision matrix: CRITICAL always
// replans; HIGH replans on a safety override or when the impact exceeds the
// configured threshold; MEDIUM refreshes ETAs; LOW does nothing.
func (h *Handler) decide(a Assessment) Decision {
	switch a.Priority {
	case PriorityCritical:
		return DecisionReplan
	case PriorityHigh:
		if a.ForceReplan || a.ImpactHours > h.thresholds.ReplanImpactHours {
			return DecisionReplan
		}
		return DecisionUpdateETAs
	case PriorityMedium:
		return DecisionUpdateETAs
	default:
		return DecisionNoAction
	}
}

// replan runs the replan protocol: serialize per driver, apply the trigger's
// state mutations, re-derive the remaining stops, rebuild, and commit the new
// version atomically through the store.
func (h *Handler) replan(
	ctx context.Context,
	plan *planning.RoutePlan,
	trigger Trigger,
	req UpdateRequest,
	assessment Assessment,
	update *planning.PlanUpdate,
) (*planning.RoutePlan, error) {
	if err := h.lockDriver(ctx, plan.DriverID); err != nil {
		return nil, err
	}
	defer h.unlockDriver(plan.DriverID)

	driverState := h.resolveDriverState(plan, req)
	if req.VehicleState == nil {
		return nil, shared.NewInvalidInput("vehicle state is required to replan")
	}
	vehicleState := *req.VehicleState

	trigger.Apply(&driverState, &vehicleState)

	stops, err := deriveRemainingStops(plan)
	if err != nil {
		return nil, err
	}
	stops = adjustStopsForTrigger(stops, trigger)
	if len(stops) < 2 {
		return nil, shared.NewInsufficientData("fewer than 2 stops remain; nothing to replan")
	}

	rebuilt, err := h.engine.BuildPlan(ctx, planning.PlanRequest{
		DriverID:     plan.DriverID,
		VehicleID:    plan.VehicleID,
		LoadID:       plan.LoadID,
		DriverState:  driverState,
		VehicleState: vehicleState,
		Stops:        stops,
		Priority:     plan.OptimizationPriority,
	})
	if err != nil {
		return nil, err
	}

	update.ReplanTriggered = true
	update.Impact = planning.ImpactSummary{
		ETAShiftHours:   assessment.ImpactHours,
		SegmentsAdded:   len(rebuilt.Segments),
		SegmentsRemoved: len(plan.PlannedSegments()),
		Description:     assessment.Action,
	}

	return h.store.Replan(ctx, plan.PlanID, rebuilt, update)
}

// resolveDriverState prefers live telemetry, then the last executed segment's
// snapshot, then a fresh duty period.
func (h *Handler) resolveDriverState(plan *planning.RoutePlan, req UpdateRequest) hos.State {
	if req.DriverState != nil {
		return *req.DriverState
	}
	var state hos.State
	for _, seg := range plan.Segments {
		if seg.Status == planning.SegmentCompleted || seg.Status == planning.SegmentInProgress {
			state = seg.HOSStateAfter
		}
	}
	return state
}

// deriveRemainingStops rebuilds a stop list from the plan's tail: the first
// planned drive's start becomes the new origin, each planned drive's end a
// stop, with dock hours folded back in from the following dock segment.
func deriveRemainingStops(plan *planning.RoutePlan) ([]planning.Stop, error) {
	planned := plan.PlannedSegments()

	var stops []planning.Stop
	for i, seg := range planned {
		if seg.Kind != planning.SegmentDrive {
			continue
		}
		if len(stops) == 0 {
			stops = append(stops, planning.Stop{
				ID:       fmt.Sprintf("%s-replan-origin", plan.PlanID),
				Name:     seg.Drive.FromStop,
				Position: seg.FromPosition,
				IsOrigin: true,
			})
		}
		stop := planning.Stop{
			ID:       fmt.Sprintf("%s-replan-%d", plan.PlanID, len(stops)),
			Name:     seg.Drive.ToStop,
			Position: seg.ToPosition,
		}
		if i+1 < len(planned) && planned[i+1].Kind == planning.SegmentDock {
			stop.EstimatedDockHours = planned[i+1].Dock.DurationHours
			stop.CustomerName = planned[i+1].Dock.Customer
		}
		stops = append(stops, stop)
	}
	if len(stops) == 0 {
		return nil, shared.NewInsufficientData("no planned drive segments remain")
	}
	stops[len(stops)-1].IsDestination = true
	return stops, nil
}

// adjustStopsForTrigger folds load changes into the derived stop list
func adjustStopsForTrigger(stops []planning.Stop, trigger Trigger) []planning.Stop {
	switch t := trigger.(type) {
	case LoadAdded:
		// Insert before the destination so the endpoint stays pinned.
		added := t.Stop
		added.IsOrigin = false
		added.IsDestination = false
		last := len(stops) - 1
		if stops[last].IsDestination {
			return append(stops[:last:last], added, stops[last])
		}
		return append(stops, added)
	case LoadCancelled:
		var out []planning.Stop
		for _, stop := range stops {
			if stop.ID == t.StopID || stop.Name == t.StopID {
				continue
			}
			out = append(out, stop)
		}
		if n := len(out); n > 0 && !out[n-1].IsDestination {
			out[n-1].IsDestination = true
		}
		return out
	default:
		return stops
	}
}

func (h *Handler) lockDriver(ctx context.Context, driverID string) error {
	h.mu.Lock()
	lock, ok := h.driverLocks[driverID]
	if !ok {
		lock = make(chan struct{}, 1)
		h.driverLocks[driverID] = lock
	}
	h.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return shared.NewConcurrencyConflict("", "replan cancelled waiting for driver %s: %v", driverID, ctx.Err())
	case <-time.After(h.lockTimeout):
		return shared.NewConcurrencyConflict("", "replan for driver %s timed out waiting for an in-flight replan", driverID)
	}
}

func (h *Handler) unlockDriver(driverID string) {
	h.mu.Lock()
	lock := h.driverLocks[driverID]
	h.mu.Unlock()
	<-lock
}

package planning

import (
	"context"
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// PlanRequest is a request to build a route plan for a driver and vehicle
type PlanRequest struct {
	DriverID     string
	VehicleID    string
	LoadID       string
	DriverState  hos.State
	VehicleState VehicleState
	Stops        []Stop
	Priority     OptimizationPriority
}

// Engine composes the sequencer, simulator, and providers into the single
// planning operation. Stateless; safe for concurrent use across independent
// requests.
type Engine struct {
	sequencer       *Sequencer
	simulator       *Simulator
	distance        DistanceProvider
	store           PlanStore
	clock           shared.Clock
	distanceTimeout time.Duration
	retryBackoff    time.Duration
}

// NewEngine creates a planning engine
func NewEngine(
	sequencer *Sequencer,
	simulator *Simulator,
	distance DistanceProvider,
	store PlanStore,
	clock shared.Clock,
	distanceTimeout time.Duration,
) *Engine {
	return &Engine{
		sequencer:       sequencer,
		simulator:       simulator,
		distance:        distance,
		store:           store,
		clock:           clock,
		distanceTimeout: distanceTimeout,
		retryBackoff:    time.Second,
	}
}

// PlanRoute builds a draft plan and persists it. The plan is returned in
// draft state, version 1; activation is a separate step.
func (e *Engine) PlanRoute(ctx context.Context, req PlanRequest) (*RoutePlan, error) {
	plan, err := e.BuildPlan(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// BuildPlan runs sequencing and simulation and assembles an unpersisted
// draft plan. Used directly by the replan path, which persists through the
// store's transactional replan instead.
func (e *Engine) BuildPlan(ctx context.Context, req PlanRequest) (*RoutePlan, error) {
	if err := validatePlanRequest(req); err != nil {
		return nil, err
	}

	matrix, err := e.BuildMatrix(ctx, req.Stops)
	if err != nil {
		return nil, err
	}

	sequence, err := e.sequencer.Sequence(req.Stops, matrix)
	if err != nil {
		return nil, err
	}

	simulation, err := e.simulator.Simulate(ctx, SimulationInput{
		Sequence:     sequence.Order,
		DriverState:  req.DriverState,
		VehicleState: req.VehicleState,
		Matrix:       matrix,
		StartTime:    e.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	plan := NewRoutePlan(req.DriverID, req.VehicleID, req.Priority)
	plan.LoadID = req.LoadID
	plan.Segments = simulation.Segments
	plan.TotalDistanceMiles = simulation.TotalDistanceMiles
	plan.TotalDriveTimeHours = simulation.TotalDriveTimeHours
	plan.TotalOnDutyHours = simulation.TotalOnDutyHours
	plan.TotalCostEstimate = simulation.TotalCostEstimate
	plan.IsFeasible = simulation.IsFeasible
	plan.FeasibilityIssues = simulation.FeasibilityIssues
	plan.Compliance = simulation.Compliance
	return plan, nil
}

// BuildMatrix resolves every pairwise leg through the distance provider. A
// failed lookup is retried once after a short backoff; a second failure means
// the plan cannot be built and surfaces as InsufficientData.
func (e *Engine) BuildMatrix(ctx context.Context, stops []Stop) (DistanceMatrix, error) {
	matrix := make(DistanceMatrix, len(stops)*(len(stops)-1)/2)
	for i := 0; i < len(stops); i++ {
		for j := i + 1; j < len(stops); j++ {
			leg, err := e.lookupLeg(ctx, stops[i], stops[j])
			if err != nil {
				return nil, err
			}
			matrix[MatrixKey{From: stops[i].ID, To: stops[j].ID}] = leg
		}
	}
	return matrix, nil
}

func (e *Engine) lookupLeg(ctx context.Context, from, to Stop) (Leg, error) {
	leg, err := e.distanceOnce(ctx, from, to)
	if err == nil {
		return leg, nil
	}

	e.clock.Sleep(e.retryBackoff)
	leg, err = e.distanceOnce(ctx, from, to)
	if err != nil {
		return Leg{}, shared.NewInsufficientData(
			"distance lookup failed for %s -> %s: %v", from.ID, to.ID, err)
	}
	return leg, nil
}

func (e *Engine) distanceOnce(ctx context.Context, from, to Stop) (Leg, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.distanceTimeout)
	defer cancel()
	return e.distance.Distance(lookupCtx, from, to)
}

func validatePlanRequest(req PlanRequest) error {
	if req.DriverID == "" {
		return shared.NewInvalidInput("driver_id is required")
	}
	if len(req.Stops) < 2 {
		return shared.NewInvalidInput("at least 2 stops are required, got %d", len(req.Stops))
	}

	origins, destinations := 0, 0
	for _, stop := range req.Stops {
		if stop.IsOrigin {
			origins++
		}
		if stop.IsDestination {
			destinations++
		}
	}
	if origins != 1 {
		return shared.NewInvalidInput("exactly one origin stop is required, got %d", origins)
	}
	if destinations > 1 {
		return shared.NewInvalidInput("at most one destination stop is allowed, got %d", destinations)
	}
	return nil
}

package planning_test

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// fakeDistanceProvider serves legs from a fixed table and can be told to fail
// a number of times per pair to exercise the retry path.
type fakeDistanceProvider struct {
	legs     map[planning.MatrixKey]planning.Leg
	failures map[planning.MatrixKey]int
	calls    int
}

func newFakeDistanceProvider() *fakeDistanceProvider {
	return &fakeDistanceProvider{
		legs:     make(map[planning.MatrixKey]planning.Leg),
		failures: make(map[planning.MatrixKey]int),
	}
}

func (p *fakeDistanceProvider) addLeg(from, to string, miles float64, road planning.RoadClass) {
	p.legs[planning.MatrixKey{From: from, To: to}] = planning.Leg{Miles: miles, Road: road}
}

func (p *fakeDistanceProvider) failTimes(from, to string, times int) {
	p.failures[planning.MatrixKey{From: from, To: to}] = times
}

func (p *fakeDistanceProvider) Distance(_ context.Context, from, to planning.Stop) (planning.Leg, error) {
	p.calls++
	key := planning.MatrixKey{From: from.ID, To: to.ID}
	if p.failures[key] > 0 {
		p.failures[key]--
		return planning.Leg{}, errors.New("distance service unavailable")
	}
	if leg, ok := p.legs[key]; ok {
		return leg, nil
	}
	if leg, ok := p.legs[planning.MatrixKey{From: to.ID, To: from.ID}]; ok {
		return leg, nil
	}
	return planning.Leg{}, errors.New("unknown stop pair")
}

func (p *fakeDistanceProvider) DriveTime(leg planning.Leg) float64 {
	speed := 55.0
	switch leg.Road {
	case planning.RoadHighway:
		speed = 50
	case planning.RoadInterstate:
		speed = 60
	case planning.RoadCity:
		speed = 30
	}
	return leg.Miles / speed
}

// stubRestAreas returns the same rest stop for every lookup, or nothing.
type stubRestAreas struct {
	stop *planning.Stop
}

func (s *stubRestAreas) FindAlongRoute(_ context.Context, _, _ planning.Stop) (*planning.Stop, error) {
	return s.stop, nil
}

func (s *stubRestAreas) FindNear(_ context.Context, _ shared.LatLon, _ float64) ([]planning.Stop, error) {
	if s.stop == nil {
		return nil, nil
	}
	return []planning.Stop{*s.stop}, nil
}

// stubFuelStops returns a fixed refuel plan, or nothing.
type stubFuelStops struct {
	plan *planning.FuelPlan
}

func (s *stubFuelStops) Optimize(_ context.Context, _, _ planning.Stop, _ planning.VehicleState) (*planning.FuelPlan, error) {
	return s.plan, nil
}

// memoryPlanStore is an in-memory PlanStore for engine tests
type memoryPlanStore struct {
	mu    sync.Mutex
	plans map[string]*planning.RoutePlan
}

func newMemoryPlanStore() *memoryPlanStore {
	return &memoryPlanStore{plans: make(map[string]*planning.RoutePlan)}
}

func (s *memoryPlanStore) CreatePlan(_ context.Context, plan *planning.RoutePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.PlanID] = plan
	return nil
}

func (s *memoryPlanStore) GetPlan(_ context.Context, planID string) (*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, shared.NewStorePrecondition(planID, "plan not found")
	}
	return plan, nil
}

func (s *memoryPlanStore) GetActivePlanByDriver(_ context.Context, driverID string) (*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, plan := range s.plans {
		if plan.DriverID == driverID && plan.IsActive {
			return plan, nil
		}
	}
	return nil, nil
}

func (s *memoryPlanStore) GetPlansByDriver(_ context.Context, driverID string) ([]*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*planning.RoutePlan
	for _, plan := range s.plans {
		if plan.DriverID == driverID {
			out = append(out, plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanID < out[j].PlanID })
	return out, nil
}

func (s *memoryPlanStore) GetAllActive(_ context.Context) ([]*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*planning.RoutePlan
	for _, plan := range s.plans {
		if plan.IsActive {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (s *memoryPlanStore) Activate(ctx context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.plans[planID]
	if !ok {
		return shared.NewStorePrecondition(planID, "plan not found")
	}
	if err := target.Activate(); err != nil {
		return err
	}
	for _, plan := range s.plans {
		if plan.PlanID != planID && plan.DriverID == target.DriverID {
			plan.IsActive = false
		}
	}
	return nil
}

func (s *memoryPlanStore) Complete(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return shared.NewStorePrecondition(planID, "plan not found")
	}
	return plan.MarkCompleted()
}

func (s *memoryPlanStore) Cancel(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return shared.NewStorePrecondition(planID, "plan not found")
	}
	return plan.MarkCancelled()
}

func (s *memoryPlanStore) AppendSegment(_ context.Context, planID string, segment *planning.RouteSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return shared.NewStorePrecondition(planID, "plan not found")
	}
	plan.Segments = append(plan.Segments, *segment)
	return nil
}

func (s *memoryPlanStore) SetSegmentStatus(_ context.Context, _ uint, _ planning.SegmentStatus) error {
	return nil
}

func (s *memoryPlanStore) CurrentSegment(_ context.Context, _ string) (*planning.RouteSegment, error) {
	return nil, nil
}

func (s *memoryPlanStore) RemainingSegments(ctx context.Context, planID string) ([]planning.RouteSegment, error) {
	plan, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return plan.PlannedSegments(), nil
}

func (s *memoryPlanStore) AppendUpdate(_ context.Context, _ *planning.PlanUpdate) error {
	return nil
}

func (s *memoryPlanStore) Replan(_ context.Context, planID string, rebuilt *planning.RoutePlan, update *planning.PlanUpdate) (*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, shared.NewStorePrecondition(planID, "plan not found")
	}
	for i := range plan.Segments {
		if plan.Segments[i].Status == planning.SegmentPlanned {
			plan.Segments[i].Status = planning.SegmentCancelled
		}
	}
	plan.Segments = append(plan.Segments, rebuilt.Segments...)
	plan.TotalDistanceMiles = rebuilt.TotalDistanceMiles
	plan.TotalDriveTimeHours = rebuilt.TotalDriveTimeHours
	plan.TotalOnDutyHours = rebuilt.TotalOnDutyHours
	plan.TotalCostEstimate = rebuilt.TotalCostEstimate
	plan.IsFeasible = rebuilt.IsFeasible
	plan.FeasibilityIssues = rebuilt.FeasibilityIssues
	plan.Compliance = rebuilt.Compliance
	plan.Version++
	newVersion := plan.Version
	update.NewVersion = &newVersion
	return plan, nil
}

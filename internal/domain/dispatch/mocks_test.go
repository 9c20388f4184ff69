package dispatch_test

import (
	"context"
	"sync"

	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// flatDistanceProvider returns the same highway leg for every pair, so replan
// tests do not depend on synthesized stop ids. It can be told to block, to
// hold the per-driver lock open from a test.
type flatDistanceProvider struct {
	miles float64
	block chan struct{}
}

func (p *flatDistanceProvider) Distance(_ context.Context, _, _ planning.Stop) (planning.Leg, error) {
	if p.block != nil {
		<-p.block
	}
	return planning.Leg{Miles: p.miles, Road: planning.RoadHighway}, nil
}

func (p *flatDistanceProvider) DriveTime(leg planning.Leg) float64 {
	return leg.Miles / 50
}

type stubRestAreas struct {
	stop *planning.Stop
}

func (s *stubRestAreas) FindAlongRoute(_ context.Context, _, _ planning.Stop) (*planning.Stop, error) {
	return s.stop, nil
}

func (s *stubRestAreas) FindNear(_ context.Context, _ shared.LatLon, _ float64) ([]planning.Stop, error) {
	return nil, nil
}

type stubFuelStops struct{}

func (s *stubFuelStops) Optimize(_ context.Context, _, _ planning.Stop, _ planning.VehicleState) (*planning.FuelPlan, error) {
	return nil, nil
}

// recordingStore is an in-memory PlanStore that captures appended updates
type recordingStore struct {
	mu      sync.Mutex
	plans   map[string]*planning.RoutePlan
	updates []*planning.PlanUpdate
}

func newRecordingStore() *recordingStore {
	return &recordingStore{plans: make(map[string]*planning.RoutePlan)}
}

func (s *recordingStore) CreatePlan(_ context.Context, plan *planning.RoutePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.PlanID] = plan
	return nil
}

func (s *recordingStore) GetPlan(_ context.Context, planID string) (*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, shared.NewStorePrecondition(planID, "plan not found")
	}
	return plan, nil
}

func (s *recordingStore) GetActivePlanByDriver(_ context.Context, driverID string) (*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, plan := range s.plans {
		if plan.DriverID == driverID && plan.IsActive {
			return plan, nil
		}
	}
	return nil, nil
}

func (s *recordingStore) GetPlansByDriver(_ context.Context, driverID string) ([]*planning.RoutePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*planning.RoutePlan
	for _, plan := range s.plans {
		if plan.DriverID == driverID {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (s *recordingStore) GetAllActive(_ context.Context) ([]*planning.RoutePlan, error) {
	return nil, nil
}

func (s *recordingStore) Activate(_ context.Context, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return shared.NewStorePrecondition(planID, "plan not found")
	}
	return plan.Activate()
}

func (s *recordingStore) Complete(_ context.Context, planID string) error { return nil }
func (s *recordingStore) Cancel(_ context.Context, planID string) error   { return nil }

func (s *recordingStore) AppendSegment(_ context.Context, _ string, _ *planning.RouteSegment) error {
	return nil
}

func (s *recordingStore) SetSegmentStatus(_ context.Context, _ uint, _ planning.SegmentStatus) error {
	return nil
}

func (s *recordingStore) CurrentSegment(_ context.Context, _ string) (*planning.RouteSegment, error) {
	return nil, nil
}

func (s *recordingStore) RemainingSegments(_ context.Context, planID string) ([]planning.RouteSegment, error) {
	plan, err := s.GetPlan(context.Background(), planID)
	if err != nil {
		return nil, err
	}
	return plan.PlannedSegments(), nil
}

func (s *recordingStore) AppendUpdate(_ context.Context, update *planning.PlanUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return nil
}

func (s *recordingStore) Replan(_ context.Context, planID string, rebuilt *planning.RoutePlan, update *planning.PlanUpdate) (*planning.RoutePlan, error) {
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
	s.updates = append(s.updates, update)
	return plan, nil
}

func (s *recordingStore) lastUpdate() *planning.PlanUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return nil
	}
	return s.updates[len(s.updates)-1]
}

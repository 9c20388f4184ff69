package planning

import (
	"context"

	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// RoadClass selects the average speed used to turn miles into drive time
type RoadClass string

const (
	RoadHighway    RoadClass = "highway"
	RoadInterstate RoadClass = "interstate"
	RoadCity       RoadClass = "city"
)

// Leg is one directed edge of the distance matrix
type Leg struct {
	Miles float64
	Road  RoadClass
}

// MatrixKey identifies a directed stop pair
type MatrixKey struct {
	From string
	To   string
}

// DistanceMatrix holds the pairwise legs for a planning request. Lookups try
// the reverse direction before giving up, since road distances are treated as
// symmetric.
type DistanceMatrix map[MatrixKey]Leg

// Get returns the leg between two stops, trying both directions.
func (m DistanceMatrix) Get(from, to string) (Leg, bool) {
	if leg, ok := m[MatrixKey{From: from, To: to}]; ok {
		return leg, true
	}
	leg, ok := m[MatrixKey{From: to, To: from}]
	return leg, ok
}

// DistanceProvider resolves distances and drive times between stops.
// Implementations may call external services; every lookup takes a context
// and must honor its deadline.
type DistanceProvider interface {
	// Distance returns the driving leg from one stop to another.
	Distance(ctx context.Context, from, to Stop) (Leg, error)

	// DriveTime converts a leg to hours using the road class's average speed.
	DriveTime(leg Leg) float64
}

// RestAreaProvider locates truck stops and service areas for mandatory rests.
// A nil stop with a nil error means nothing suitable was found.
type RestAreaProvider interface {
	FindAlongRoute(ctx context.Context, from, to Stop) (*Stop, error)
	FindNear(ctx context.Context, point shared.LatLon, radiusMiles float64) ([]Stop, error)
}

// FuelPlan is a refueling recommendation from the fuel provider
type FuelPlan struct {
	Station       Stop
	GallonsNeeded float64
	PricePerGal   float64
	EstimatedCost float64
}

// FuelStopProvider picks the cheapest viable station for a refuel between two
// stops. A nil plan with a nil error means no station is reachable.
type FuelStopProvider interface {
	Optimize(ctx context.Context, from, to Stop, vehicle VehicleState) (*FuelPlan, error)
}

// PlanStore persists plans, their segments, and their append-only update
// records. The single-active-plan-per-driver invariant is enforced inside the
// store's transactions.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan *RoutePlan) error
	GetPlan(ctx context.Context, planID string) (*RoutePlan, error)
	GetActivePlanByDriver(ctx context.Context, driverID string) (*RoutePlan, error)
	GetPlansByDriver(ctx context.Context, driverID string) ([]*RoutePlan, error)
	GetAllActive(ctx context.Context) ([]*RoutePlan, error)

	// Activate atomically activates the target plan and deactivates every
	// other plan belonging to the same driver.
	Activate(ctx context.Context, planID string) error
	Complete(ctx context.Context, planID string) error
	Cancel(ctx context.Context, planID string) error

	AppendSegment(ctx context.Context, planID string, segment *RouteSegment) error
	SetSegmentStatus(ctx context.Context, segmentID uint, status SegmentStatus) error
	CurrentSegment(ctx context.Context, planID string) (*RouteSegment, error)
	RemainingSegments(ctx context.Context, planID string) ([]RouteSegment, error)

	AppendUpdate(ctx context.Context, update *PlanUpdate) error

	// Replan atomically cancels the plan's remaining planned segments,
	// appends the rebuilt plan's segments, adopts its totals and feasibility,
	// bumps the version, and writes the audit record. Observers never see a
	// version without its full segment set.
	Replan(ctx context.Context, planID string, rebuilt *RoutePlan, update *PlanUpdate) (*RoutePlan, error)
}

package planning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// PlanStatus is the lifecycle state of a route plan
type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// OptimizationPriority selects the sequencing objective
type OptimizationPriority string

const (
	MinimizeTime OptimizationPriority = "minimize_time"
	MinimizeCost OptimizationPriority = "minimize_cost"
	Balance      OptimizationPriority = "balance"
)

// ComplianceReport summarizes HOS usage over a simulated plan
type ComplianceReport struct {
	MaxDriveHoursUsed float64
	MaxDutyHoursUsed  float64
	BreaksRequired    int
	BreaksPlanned     int
	Violations        []string
}

// RoutePlan is the aggregate root: an ordered segment list plus totals,
// feasibility, and lifecycle state. Segments and updates are owned by the
// plan; upward references elsewhere carry only the plan id.
type RoutePlan struct {
	PlanID    string
	DriverID  string
	VehicleID string
	LoadID    string

	Version  int
	IsActive bool
	Status   PlanStatus

	OptimizationPriority OptimizationPriority

	TotalDistanceMiles  float64
	TotalDriveTimeHours float64
	TotalOnDutyHours    float64
	TotalCostEstimate   float64

	IsFeasible        bool
	FeasibilityIssues []string
	Compliance        ComplianceReport

	Segments []RouteSegment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRoutePlan creates a draft version-1 plan for a driver and vehicle
func NewRoutePlan(driverID, vehicleID string, priority OptimizationPriority) *RoutePlan {
	if priority == "" {
		priority = MinimizeTime
	}
	return &RoutePlan{
		PlanID:               "plan-" + uuid.NewString(),
		DriverID:             driverID,
		VehicleID:            vehicleID,
		Version:              1,
		Status:               PlanDraft,
		OptimizationPriority: priority,
	}
}

// Activate transitions the plan from draft to active. Deactivating sibling
// plans is the store's job; this only guards the local lifecycle.
func (p *RoutePlan) Activate() error {
	if p.Status != PlanDraft {
		return shared.NewStorePrecondition(p.PlanID, "cannot activate plan in status %q", p.Status)
	}
	p.Status = PlanActive
	p.IsActive = true
	return nil
}

// MarkCompleted transitions an active plan to completed
func (p *RoutePlan) MarkCompleted() error {
	if p.Status != PlanActive {
		return shared.NewStorePrecondition(p.PlanID, "cannot complete plan in status %q", p.Status)
	}
	p.Status = PlanCompleted
	p.IsActive = false
	return nil
}

// MarkCancelled transitions a draft or active plan to cancelled
func (p *RoutePlan) MarkCancelled() error {
	if p.Status == PlanCompleted || p.Status == PlanCancelled {
		return shared.NewStorePrecondition(p.PlanID, "cannot cancel plan in status %q", p.Status)
	}
	p.Status = PlanCancelled
	p.IsActive = false
	return nil
}

// PlannedSegments returns the segments not yet started, in order.
func (p *RoutePlan) PlannedSegments() []RouteSegment {
	var out []RouteSegment
	for _, s := range p.Segments {
		if s.Status == SegmentPlanned {
			out = append(out, s)
		}
	}
	return out
}

// ImpactSummary quantifies what a plan update changed
type ImpactSummary struct {
	ETAShiftHours   float64 `json:"eta_shift_hours"`
	SegmentsAdded   int     `json:"segments_added"`
	SegmentsRemoved int     `json:"segments_removed"`
	Description     string  `json:"description"`
}

// PlanUpdate is the append-only audit record of a trigger applied to a plan.
// TriggerData holds the trigger's own serialized fields; the typed variants
// live with the update handler.
type PlanUpdate struct {
	UpdateID    string
	PlanID      string
	Type        string
	TriggeredAt time.Time
	TriggeredBy string
	TriggerData json.RawMessage

	ReplanTriggered bool
	ReplanReason    string

	PreviousVersion int
	NewVersion      *int

	Impact ImpactSummary
}

// NewPlanUpdate creates an audit record for a trigger against a plan
func NewPlanUpdate(planID, updateType, triggeredBy string, at time.Time) *PlanUpdate {
	return &PlanUpdate{
		UpdateID:    "update-" + uuid.NewString(),
		PlanID:      planID,
		Type:        updateType,
		TriggeredAt: at,
		TriggeredBy: triggeredBy,
	}
}

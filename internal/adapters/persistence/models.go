package persistence

import (
	"time"
)

// RoutePlanModel represents the route_plans table
type RoutePlanModel struct {
	PlanID    string `gorm:"column:plan_id;primaryKey"`
	DriverID  string `gorm:"column:driver_id;index;not null"`
	VehicleID string `gorm:"column:vehicle_id;not null"`
	LoadID    string `gorm:"column:load_id"`

	Version  int    `gorm:"column:version;not null;default:1"`
	IsActive bool   `gorm:"column:is_active;index;not null;default:false"`
	Status   string `gorm:"column:status;not null;default:'draft'"`

	OptimizationPriority string `gorm:"column:optimization_priority;not null"`

	TotalDistanceMiles  float64 `gorm:"column:total_distance_miles;not null;default:0"`
	TotalDriveTimeHours float64 `gorm:"column:total_drive_time_hours;not null;default:0"`
	TotalOnDutyHours    float64 `gorm:"column:total_on_duty_hours;not null;default:0"`
	TotalCostEstimate   float64 `gorm:"column:total_cost_estimate;not null;default:0"`

	IsFeasible        bool   `gorm:"column:is_feasible;not null;default:true"`
	FeasibilityIssues string `gorm:"column:feasibility_issues;type:text"` // JSON array as text

	MaxDriveHoursUsed float64 `gorm:"column:max_drive_hours_used;not null;default:0"`
	MaxDutyHoursUsed  float64 `gorm:"column:max_duty_hours_used;not null;default:0"`
	BreaksRequired    int     `gorm:"column:breaks_required;not null;default:0"`
	BreaksPlanned     int     `gorm:"column:breaks_planned;not null;default:0"`
	Violations        string  `gorm:"column:violations;type:text"` // JSON array as text

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (RoutePlanModel) TableName() string {
	return "route_plans"
}

// RouteSegmentModel represents the route_segments table. Detail columns are
// flat; only the columns for the segment's kind are populated.
type RouteSegmentModel struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	PlanID        string `gorm:"column:plan_id;index;not null"`
	SequenceOrder int    `gorm:"column:sequence_order;not null"`
	Kind          string `gorm:"column:kind;not null"`
	Status        string `gorm:"column:status;not null;default:'planned'"`

	DriveDistanceMiles  float64 `gorm:"column:drive_distance_miles"`
	DriveTimeHours      float64 `gorm:"column:drive_time_hours"`
	DriveFromStop       string  `gorm:"column:drive_from_stop"`
	DriveToStop         string  `gorm:"column:drive_to_stop"`
	RestType            string  `gorm:"column:rest_type"`
	RestDurationHours   float64 `gorm:"column:rest_duration_hours"`
	RestReason          string  `gorm:"column:rest_reason"`
	RestLocation        string  `gorm:"column:rest_location"`
	FuelGallons         float64 `gorm:"column:fuel_gallons"`
	FuelCostEstimate    float64 `gorm:"column:fuel_cost_estimate"`
	FuelStation         string  `gorm:"column:fuel_station"`
	DockDurationHours   float64 `gorm:"column:dock_duration_hours"`
	DockCustomer        string  `gorm:"column:dock_customer"`
	DockLocation        string  `gorm:"column:dock_location"`

	FromLat float64 `gorm:"column:from_lat"`
	FromLon float64 `gorm:"column:from_lon"`
	ToLat   float64 `gorm:"column:to_lat"`
	ToLon   float64 `gorm:"column:to_lon"`

	HoursDrivenAfter    float64 `gorm:"column:hours_driven_after"`
	OnDutyTimeAfter     float64 `gorm:"column:on_duty_time_after"`
	HoursSinceBreakAfter float64 `gorm:"column:hours_since_break_after"`

	EstimatedArrival   *time.Time `gorm:"column:estimated_arrival"`
	EstimatedDeparture *time.Time `gorm:"column:estimated_departure"`
	ActualArrival      *time.Time `gorm:"column:actual_arrival"`
	ActualDeparture    *time.Time `gorm:"column:actual_departure"`
}

func (RouteSegmentModel) TableName() string {
	return "route_segments"
}

// PlanUpdateModel represents the plan_updates table, the append-only audit
// log of triggers applied to plans.
type PlanUpdateModel struct {
	UpdateID    string    `gorm:"column:update_id;primaryKey"`
	PlanID      string    `gorm:"column:plan_id;index;not null"`
	Type        string    `gorm:"column:type;not null"`
	TriggeredAt time.Time `gorm:"column:triggered_at;not null"`
	TriggeredBy string    `gorm:"column:triggered_by"`
	TriggerData string    `gorm:"column:trigger_data;type:text"` // JSON as text

	ReplanTriggered bool   `gorm:"column:replan_triggered;not null;default:false"`
	ReplanReason    string `gorm:"column:replan_reason;type:text"`

	PreviousVersion int  `gorm:"column:previous_version;not null"`
	NewVersion      *int `gorm:"column:new_version"`

	ETAShiftHours   float64 `gorm:"column:eta_shift_hours"`
	SegmentsAdded   int     `gorm:"column:segments_added"`
	SegmentsRemoved int     `gorm:"column:segments_removed"`
	Description     string  `gorm:"column:description"`
}

func (PlanUpdateModel) TableName() string {
	return "plan_updates"
}

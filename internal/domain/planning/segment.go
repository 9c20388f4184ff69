package planning

import (
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// SegmentKind is the variant tag of a route segment
type SegmentKind string

const (
	SegmentDrive SegmentKind = "drive"
	SegmentRest  SegmentKind = "rest"
	SegmentFuel  SegmentKind = "fuel"
	SegmentDock  SegmentKind = "dock"
)

// SegmentStatus is the execution state of a segment
type SegmentStatus string

const (
	SegmentPlanned    SegmentStatus = "planned"
	SegmentInProgress SegmentStatus = "in_progress"
	SegmentCompleted  SegmentStatus = "completed"
	SegmentSkipped    SegmentStatus = "skipped"
	SegmentCancelled  SegmentStatus = "cancelled"
)

// CanTransitionTo reports whether the status change is legal. Planned
// segments may start, finish, or be abandoned; in-progress segments may only
// finish or be cancelled; the rest are terminal.
func (s SegmentStatus) CanTransitionTo(next SegmentStatus) bool {
	switch s {
	case SegmentPlanned:
		return next == SegmentInProgress || next == SegmentCompleted ||
			next == SegmentSkipped || next == SegmentCancelled
	case SegmentInProgress:
		return next == SegmentCompleted || next == SegmentCancelled
	default:
		return false
	}
}

// RestType is the kind of rest a rest segment represents
type RestType string

const (
	RestFull      RestType = "full_rest"
	RestPartial73 RestType = "partial_rest_7_3"
	RestPartial82 RestType = "partial_rest_8_2"
	RestBreak     RestType = "break"
)

// DriveDetail carries the fields specific to a drive segment
type DriveDetail struct {
	DistanceMiles  float64
	DriveTimeHours float64
	FromStop       string
	ToStop         string
}

// RestDetail carries the fields specific to a rest segment
type RestDetail struct {
	Type          RestType
	DurationHours float64
	Reason        string
	Location      string
}

// FuelDetail carries the fields specific to a fuel segment
type FuelDetail struct {
	Gallons      float64
	CostEstimate float64
	Station      string
}

// DockDetail carries the fields specific to a dock segment
type DockDetail struct {
	DurationHours float64
	Customer      string
	Location      string
}

// RouteSegment is one atomic step of a plan. The envelope fields are common
// to all kinds; exactly one of the detail pointers is set, matching Kind.
// Immutable after creation except Status and the actual timestamps.
type RouteSegment struct {
	ID            uint
	SequenceOrder int
	Kind          SegmentKind

	Drive *DriveDetail
	Rest  *RestDetail
	Fuel  *FuelDetail
	Dock  *DockDetail

	FromPosition shared.LatLon
	ToPosition   shared.LatLon

	HOSStateAfter hos.State

	EstimatedArrival   time.Time
	EstimatedDeparture time.Time
	ActualArrival      *time.Time
	ActualDeparture    *time.Time

	Status SegmentStatus
}

// DurationHours returns the segment's planned duration
func (s *RouteSegment) DurationHours() float64 {
	switch s.Kind {
	case SegmentDrive:
		return s.Drive.DriveTimeHours
	case SegmentRest:
		return s.Rest.DurationHours
	case SegmentFuel:
		return fuelStopDurationHours
	case SegmentDock:
		return s.Dock.DurationHours
	}
	return 0
}

// fuelStopDurationHours is the fixed on-duty cost of a refuel.
const fuelStopDurationHours = 0.25

// Package dispatch classifies runtime events against active plans and
// orchestrates ETA updates or full replans.
package dispatch

import (
	"fmt"
	"math"
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// Priority is the urgency class of a trigger
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Decision is what the handler will do about a trigger
type Decision string

const (
	DecisionReplan     Decision = "REPLAN"
	DecisionUpdateETAs Decision = "UPDATE_ETAS"
	DecisionNoAction   Decision = "NO_ACTION"
)

// Thresholds are the tuning constants for trigger classification, read once
// at startup.
type Thresholds struct {
	TrafficDelayMinutes   float64
	DockVarianceHours     float64
	RestVarianceHours     float64
	SpeedDeviationFrac    float64
	AppointmentShiftHours float64
	FuelBuffer            float64
	CriticalFuelFrac      float64
	LowFuelFrac           float64
	ReplanImpactHours     float64
}

// DefaultThresholds returns the standard classification thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrafficDelayMinutes:   30,
		DockVarianceHours:     1.0,
		RestVarianceHours:     0.5,
		SpeedDeviationFrac:    0.15,
		AppointmentShiftHours: 0.5,
		FuelBuffer:            0.20,
		CriticalFuelFrac:      0.15,
		LowFuelFrac:           0.25,
		ReplanImpactHours:     1.0,
	}
}

// Assessment is a trigger's classification against the thresholds
type Assessment struct {
	Priority    Priority
	Action      string
	Reason      string
	ImpactHours float64

	// ForceReplan marks driver/safety overrides and always-replan triggers
	// that bypass the impact threshold.
	ForceReplan bool
}

// Trigger is a runtime event evaluated against a plan. One concrete type per
// trigger kind; each carries exactly its own fields and serializes into the
// PlanUpdate audit record.
type Trigger interface {
	Type() string
	Assess(t Thresholds) Assessment

	// Apply mutates the driver and vehicle state the way the event implies,
	// before the remaining route is re-planned.
	Apply(driver *hos.State, vehicle *planning.VehicleState)
}

// TrafficDelay reports congestion or a road closure on the current segment
type TrafficDelay struct {
	SegmentID    string  `json:"segment_id"`
	DelayMinutes float64 `json:"delay_minutes"`
}

func (t TrafficDelay) Type() string { return "traffic_delay" }

func (t TrafficDelay) Assess(th Thresholds) Assessment {
	if t.DelayMinutes < th.TrafficDelayMinutes {
		return Assessment{
			Priority: PriorityLow,
			Action:   "NO_ACTION",
			Reason:   fmt.Sprintf("Traffic delay of %.0f minutes below threshold", t.DelayMinutes),
		}
	}
	if t.DelayMinutes > 60 {
		return Assessment{
			Priority:    PriorityHigh,
			Action:      "ADJUST_ROUTE_OR_INSERT_REST",
			Reason:      fmt.Sprintf("Traffic delay of %.0f minutes detected", t.DelayMinutes),
			ImpactHours: t.DelayMinutes / 60,
		}
	}
	return Assessment{
		Priority:    PriorityMedium,
		Action:      "UPDATE_ETAS",
		Reason:      fmt.Sprintf("Traffic delay of %.0f minutes detected", t.DelayMinutes),
		ImpactHours: t.DelayMinutes / 60,
	}
}

func (t TrafficDelay) Apply(_ *hos.State, _ *planning.VehicleState) {}

// DockTimeChange reports that actual dock time differed from the estimate
type DockTimeChange struct {
	StopID         string  `json:"stop_id"`
	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
}

func (t DockTimeChange) Type() string { return "dock_time_change" }

func (t DockTimeChange) VarianceHours() float64 {
	return t.ActualHours - t.EstimatedHours
}

func (t DockTimeChange) Assess(th Thresholds) Assessment {
	variance := math.Abs(t.VarianceHours())
	if variance < th.DockVarianceHours {
		return Assessment{
			Priority:    PriorityMedium,
			Action:      "UPDATE_ETAS",
			Reason:      fmt.Sprintf("Dock time variance of %.1fh within tolerance", variance),
			ImpactHours: variance,
		}
	}
	return Assessment{
		Priority: PriorityCritical,
		Action:   "INSERT_REST_OR_SKIP_STOPS",
		Reason: fmt.Sprintf(
			"Dock time exceeded estimate by %.1f hours. Route feasibility may be affected.",
			variance),
		ImpactHours: variance,
	}
}

// Apply charges the extra dock time to the duty and break counters
func (t DockTimeChange) Apply(driver *hos.State, _ *planning.VehicleState) {
	driver.OnDutyTime = clampHours(driver.OnDutyTime + t.VarianceHours())
	driver.HoursSinceBreak = clampHours(driver.HoursSinceBreak + t.VarianceHours())
}

// LoadAdded reports a new stop assigned mid-route
type LoadAdded struct {
	Stop planning.Stop `json:"stop"`
}

func (t LoadAdded) Type() string { return "load_added" }

func (t LoadAdded) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority:    PriorityHigh,
		Action:      "RE_SEQUENCE_STOPS",
		Reason:      "Load added: Route must be re-sequenced",
		ForceReplan: true,
	}
}

func (t LoadAdded) Apply(_ *hos.State, _ *planning.VehicleState) {}

// LoadCancelled reports a stop removed mid-route
type LoadCancelled struct {
	StopID string `json:"stop_id"`
}

func (t LoadCancelled) Type() string { return "load_cancelled" }

func (t LoadCancelled) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority:    PriorityHigh,
		Action:      "RE_SEQUENCE_STOPS",
		Reason:      "Load cancelled: Route must be re-sequenced",
		ForceReplan: true,
	}
}

func (t LoadCancelled) Apply(_ *hos.State, _ *planning.VehicleState) {}

// DriverRestRequest is a driver's manual "I want to rest here". Always
// honored as a safety override.
type DriverRestRequest struct {
	DriverID  string  `json:"driver_id"`
	RestHours float64 `json:"rest_hours"`
}

func (t DriverRestRequest) Type() string { return "driver_rest_request" }

func (t DriverRestRequest) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority:    PriorityHigh,
		Action:      "UPDATE_HOS_AND_REPLAN",
		Reason:      "Driver requested rest stop. Safety override.",
		ForceReplan: true,
	}
}

// Apply treats the requested rest as a full reset
func (t DriverRestRequest) Apply(driver *hos.State, _ *planning.VehicleState) {
	*driver = driver.AfterFullRest()
}

// HOSLimitApproaching is the proactive warning that the remaining route does
// not fit in the remaining drive or duty hours.
type HOSLimitApproaching struct {
	Limit          string  `json:"limit"` // "drive" or "duty"
	HoursRemaining float64 `json:"hours_remaining"`
	HoursNeeded    float64 `json:"hours_needed"`
}

func (t HOSLimitApproaching) Type() string {
	if t.Limit == "duty" {
		return "hos_duty_limit_approaching"
	}
	return "hos_drive_limit_approaching"
}

func (t HOSLimitApproaching) Assess(_ Thresholds) Assessment {
	shortfall := t.HoursNeeded - t.HoursRemaining
	name := "Drive"
	if t.Limit == "duty" {
		name = "Duty"
	}
	return Assessment{
		Priority: PriorityHigh,
		Action:   "INSERT_REST_STOP",
		Reason: fmt.Sprintf(
			"%s limit approaching: %.1fh remaining, %.1fh needed. Shortfall: %.1fh",
			name, t.HoursRemaining, t.HoursNeeded, math.Max(0, shortfall)),
		ImpactHours: math.Max(0, shortfall),
		ForceReplan: shortfall > 0,
	}
}

func (t HOSLimitApproaching) Apply(_ *hos.State, _ *planning.VehicleState) {}

// BreakRequiredSoon warns that the 30-minute break will come due shortly
type BreakRequiredSoon struct {
	MinutesUntilBreak float64 `json:"minutes_until_break"`
}

func (t BreakRequiredSoon) Type() string { return "break_required_soon" }

func (t BreakRequiredSoon) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority: PriorityMedium,
		Action:   "INSERT_BREAK",
		Reason:   fmt.Sprintf("30-minute break required in %.0f minutes", t.MinutesUntilBreak),
	}
}

func (t BreakRequiredSoon) Apply(_ *hos.State, _ *planning.VehicleState) {}

// HOSViolation is the reactive detection of a counter already past its limit
type HOSViolation struct {
	Rule  string  `json:"rule"` // "drive", "duty", or "break"
	Value float64 `json:"value"`
}

func (t HOSViolation) Type() string {
	switch t.Rule {
	case "duty":
		return "hos_violation_duty"
	case "break":
		return "break_violation"
	}
	return "hos_violation_drive"
}

func (t HOSViolation) Assess(_ Thresholds) Assessment {
	var action, reason string
	switch t.Rule {
	case "duty":
		action = "MANDATORY_REST_IMMEDIATE"
		reason = fmt.Sprintf(
			"CRITICAL: Duty limit exceeded (%.1fh / 14h). Mandatory rest required IMMEDIATELY.", t.Value)
	case "break":
		action = "MANDATORY_BREAK_IMMEDIATE"
		reason = fmt.Sprintf(
			"CRITICAL: Break requirement exceeded (%.1fh / 8h). Mandatory 30-minute break required IMMEDIATELY.", t.Value)
	default:
		action = "MANDATORY_REST_IMMEDIATE"
		reason = fmt.Sprintf(
			"CRITICAL: Drive limit exceeded (%.1fh / 11h). Mandatory rest required IMMEDIATELY.", t.Value)
	}
	return Assessment{
		Priority:    PriorityCritical,
		Action:      action,
		Reason:      reason,
		ForceReplan: true,
	}
}

func (t HOSViolation) Apply(_ *hos.State, _ *planning.VehicleState) {}

// RestDurationChanged reports that the driver rested more or less than planned
type RestDurationChanged struct {
	PlannedHours float64 `json:"planned_hours"`
	ActualHours  float64 `json:"actual_hours"`
}

func (t RestDurationChanged) Type() string { return "rest_duration_changed" }

func (t RestDurationChanged) Assess(th Thresholds) Assessment {
	variance := t.ActualHours - t.PlannedHours
	if math.Abs(variance) <= th.RestVarianceHours {
		return Assessment{
			Priority: PriorityLow,
			Action:   "NO_ACTION",
			Reason:   fmt.Sprintf("Rest duration variance of %.1fh within tolerance", math.Abs(variance)),
		}
	}
	return Assessment{
		Priority: PriorityMedium,
		Action:   "UPDATE_HOS_AND_REPLAN_REMAINING",
		Reason: fmt.Sprintf(
			"Rest duration changed: Planned %.1fh, actual %.1fh. HOS state differs from plan.",
			t.PlannedHours, t.ActualHours),
		ImpactHours: math.Abs(variance),
	}
}

func (t RestDurationChanged) Apply(_ *hos.State, _ *planning.VehicleState) {}

// FuelLow reports the tank cannot cover the remaining route with the buffer
type FuelLow struct {
	CurrentGal  float64 `json:"current_gal"`
	CapacityGal float64 `json:"capacity_gal"`
	NeededGal   float64 `json:"needed_gal"`
}

func (t FuelLow) Type() string { return "fuel_low" }

func (t FuelLow) Assess(th Thresholds) Assessment {
	if t.CapacityGal <= 0 || t.CurrentGal >= t.NeededGal*(1+th.FuelBuffer) {
		return Assessment{
			Priority: PriorityLow,
			Action:   "NO_ACTION",
			Reason:   "Fuel sufficient for remaining route",
		}
	}

	frac := t.CurrentGal / t.CapacityGal
	priority := PriorityHigh
	if frac < th.CriticalFuelFrac {
		priority = PriorityCritical
	}
	return Assessment{
		Priority: priority,
		Action:   "INSERT_FUEL_STOP",
		Reason: fmt.Sprintf(
			"Fuel low: %.1f gal available, %.1f gal needed (+ %.0f%% buffer). Current level: %.1f%%",
			t.CurrentGal, t.NeededGal, th.FuelBuffer*100, frac*100),
		ForceReplan: true,
	}
}

func (t FuelLow) Apply(_ *hos.State, vehicle *planning.VehicleState) {
	vehicle.CurrentFuelGal = t.CurrentGal
}

// SpeedDeviation reports actual pace off the expected segment speed
type SpeedDeviation struct {
	ExpectedMPH float64 `json:"expected_mph"`
	ActualMPH   float64 `json:"actual_mph"`
}

func (t SpeedDeviation) Type() string { return "speed_deviation" }

func (t SpeedDeviation) Assess(th Thresholds) Assessment {
	if t.ExpectedMPH <= 0 {
		return Assessment{Priority: PriorityLow, Action: "NO_ACTION", Reason: "No expected speed available"}
	}
	deviation := (t.ActualMPH - t.ExpectedMPH) / t.ExpectedMPH
	if math.Abs(deviation) <= th.SpeedDeviationFrac {
		return Assessment{
			Priority: PriorityLow,
			Action:   "NO_ACTION",
			Reason:   fmt.Sprintf("Speed deviation of %+.1f%% within tolerance", deviation*100),
		}
	}
	return Assessment{
		Priority: PriorityMedium,
		Action:   "UPDATE_ETAS",
		Reason: fmt.Sprintf(
			"Speed deviation: Expected %.0f mph, actual %.0f mph (%+.1f%% deviation)",
			t.ExpectedMPH, t.ActualMPH, deviation*100),
	}
}

func (t SpeedDeviation) Apply(_ *hos.State, _ *planning.VehicleState) {}

// AppointmentChanged reports a customer moving a stop's appointment window
type AppointmentChanged struct {
	StopID         string    `json:"stop_id"`
	OldAppointment time.Time `json:"old_appointment"`
	NewAppointment time.Time `json:"new_appointment"`
}

func (t AppointmentChanged) Type() string { return "appointment_changed" }

func (t AppointmentChanged) Assess(th Thresholds) Assessment {
	deltaHours := math.Abs(t.NewAppointment.Sub(t.OldAppointment).Hours())
	if deltaHours <= th.AppointmentShiftHours {
		return Assessment{
			Priority: PriorityLow,
			Action:   "NO_ACTION",
			Reason:   fmt.Sprintf("Appointment shift of %.1fh within tolerance", deltaHours),
		}
	}
	return Assessment{
		Priority: PriorityMedium,
		Action:   "ADJUST_STOP_SEQUENCE",
		Reason: fmt.Sprintf(
			"Appointment time changed by %.1f hours. May need to re-sequence stops.", deltaHours),
		ImpactHours: deltaHours,
	}
}

func (t AppointmentChanged) Apply(_ *hos.State, _ *planning.VehicleState) {}

// DockUnavailable reports a dock closed or otherwise unusable
type DockUnavailable struct {
	StopID string `json:"stop_id"`
}

func (t DockUnavailable) Type() string { return "dock_unavailable" }

func (t DockUnavailable) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority:    PriorityHigh,
		Action:      "SKIP_OR_RESCHEDULE_STOP",
		Reason:      "Dock unavailable. Stop must be skipped or rescheduled.",
		ForceReplan: true,
	}
}

func (t DockUnavailable) Apply(_ *hos.State, _ *planning.VehicleState) {}

// WeatherEvent is informational only for now
type WeatherEvent struct {
	Condition string `json:"condition"`
	Severity  string `json:"severity"`
}

func (t WeatherEvent) Type() string { return "weather_event" }

func (t WeatherEvent) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority: PriorityLow,
		Action:   "NO_ACTION",
		Reason:   fmt.Sprintf("Weather reported (%s, %s); monitoring only", t.Condition, t.Severity),
	}
}

func (t WeatherEvent) Apply(_ *hos.State, _ *planning.VehicleState) {}

// WeighStationDelay is informational only for now
type WeighStationDelay struct {
	Location     string  `json:"location"`
	DelayMinutes float64 `json:"delay_minutes"`
}

func (t WeighStationDelay) Type() string { return "weigh_station_delay" }

func (t WeighStationDelay) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority: PriorityLow,
		Action:   "NO_ACTION",
		Reason:   fmt.Sprintf("Weigh station delay of %.0f minutes; monitoring only", t.DelayMinutes),
	}
}

func (t WeighStationDelay) Apply(_ *hos.State, _ *planning.VehicleState) {}

// UnknownTrigger stands in for unrecognized or partial trigger data. The
// handler degrades to an ETA refresh rather than dropping the event.
type UnknownTrigger struct {
	TypeName string `json:"type_name"`
}

func (t UnknownTrigger) Type() string {
	if t.TypeName == "" {
		return "unknown"
	}
	return t.TypeName
}

func (t UnknownTrigger) Assess(_ Thresholds) Assessment {
	return Assessment{
		Priority: PriorityMedium,
		Action:   "UPDATE_ETAS",
		Reason:   "Unrecognized or partial trigger data; refreshing ETAs",
	}
}

func (t UnknownTrigger) Apply(_ *hos.State, _ *planning.VehicleState) {}

func clampHours(h float64) float64 {
	return math.Min(24, math.Max(0, h))
}

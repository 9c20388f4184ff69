package config

import (
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/dispatch"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
)

// PlanningConfig holds the planning engine's tunables. The HOS limits default
// to the federal property-carrying rules; overriding them is for testing and
// jurisdictions with different rules.
type PlanningConfig struct {
	HOS HOSConfig `mapstructure:"hos"`

	// FuelBuffer is the safety fraction over the fuel needed for a leg
	FuelBuffer float64 `mapstructure:"fuel_buffer" validate:"min=0,max=1"`

	// DistanceTimeout bounds one distance provider lookup
	DistanceTimeout time.Duration `mapstructure:"distance_timeout"`

	// TwoOptIterations caps the 2-opt improvement passes per sequencing run
	TwoOptIterations int `mapstructure:"two_opt_iterations" validate:"min=1"`
}

// HOSConfig mirrors the hours-of-service limits
type HOSConfig struct {
	MaxDriveHours        float64 `mapstructure:"max_drive_hours" validate:"min=1,max=24"`
	MaxDutyHours         float64 `mapstructure:"max_duty_hours" validate:"min=1,max=24"`
	BreakTriggerHours    float64 `mapstructure:"break_trigger_hours" validate:"min=0.5,max=24"`
	RequiredBreakMinutes int     `mapstructure:"required_break_minutes" validate:"min=0"`
	MinRestHours         float64 `mapstructure:"min_rest_hours" validate:"min=1,max=24"`
}

// Limits converts the config into domain HOS limits, falling back to the
// defaults for the split-sleeper durations.
func (c HOSConfig) Limits() hos.Limits {
	limits := hos.DefaultLimits()
	if c.MaxDriveHours > 0 {
		limits.MaxDriveHours = c.MaxDriveHours
	}
	if c.MaxDutyHours > 0 {
		limits.MaxDutyHours = c.MaxDutyHours
	}
	if c.BreakTriggerHours > 0 {
		limits.BreakTriggerHours = c.BreakTriggerHours
	}
	if c.RequiredBreakMinutes > 0 {
		limits.RequiredBreakMinutes = c.RequiredBreakMinutes
	}
	if c.MinRestHours > 0 {
		limits.MinRestHours = c.MinRestHours
	}
	return limits
}

// DispatchConfig holds the trigger classification thresholds and the replan
// lock timeout.
type DispatchConfig struct {
	TrafficDelayMinutes   float64 `mapstructure:"traffic_delay_minutes" validate:"min=0"`
	DockVarianceHours     float64 `mapstructure:"dock_variance_hours" validate:"min=0"`
	RestVarianceHours     float64 `mapstructure:"rest_variance_hours" validate:"min=0"`
	SpeedDeviationFrac    float64 `mapstructure:"speed_deviation_frac" validate:"min=0,max=1"`
	AppointmentShiftHours float64 `mapstructure:"appointment_shift_hours" validate:"min=0"`
	CriticalFuelFrac      float64 `mapstructure:"critical_fuel_frac" validate:"min=0,max=1"`
	LowFuelFrac           float64 `mapstructure:"low_fuel_frac" validate:"min=0,max=1"`
	ReplanImpactHours     float64 `mapstructure:"replan_impact_hours" validate:"min=0"`

	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// Thresholds converts the config into dispatch thresholds, falling back to
// the defaults for unset fields.
func (c DispatchConfig) Thresholds(fuelBuffer float64) dispatch.Thresholds {
	th := dispatch.DefaultThresholds()
	if c.TrafficDelayMinutes > 0 {
		th.TrafficDelayMinutes = c.TrafficDelayMinutes
	}
	if c.DockVarianceHours > 0 {
		th.DockVarianceHours = c.DockVarianceHours
	}
	if c.RestVarianceHours > 0 {
		th.RestVarianceHours = c.RestVarianceHours
	}
	if c.SpeedDeviationFrac > 0 {
		th.SpeedDeviationFrac = c.SpeedDeviationFrac
	}
	if c.AppointmentShiftHours > 0 {
		th.AppointmentShiftHours = c.AppointmentShiftHours
	}
	if c.CriticalFuelFrac > 0 {
		th.CriticalFuelFrac = c.CriticalFuelFrac
	}
	if c.LowFuelFrac > 0 {
		th.LowFuelFrac = c.LowFuelFrac
	}
	if c.ReplanImpactHours > 0 {
		th.ReplanImpactHours = c.ReplanImpactHours
	}
	if fuelBuffer > 0 {
		th.FuelBuffer = fuelBuffer
	}
	return th
}

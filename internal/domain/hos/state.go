package hos

import (
	"fmt"

	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// State is an immutable snapshot of a driver's duty-period counters. All
// values are hours. Transition helpers return a new value; a State is never
// shared-mutable.
//
// Driving is normally a subset of duty time, but reported counters from the
// field may disagree; only the simulator treats a violation as fatal.
type State struct {
	HoursDriven     float64
	OnDutyTime      float64
	HoursSinceBreak float64
}

// Validate checks that each counter is within the legal 0-24h range.
func (s State) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"hours_driven", s.HoursDriven},
		{"on_duty_time", s.OnDutyTime},
		{"hours_since_break", s.HoursSinceBreak},
	} {
		if f.value < 0 || f.value > 24 {
			return shared.NewInvalidInput("%s must be between 0 and 24, got %.2f", f.name, f.value)
		}
	}
	return nil
}

// AfterDrive returns the state after driving for the given hours.
func (s State) AfterDrive(hours float64) State {
	return State{
		HoursDriven:     s.HoursDriven + hours,
		OnDutyTime:      s.OnDutyTime + hours,
		HoursSinceBreak: s.HoursSinceBreak + hours,
	}
}

// AfterOnDuty returns the state after non-driving duty (dock work, fueling)
// for the given hours. Duty and break counters accrue; driving does not.
func (s State) AfterOnDuty(hours float64) State {
	return State{
		HoursDriven:     s.HoursDriven,
		OnDutyTime:      s.OnDutyTime + hours,
		HoursSinceBreak: s.HoursSinceBreak + hours,
	}
}

// AfterFullRest returns the zero state: a 10-hour off-duty period resets all
// three counters.
func (s State) AfterFullRest() State {
	return State{}
}

// AfterBreak returns the state after a qualifying 30-minute break, which
// zeroes only the break counter.
func (s State) AfterBreak() State {
	return State{
		HoursDriven:     s.HoursDriven,
		OnDutyTime:      s.OnDutyTime,
		HoursSinceBreak: 0,
	}
}

func (s State) String() string {
	return fmt.Sprintf("HOS(driven=%.2fh, duty=%.2fh, since_break=%.2fh)",
		s.HoursDriven, s.OnDutyTime, s.HoursSinceBreak)
}

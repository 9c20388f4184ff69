package hos

import (
	"fmt"
	"math"
)

// Limits holds the FMCSA rule constants. Process-wide, immutable after
// startup; constructed once from configuration and passed explicitly.
type Limits struct {
	MaxDriveHours        float64
	MaxDutyHours         float64
	BreakTriggerHours    float64
	RequiredBreakMinutes int
	MinRestHours         float64
	SleeperSplitLong73   float64
	SleeperSplitShort73  float64
	SleeperSplitLong82   float64
	SleeperSplitShort82  float64
}

// DefaultLimits returns the FMCSA 11/14/8 defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxDriveHours:        11.0,
		MaxDutyHours:         14.0,
		BreakTriggerHours:    8.0,
		RequiredBreakMinutes: 30,
		MinRestHours:         10.0,
		SleeperSplitLong73:   7.0,
		SleeperSplitShort73:  3.0,
		SleeperSplitLong82:   8.0,
		SleeperSplitShort82:  2.0,
	}
}

// RequiredBreakHours returns the break duration in hours.
func (l Limits) RequiredBreakHours() float64 {
	return float64(l.RequiredBreakMinutes) / 60.0
}

// ComplianceStatus is the overall result of an HOS validation
type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "compliant"
	StatusWarning      ComplianceStatus = "warning"
	StatusNonCompliant ComplianceStatus = "non_compliant"
)

// Check is one independent rule evaluation within a compliance result
type Check struct {
	RuleName  string
	Compliant bool
	Current   float64
	Limit     float64
	Remaining float64
	Message   string
}

// ComplianceResult is the complete outcome of validating a driver's HOS state
type ComplianceResult struct {
	Status                ComplianceStatus
	IsCompliant           bool
	Checks                []Check
	Warnings              []string
	Violations            []string
	HoursRemainingToDrive float64
	HoursRemainingOnDuty  float64
	BreakRequired         bool
	RestRequired          bool
}

// RuleEngine is the pure, stateless evaluator of the FMCSA 11/14/8 duty
// rules. It never blocks and has no side effects.
type RuleEngine struct {
	limits Limits
}

// NewRuleEngine creates a rule engine with the given limits
func NewRuleEngine(limits Limits) *RuleEngine {
	return &RuleEngine{limits: limits}
}

// Limits returns the engine's rule constants
func (e *RuleEngine) Limits() Limits {
	return e.limits
}

// Validate evaluates the three duty rules against a driver state. It returns
// an InvalidInput error for states outside the legal ranges; validation is
// idempotent and deterministic.
func (e *RuleEngine) Validate(state State) (*ComplianceResult, error) {
	if err := state.Validate(); err != nil {
		return nil, err
	}

	checks := []Check{
		e.checkDriveLimit(state.HoursDriven),
		e.checkDutyWindow(state.OnDutyTime),
		e.checkBreakRequirement(state.HoursSinceBreak),
	}

	var warnings, violations []string
	for _, c := range checks {
		switch {
		case !c.Compliant:
			violations = append(violations, c.Message)
		case c.RuleName != ruleBreak && c.Remaining <= 1.0:
			warnings = append(warnings, "Warning: "+c.Message)
		}
	}

	isCompliant := len(violations) == 0
	status := StatusCompliant
	if !isCompliant {
		status = StatusNonCompliant
	} else if len(warnings) > 0 {
		status = StatusWarning
	}

	return &ComplianceResult{
		Status:                status,
		IsCompliant:           isCompliant,
		Checks:                checks,
		Warnings:              warnings,
		Violations:            violations,
		HoursRemainingToDrive: math.Max(0, e.limits.MaxDriveHours-state.HoursDriven),
		HoursRemainingOnDuty:  math.Max(0, e.limits.MaxDutyHours-state.OnDutyTime),
		BreakRequired:         state.HoursSinceBreak >= e.limits.BreakTriggerHours,
		RestRequired: state.HoursDriven >= e.limits.MaxDriveHours ||
			state.OnDutyTime >= e.limits.MaxDutyHours,
	}, nil
}

// CanDrive reports whether the driver can legally continue driving right now.
func (e *RuleEngine) CanDrive(state State) (bool, error) {
	result, err := e.Validate(state)
	if err != nil {
		return false, err
	}
	return result.IsCompliant && !result.RestRequired, nil
}

// HoursUntilRestRequired returns the minimum of the remaining drive and duty
// hours: how long the driver can keep working before a rest is mandatory.
func (e *RuleEngine) HoursUntilRestRequired(state State) float64 {
	untilDrive := math.Max(0, e.limits.MaxDriveHours-state.HoursDriven)
	untilDuty := math.Max(0, e.limits.MaxDutyHours-state.OnDutyTime)
	return math.Min(untilDrive, untilDuty)
}

const (
	ruleDrive = "11-hour driving limit"
	ruleDuty  = "14-hour on-duty window"
	ruleBreak = "30-minute break after 8 hours"
)

func (e *RuleEngine) checkDriveLimit(hoursDriven float64) Check {
	remaining := e.limits.MaxDriveHours - hoursDriven
	compliant := hoursDriven <= e.limits.MaxDriveHours

	var message string
	switch {
	case !compliant:
		message = fmt.Sprintf("Exceeded 11-hour drive limit by %.1fh", -remaining)
	case remaining <= 1.0:
		message = fmt.Sprintf("Approaching 11-hour drive limit (%.1fh remaining)", remaining)
	default:
		message = fmt.Sprintf("Within 11-hour drive limit (%.1fh remaining)", remaining)
	}

	return Check{
		RuleName:  ruleDrive,
		Compliant: compliant,
		Current:   hoursDriven,
		Limit:     e.limits.MaxDriveHours,
		Remaining: math.Max(0, remaining),
		Message:   message,
	}
}

func (e *RuleEngine) checkDutyWindow(onDutyTime float64) Check {
	remaining := e.limits.MaxDutyHours - onDutyTime
	compliant := onDutyTime <= e.limits.MaxDutyHours

	var message string
	switch {
	case !compliant:
		message = fmt.Sprintf("Exceeded 14-hour duty window by %.1fh", -remaining)
	case remaining <= 1.0:
		message = fmt.Sprintf("Approaching 14-hour duty window (%.1fh remaining)", remaining)
	default:
		message = fmt.Sprintf("Within 14-hour duty window (%.1fh remaining)", remaining)
	}

	return Check{
		RuleName:  ruleDuty,
		Compliant: compliant,
		Current:   onDutyTime,
		Limit:     e.limits.MaxDutyHours,
		Remaining: math.Max(0, remaining),
		Message:   message,
	}
}

func (e *RuleEngine) checkBreakRequirement(hoursSinceBreak float64) Check {
	remaining := e.limits.BreakTriggerHours - hoursSinceBreak
	compliant := hoursSinceBreak < e.limits.BreakTriggerHours

	var message string
	if compliant {
		message = fmt.Sprintf("30-minute break not yet required (%.1fh until required)", remaining)
	} else {
		message = fmt.Sprintf("30-minute break required (driven %.1fh without break)", hoursSinceBreak)
	}

	return Check{
		RuleName:  ruleBreak,
		Compliant: compliant,
		Current:   hoursSinceBreak,
		Limit:     e.limits.BreakTriggerHours,
		Remaining: math.Max(0, remaining),
		Message:   message,
	}
}

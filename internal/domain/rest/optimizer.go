// Package rest decides when and how long a driver should rest given a
// multi-trip horizon, dock-time opportunity, and HOS margins.
package rest

import (
	"fmt"
	"math"
	"strings"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// Recommendation is the rest action recommended to the driver
type Recommendation string

const (
	FullRest      Recommendation = "full_rest"
	PartialRest73 Recommendation = "partial_rest_7_3"
	PartialRest82 Recommendation = "partial_rest_8_2"
	Break         Recommendation = "break"
	NoRest        Recommendation = "no_rest"
)

// TripRequirement is one upcoming trip: hours of driving followed by hours
// at a dock.
type TripRequirement struct {
	DriveTimeHours float64
	DockTimeHours  float64
	Location       string
}

// Input is the driver situation the optimizer evaluates
type Input struct {
	State             hos.State
	DockDurationHours float64
	UpcomingTrips     []TripRequirement
	CurrentLocation   string
}

// FeasibilityAnalysis reports whether the upcoming trips fit in the driver's
// remaining hours, and by how much they miss or clear the limits.
type FeasibilityAnalysis struct {
	Feasible          bool
	LimitingFactor    string // "drive_limit", "duty_window", or ""
	ShortfallHours    float64
	TotalDriveNeeded  float64
	TotalOnDutyNeeded float64
	WillNeedBreak     bool
	DriveMargin       float64
	DutyMargin        float64
}

// OpportunityAnalysis scores (0-100) how valuable resting now at this dock is
type OpportunityAnalysis struct {
	Score             float64
	DockScore         float64
	HoursScore        float64
	CriticalityScore  float64
	DockTimeAvailable float64
	HoursGainable     float64
}

// CostAnalysis reports the extra waiting hours beyond dock time needed to
// reach each rest duration.
type CostAnalysis struct {
	FullRestExtensionHours    float64
	PartialRestExtensionHours float64
	DockTimeAvailable         float64
}

// Result is the complete recommendation with supporting analytics
type Result struct {
	Recommendation           Recommendation
	RecommendedDurationHours float64
	Reasoning                string
	Confidence               int
	DriverCanDecline         bool
	IsCompliant              bool
	ComplianceDetails        string
	HoursRemainingToDrive    float64
	HoursRemainingOnDuty     float64
	PostLoadDriveFeasible    bool
	Feasibility              FeasibilityAnalysis
	Opportunity              OpportunityAnalysis
	Cost                     CostAnalysis
	HoursAfterRestDrive      float64
	HoursAfterRestDuty       float64
}

// unknownMargin marks feasibility margins when no trips were provided.
const unknownMargin = 999

// Optimizer combines feasibility, opportunity, and cost analyses into a rest
// recommendation. Stateless; never blocks.
type Optimizer struct {
	hosEngine *hos.RuleEngine
	limits    hos.Limits
}

// NewOptimizer creates a rest optimizer backed by the given HOS rule engine
func NewOptimizer(hosEngine *hos.RuleEngine) *Optimizer {
	return &Optimizer{
		hosEngine: hosEngine,
		limits:    hosEngine.Limits(),
	}
}

// Recommend produces a rest recommendation for the driver's situation.
// Mandatory recommendations (infeasible trip, break overdue) carry confidence
// 100 and cannot be declined; the rest are advisory.
func (o *Optimizer) Recommend(input Input) (*Result, error) {
	if err := o.validateInput(input); err != nil {
		return nil, err
	}

	compliance, err := o.hosEngine.Validate(input.State)
	if err != nil {
		return nil, err
	}

	feasibility := o.analyzeFeasibility(input)
	opportunity := o.analyzeOpportunity(input)
	cost := o.analyzeCost(input)

	recommendation, duration, reasoning, confidence, canDecline :=
		o.decide(input, feasibility, opportunity, cost)

	afterDrive, afterDuty := o.hoursAfterRest(recommendation, duration, compliance)

	details := make([]string, 0, len(compliance.Checks))
	for _, c := range compliance.Checks {
		details = append(details, c.Message)
	}

	return &Result{
		Recommendation:           recommendation,
		RecommendedDurationHours: duration,
		Reasoning:                reasoning,
		Confidence:               confidence,
		DriverCanDecline:         canDecline,
		IsCompliant:              compliance.IsCompliant,
		ComplianceDetails:        strings.Join(details, "; "),
		HoursRemainingToDrive:    compliance.HoursRemainingToDrive,
		HoursRemainingOnDuty:     compliance.HoursRemainingOnDuty,
		PostLoadDriveFeasible:    feasibility.Feasible || recommendation == FullRest,
		Feasibility:              feasibility,
		Opportunity:              opportunity,
		Cost:                     cost,
		HoursAfterRestDrive:      afterDrive,
		HoursAfterRestDuty:       afterDuty,
	}, nil
}

func (o *Optimizer) validateInput(input Input) error {
	if err := input.State.Validate(); err != nil {
		return err
	}
	if input.DockDurationHours < 0 {
		return shared.NewInvalidInput("dock_duration_hours must not be negative, got %.2f", input.DockDurationHours)
	}
	for i, trip := range input.UpcomingTrips {
		if trip.DriveTimeHours < 0 || trip.DockTimeHours < 0 {
			return shared.NewInvalidInput("trip %d has negative drive or dock time", i)
		}
	}
	return nil
}

// analyzeFeasibility checks whether the upcoming trips fit in the remaining
// drive and duty hours, charging a 30-minute break when one will trigger
// mid-trip. With no trips there is nothing to check and margins are unknown.
func (o *Optimizer) analyzeFeasibility(input Input) FeasibilityAnalysis {
	if len(input.UpcomingTrips) == 0 {
		return FeasibilityAnalysis{
			Feasible:    true,
			DriveMargin: unknownMargin,
			DutyMargin:  unknownMargin,
		}
	}

	var totalDrive, totalDock float64
	for _, trip := range input.UpcomingTrips {
		totalDrive += trip.DriveTimeHours
		totalDock += trip.DockTimeHours
	}
	totalOnDuty := totalDrive + totalDock

	willNeedBreak := input.State.HoursSinceBreak+totalDrive >= o.limits.BreakTriggerHours
	if willNeedBreak {
		totalOnDuty += o.limits.RequiredBreakHours()
	}

	driveRemaining := o.limits.MaxDriveHours - input.State.HoursDriven
	dutyRemaining := o.limits.MaxDutyHours - input.State.OnDutyTime

	driveShortfall := math.Max(0, totalDrive-driveRemaining)
	dutyShortfall := math.Max(0, totalOnDuty-dutyRemaining)

	analysis := FeasibilityAnalysis{
		Feasible:          driveShortfall == 0 && dutyShortfall == 0,
		TotalDriveNeeded:  totalDrive,
		TotalOnDutyNeeded: totalOnDuty,
		WillNeedBreak:     willNeedBreak,
		DriveMargin:       driveRemaining - totalDrive,
		DutyMargin:        dutyRemaining - totalOnDuty,
	}
	if !analysis.Feasible {
		if driveShortfall >= dutyShortfall {
			analysis.LimitingFactor = "drive_limit"
		} else {
			analysis.LimitingFactor = "duty_window"
		}
		analysis.ShortfallHours = math.Max(driveShortfall, dutyShortfall)
	}
	return analysis
}

// analyzeOpportunity scores the value of resting now: dock length (0-30),
// hours recoverable (0-30), and proximity to the HOS ceilings (0-40).
func (o *Optimizer) analyzeOpportunity(input Input) OpportunityAnalysis {
	dock := input.DockDurationHours

	var dockScore float64
	switch {
	case dock >= o.limits.MinRestHours:
		dockScore = 30
	case dock >= o.limits.SleeperSplitLong82:
		dockScore = 20
	case dock >= 2:
		dockScore = 10
	}

	var hoursGainable, hoursScore float64
	if dock >= 2 {
		driveGainable := input.State.HoursDriven
		dutyGainable := input.State.OnDutyTime
		hoursGainable = math.Max(driveGainable, dutyGainable)
		hoursScore = math.Min(30, hoursGainable/o.limits.MaxDriveHours*30)
	}

	driveUtilization := input.State.HoursDriven / o.limits.MaxDriveHours
	dutyUtilization := input.State.OnDutyTime / o.limits.MaxDutyHours
	maxUtilization := math.Max(driveUtilization, dutyUtilization)

	var criticalityScore float64
	switch {
	case maxUtilization >= 0.90:
		criticalityScore = 40
	case maxUtilization >= 0.75:
		criticalityScore = 30
	case maxUtilization >= 0.50:
		criticalityScore = 15
	default:
		criticalityScore = 5
	}

	return OpportunityAnalysis{
		Score:             dockScore + hoursScore + criticalityScore,
		DockScore:         dockScore,
		HoursScore:        hoursScore,
		CriticalityScore:  criticalityScore,
		DockTimeAvailable: dock,
		HoursGainable:     hoursGainable,
	}
}

func (o *Optimizer) analyzeCost(input Input) CostAnalysis {
	dock := input.DockDurationHours
	return CostAnalysis{
		FullRestExtensionHours:    math.Max(0, o.limits.MinRestHours-dock),
		PartialRestExtensionHours: math.Max(0, o.limits.SleeperSplitLong73-dock),
		DockTimeAvailable:         dock,
	}
}

// decide walks the decision lattice top to bottom; the first matching rule
// wins. Returns (recommendation, duration, reasoning, confidence, canDecline).
func (o *Optimizer) decide(
	input Input,
	feasibility FeasibilityAnalysis,
	opportunity OpportunityAnalysis,
	cost CostAnalysis,
) (Recommendation, float64, string, int, bool) {
	// Priority 1: the trip does not fit, so a full rest is mandatory.
	if !feasibility.Feasible {
		if cost.DockTimeAvailable >= 2 {
			return FullRest, o.limits.MinRestHours, fmt.Sprintf(
				"Trip not feasible with current hours. Shortfall: %.1fh (%s). "+
					"Extending dock time (%.1fh) to full %.0fh rest will reset all hours and enable trip completion.",
				feasibility.ShortfallHours, feasibility.LimitingFactor,
				cost.DockTimeAvailable, o.limits.MinRestHours,
			), 100, false
		}
		return FullRest, o.limits.MinRestHours, fmt.Sprintf(
			"Trip not feasible. Must take full %.0fh rest. Dock time (%.1fh) too short to leverage.",
			o.limits.MinRestHours, cost.DockTimeAvailable,
		), 100, false
	}

	// Priority 2: the 8-hour break trigger has fired.
	if input.State.HoursSinceBreak >= o.limits.BreakTriggerHours {
		return Break, o.limits.RequiredBreakHours(), fmt.Sprintf(
			"30-minute break required (driven %.1fh without break). "+
				"Take off-duty break during dock time before continuing.",
			input.State.HoursSinceBreak,
		), 100, false
	}

	// Priority 3: feasible but marginal.
	if feasibility.DriveMargin < 2 || feasibility.DutyMargin < 2 {
		switch {
		case opportunity.Score >= 50 && cost.FullRestExtensionHours <= 5:
			return FullRest, o.limits.MinRestHours, fmt.Sprintf(
				"Trip feasible but marginal (margin: %.1fh drive, %.1fh duty). "+
					"Opportunity score: %.0f/100. Extending rest by %.1fh provides %.1fh gain and better safety margin.",
				feasibility.DriveMargin, feasibility.DutyMargin,
				opportunity.Score, cost.FullRestExtensionHours, opportunity.HoursGainable,
			), 75, true
		case opportunity.Score >= 40 && cost.PartialRestExtensionHours <= 3:
			if cost.DockTimeAvailable >= o.limits.SleeperSplitLong82 {
				return PartialRest82, o.limits.SleeperSplitLong82, fmt.Sprintf(
					"Trip marginal. Consider 8-hour partial rest (8/2 split). Extension needed: %.1fh. "+
						"Provides better recovery than 7/3 split while preserving schedule.",
					math.Max(0, o.limits.SleeperSplitLong82-cost.DockTimeAvailable),
				), 65, true
			}
			return PartialRest73, o.limits.SleeperSplitLong73, fmt.Sprintf(
				"Trip marginal. Consider 7-hour partial rest (7/3 split). Extension needed: %.1fh. "+
					"Provides some recovery while preserving schedule.",
				cost.PartialRestExtensionHours,
			), 65, true
		default:
			return NoRest, 0, fmt.Sprintf(
				"Trip feasible but with tight margins (drive: %.1fh, duty: %.1fh). "+
					"Monitor closely. Plan for rest after delivery.",
				feasibility.DriveMargin, feasibility.DutyMargin,
			), 60, true
		}
	}

	// Priority 4: comfortable margins; rest only as an optimization.
	if opportunity.Score >= 60 && cost.FullRestExtensionHours <= 5 {
		return FullRest, o.limits.MinRestHours, fmt.Sprintf(
			"Trip easily feasible. However, dock time (%.1fh) presents good rest opportunity (score: %.0f/100). "+
				"Extending by %.1fh would gain %.1fh for next shift. Optional optimization.",
			cost.DockTimeAvailable, opportunity.Score,
			cost.FullRestExtensionHours, opportunity.HoursGainable,
		), 55, true
	}
	return NoRest, 0, fmt.Sprintf(
		"Trip easily feasible with %.1fh drive margin and %.1fh duty margin. No rest needed. Continue as planned.",
		feasibility.DriveMargin, feasibility.DutyMargin,
	), 80, true
}

// hoursAfterRest projects remaining drive/duty hours once the recommended
// rest is taken. Partial rests recover +0.5h per rested hour, a placeholder
// for the split-sleeper pairing rules, which credit the long period against
// the duty window rather than granting back hours.
func (o *Optimizer) hoursAfterRest(
	recommendation Recommendation,
	duration float64,
	compliance *hos.ComplianceResult,
) (drive, duty float64) {
	switch recommendation {
	case FullRest:
		return o.limits.MaxDriveHours, o.limits.MaxDutyHours
	case PartialRest73, PartialRest82:
		return compliance.HoursRemainingToDrive + duration*0.5,
			compliance.HoursRemainingOnDuty + duration*0.5
	default:
		return compliance.HoursRemainingToDrive, compliance.HoursRemainingOnDuty
	}
}

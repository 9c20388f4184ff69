package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// SimulationInput is everything the simulator needs for one run
type SimulationInput struct {
	Sequence     []Stop
	DriverState  hos.State
	VehicleState VehicleState
	Matrix       DistanceMatrix
	StartTime    time.Time
}

// SimulationResult is the simulated segment list with totals and compliance
type SimulationResult struct {
	Segments            []RouteSegment
	TotalDistanceMiles  float64
	TotalDriveTimeHours float64
	TotalOnDutyHours    float64
	TotalCostEstimate   float64
	IsFeasible          bool
	FeasibilityIssues   []string
	Compliance          ComplianceReport
	FinalHOS            hos.State
	FinalFuelGal        float64
}

// Simulator walks an ordered stop sequence and emits the segment list that
// executes it, inserting fuel and rest segments where the fuel buffer or the
// drive limit would otherwise be breached. Deterministic for identical inputs
// and provider responses; provider lookups are the only blocking calls.
type Simulator struct {
	limits     hos.Limits
	distance   DistanceProvider
	restAreas  RestAreaProvider
	fuelStops  FuelStopProvider
	fuelBuffer float64
}

// NewSimulator creates a simulator. fuelBuffer is the safety fraction over
// the fuel needed for a leg (0.20 means refuel below 120% of need).
func NewSimulator(
	limits hos.Limits,
	distance DistanceProvider,
	restAreas RestAreaProvider,
	fuelStops FuelStopProvider,
	fuelBuffer float64,
) *Simulator {
	return &Simulator{
		limits:     limits,
		distance:   distance,
		restAreas:  restAreas,
		fuelStops:  fuelStops,
		fuelBuffer: fuelBuffer,
	}
}

// simulationState is the mutable cursor of one run
type simulationState struct {
	hos     hos.State
	fuel    float64
	time    time.Time
	nextSeq int

	segments []RouteSegment
	issues   []string

	totalDistance float64
	totalDrive    float64
	totalOnDuty   float64
	totalCost     float64

	maxDrive      float64
	maxDuty       float64
	maxSinceBreak float64
}

func (st *simulationState) observe() {
	if st.hos.HoursDriven > st.maxDrive {
		st.maxDrive = st.hos.HoursDriven
	}
	if st.hos.OnDutyTime > st.maxDuty {
		st.maxDuty = st.hos.OnDutyTime
	}
	if st.hos.HoursSinceBreak > st.maxSinceBreak {
		st.maxSinceBreak = st.hos.HoursSinceBreak
	}
}

func (st *simulationState) append(seg RouteSegment) {
	seg.SequenceOrder = st.nextSeq
	seg.Status = SegmentPlanned
	st.nextSeq++
	st.segments = append(st.segments, seg)
}

// Simulate runs the sequence. A driver state where hours_driven exceeds
// on_duty_time is a Fatal error: the counters can no longer be trusted.
func (s *Simulator) Simulate(ctx context.Context, input SimulationInput) (*SimulationResult, error) {
	if err := input.DriverState.Validate(); err != nil {
		return nil, err
	}
	if input.DriverState.HoursDriven > input.DriverState.OnDutyTime {
		return nil, shared.NewFatal("",
			"hours_driven (%.2f) exceeds on_duty_time (%.2f)",
			input.DriverState.HoursDriven, input.DriverState.OnDutyTime)
	}
	if err := input.VehicleState.Validate(); err != nil {
		return nil, err
	}

	st := &simulationState{
		hos:         input.DriverState,
		fuel:        input.VehicleState.CurrentFuelGal,
		time:        input.StartTime,
		nextSeq:     1,
		totalOnDuty: input.DriverState.OnDutyTime,
	}
	st.observe()

	for i := 0; i+1 < len(input.Sequence); i++ {
		from := input.Sequence[i]
		to := input.Sequence[i+1]

		leg, ok := input.Matrix.Get(from.ID, to.ID)
		if !ok {
			return nil, shared.NewInsufficientData("no distance for %s -> %s", from.ID, to.ID)
		}
		driveTime := s.distance.DriveTime(leg)

		if err := s.checkFuel(ctx, st, from, to, leg, input.VehicleState); err != nil {
			return nil, err
		}
		if err := s.checkHOS(ctx, st, from, to, driveTime); err != nil {
			return nil, err
		}
		s.drive(st, from, to, leg, driveTime, input.VehicleState)
		s.dock(st, to)
	}

	return &SimulationResult{
		Segments:            st.segments,
		TotalDistanceMiles:  st.totalDistance,
		TotalDriveTimeHours: st.totalDrive,
		TotalOnDutyHours:    st.totalOnDuty,
		TotalCostEstimate:   st.totalCost,
		IsFeasible:          len(st.issues) == 0,
		FeasibilityIssues:   st.issues,
		Compliance: ComplianceReport{
			MaxDriveHoursUsed: st.maxDrive,
			MaxDutyHoursUsed:  st.maxDuty,
			BreaksRequired:    int(st.maxSinceBreak / s.limits.BreakTriggerHours),
			BreaksPlanned:     countRestSegments(st.segments),
			Violations:        st.issues,
		},
		FinalHOS:     st.hos,
		FinalFuelGal: st.fuel,
	}, nil
}

// checkFuel inserts a fuel segment when the tank cannot cover the next leg
// plus the safety buffer. Refueling fills to capacity and costs 15 minutes of
// on-duty time. A provider error counts the same as no station found.
func (s *Simulator) checkFuel(
	ctx context.Context,
	st *simulationState,
	from, to Stop,
	leg Leg,
	vehicle VehicleState,
) error {
	fuelNeeded := leg.Miles / vehicle.MPG
	if st.fuel >= fuelNeeded*(1+s.fuelBuffer) {
		return nil
	}

	current := vehicle
	current.CurrentFuelGal = st.fuel
	plan, err := s.fuelStops.Optimize(ctx, from, to, current)
	if err != nil || plan == nil {
		st.issues = append(st.issues,
			fmt.Sprintf("Fuel low before %s but no fuel station found", to.Name))
		return nil
	}

	st.hos = st.hos.AfterOnDuty(fuelStopDurationHours)
	st.observe()
	st.append(RouteSegment{
		Kind: SegmentFuel,
		Fuel: &FuelDetail{
			Gallons:      plan.GallonsNeeded,
			CostEstimate: plan.EstimatedCost,
			Station:      plan.Station.Name,
		},
		FromPosition:       from.Position,
		ToPosition:         plan.Station.Position,
		HOSStateAfter:      st.hos,
		EstimatedArrival:   st.time,
		EstimatedDeparture: st.time.Add(hoursToDuration(fuelStopDurationHours)),
	})

	st.fuel = vehicle.FuelCapacityGal
	st.time = st.time.Add(hoursToDuration(fuelStopDurationHours))
	st.totalOnDuty += fuelStopDurationHours
	st.totalCost += plan.EstimatedCost
	return nil
}

// checkHOS inserts a 10-hour full rest when the coming leg would push the
// driver over the drive limit. Without a rest area the simulation continues
// and the plan is marked infeasible.
func (s *Simulator) checkHOS(
	ctx context.Context,
	st *simulationState,
	from, to Stop,
	driveTime float64,
) error {
	if st.hos.HoursDriven+driveTime <= s.limits.MaxDriveHours {
		return nil
	}

	restStop, err := s.restAreas.FindAlongRoute(ctx, from, to)
	if err != nil || restStop == nil {
		st.issues = append(st.issues, "HOS limit reached but no rest stop found")
		return nil
	}

	st.hos = st.hos.AfterFullRest()
	st.append(RouteSegment{
		Kind: SegmentRest,
		Rest: &RestDetail{
			Type:          RestFull,
			DurationHours: s.limits.MinRestHours,
			Reason:        "HOS 11h drive limit reached",
			Location:      restStop.Name,
		},
		FromPosition:       from.Position,
		ToPosition:         restStop.Position,
		HOSStateAfter:      st.hos,
		EstimatedArrival:   st.time,
		EstimatedDeparture: st.time.Add(hoursToDuration(s.limits.MinRestHours)),
	})

	st.time = st.time.Add(hoursToDuration(s.limits.MinRestHours))
	return nil
}

func (s *Simulator) drive(
	st *simulationState,
	from, to Stop,
	leg Leg,
	driveTime float64,
	vehicle VehicleState,
) {
	st.hos = st.hos.AfterDrive(driveTime)
	st.observe()

	arrival := st.time.Add(hoursToDuration(driveTime))
	st.append(RouteSegment{
		Kind: SegmentDrive,
		Drive: &DriveDetail{
			DistanceMiles:  leg.Miles,
			DriveTimeHours: driveTime,
			FromStop:       from.Name,
			ToStop:         to.Name,
		},
		FromPosition:       from.Position,
		ToPosition:         to.Position,
		HOSStateAfter:      st.hos,
		EstimatedArrival:   arrival,
		EstimatedDeparture: arrival,
	})

	st.fuel -= leg.Miles / vehicle.MPG
	st.time = arrival
	st.totalDistance += leg.Miles
	st.totalDrive += driveTime
	st.totalOnDuty += driveTime
}

func (s *Simulator) dock(st *simulationState, at Stop) {
	if at.EstimatedDockHours <= 0 {
		return
	}

	customer := at.CustomerName
	if customer == "" {
		customer = at.Name
	}

	st.hos = st.hos.AfterOnDuty(at.EstimatedDockHours)
	st.observe()
	st.append(RouteSegment{
		Kind: SegmentDock,
		Dock: &DockDetail{
			DurationHours: at.EstimatedDockHours,
			Customer:      customer,
			Location:      at.Name,
		},
		FromPosition:       at.Position,
		ToPosition:         at.Position,
		HOSStateAfter:      st.hos,
		EstimatedArrival:   st.time,
		EstimatedDeparture: st.time.Add(hoursToDuration(at.EstimatedDockHours)),
	})

	st.time = st.time.Add(hoursToDuration(at.EstimatedDockHours))
	st.totalOnDuty += at.EstimatedDockHours
}

func countRestSegments(segments []RouteSegment) int {
	count := 0
	for _, seg := range segments {
		if seg.Kind == SegmentRest {
			count++
		}
	}
	return count
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/truckplan-go/internal/domain/dispatch"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

type handlerFixture struct {
	handler  *dispatch.Handler
	store    *recordingStore
	distance *flatDistanceProvider
	clock    *shared.MockClock
}

func newHandlerFixture(t *testing.T, lockTimeout time.Duration) *handlerFixture {
	t.Helper()

	distance := &flatDistanceProvider{miles: 100}
	store := newRecordingStore()
	clock := shared.NewMockClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))

	simulator := planning.NewSimulator(
		hos.DefaultLimits(),
		distance,
		&stubRestAreas{stop: &planning.Stop{ID: "ts-9", Name: "I-40 Travel Center"}},
		&stubFuelStops{},
		0.20,
	)
	engine := planning.NewEngine(
		planning.NewSequencer(100), simulator, distance, store, clock, 5*time.Second)

	return &handlerFixture{
		handler:  dispatch.NewHandler(engine, store, dispatch.DefaultThresholds(), clock, lockTimeout),
		store:    store,
		distance: distance,
		clock:    clock,
	}
}

// activePlan seeds the store with an active plan holding one planned drive
// and one planned dock segment.
func (f *handlerFixture) activePlan(t *testing.T, driverID string) *planning.RoutePlan {
	t.Helper()

	plan := planning.NewRoutePlan(driverID, "truck-4", planning.MinimizeTime)
	plan.Segments = []planning.RouteSegment{
		{
			SequenceOrder: 1,
			Kind:          planning.SegmentDrive,
			Drive: &planning.DriveDetail{
				DistanceMiles: 180, DriveTimeHours: 3.6,
				FromStop: "Little Rock Yard", ToStop: "Memphis DC",
			},
			FromPosition:  shared.LatLon{Lat: 34.7, Lon: -92.3},
			ToPosition:    shared.LatLon{Lat: 35.1, Lon: -90.0},
			HOSStateAfter: hos.State{HoursDriven: 3.6, OnDutyTime: 4.6, HoursSinceBreak: 3.6},
			Status:        planning.SegmentCompleted,
		},
		{
			SequenceOrder: 2,
			Kind:          planning.SegmentDrive,
			Drive: &planning.DriveDetail{
				DistanceMiles: 450, DriveTimeHours: 9,
				FromStop: "Memphis DC", ToStop: "Dallas Terminal",
			},
			FromPosition:  shared.LatLon{Lat: 35.1, Lon: -90.0},
			ToPosition:    shared.LatLon{Lat: 32.8, Lon: -96.8},
			HOSStateAfter: hos.State{HoursDriven: 12.6, OnDutyTime: 13.6, HoursSinceBreak: 12.6},
			Status:        planning.SegmentPlanned,
		},
		{
			SequenceOrder: 3,
			Kind:          planning.SegmentDock,
			Dock:          &planning.DockDetail{DurationHours: 2, Customer: "Lone Star Foods", Location: "Dallas Terminal"},
			FromPosition:  shared.LatLon{Lat: 32.8, Lon: -96.8},
			ToPosition:    shared.LatLon{Lat: 32.8, Lon: -96.8},
			HOSStateAfter: hos.State{HoursDriven: 12.6, OnDutyTime: 15.6, HoursSinceBreak: 14.6},
			Status:        planning.SegmentPlanned,
		},
	}

	require.NoError(t, f.store.CreatePlan(context.Background(), plan))
	require.NoError(t, f.store.Activate(context.Background(), plan.PlanID))
	return plan
}

func TestHandler_DockOverrunTriggersReplan(t *testing.T) {
	// Arrange: a 4.5h dock overrun against a driver already at the limits
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-9")

	// Act
	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID: plan.PlanID,
		Trigger: dispatch.DockTimeChange{
			StopID: "memphis", EstimatedHours: 2.5, ActualHours: 7,
		},
		TriggeredBy:  "driver-app",
		DriverState:  &hos.State{HoursDriven: 11.25, OnDutyTime: 13.75, HoursSinceBreak: 9.25},
		VehicleState: &planning.VehicleState{FuelCapacityGal: 200, CurrentFuelGal: 150, MPG: 6.5},
	})

	// Assert
	require.NoError(t, err)
	assert.True(t, result.ReplanTriggered)
	assert.Equal(t, dispatch.DecisionReplan, result.Decision)
	assert.Equal(t, dispatch.PriorityCritical, result.Priority)
	assert.Equal(t, 1, result.PreviousVersion)
	require.NotNil(t, result.NewVersion)
	assert.Equal(t, 2, *result.NewVersion)

	require.NotNil(t, result.NewPlan)
	assert.Equal(t, 2, result.NewPlan.Version)

	// Prior planned segments are cancelled; the new tail is appended
	assert.Equal(t, planning.SegmentCompleted, result.NewPlan.Segments[0].Status)
	assert.Equal(t, planning.SegmentCancelled, result.NewPlan.Segments[1].Status)
	assert.Equal(t, planning.SegmentCancelled, result.NewPlan.Segments[2].Status)

	// The driver is over the drive limit, so the rebuilt tail opens with a rest
	appended := result.NewPlan.Segments[3:]
	require.NotEmpty(t, appended)
	assert.Equal(t, planning.SegmentRest, appended[0].Kind)
	assert.Equal(t, planning.RestFull, appended[0].Rest.Type)

	update := f.store.lastUpdate()
	require.NotNil(t, update)
	assert.Equal(t, "dock_time_change", update.Type)
	assert.True(t, update.ReplanTriggered)
	assert.Equal(t, 1, update.PreviousVersion)
	require.NotNil(t, update.NewVersion)
	assert.Equal(t, 2, *update.NewVersion)
	assert.Contains(t, update.ReplanReason, "4.5 hours")
	assert.Greater(t, update.Impact.SegmentsAdded, 0)
	assert.Equal(t, 2, update.Impact.SegmentsRemoved)
}

func TestHandler_DriverRestRequestZeroesCounters(t *testing.T) {
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-2")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:       plan.PlanID,
		Trigger:      dispatch.DriverRestRequest{DriverID: "driver-2"},
		TriggeredBy:  "driver-app",
		DriverState:  &hos.State{HoursDriven: 9, OnDutyTime: 11, HoursSinceBreak: 5},
		VehicleState: &planning.VehicleState{FuelCapacityGal: 200, CurrentFuelGal: 150, MPG: 6.5},
	})

	require.NoError(t, err)
	assert.True(t, result.ReplanTriggered)

	// The rebuilt tail starts from a zeroed HOS state: 100 miles at 50 mph
	var firstDrive *planning.RouteSegment
	for i := range result.NewPlan.Segments {
		seg := &result.NewPlan.Segments[i]
		if seg.Status == planning.SegmentPlanned && seg.Kind == planning.SegmentDrive {
			firstDrive = seg
			break
		}
	}
	require.NotNil(t, firstDrive)
	assert.InDelta(t, 2.0, firstDrive.HOSStateAfter.HoursDriven, 1e-9)
}

func TestHandler_MediumPriorityUpdatesETAsOnly(t *testing.T) {
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-3")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:      plan.PlanID,
		Trigger:     dispatch.TrafficDelay{SegmentID: "seg-2", DelayMinutes: 45},
		TriggeredBy: "dispatcher",
	})

	require.NoError(t, err)
	assert.Equal(t, dispatch.DecisionUpdateETAs, result.Decision)
	assert.False(t, result.ReplanTriggered)
	assert.Equal(t, dispatch.PriorityMedium, result.Priority)

	stored, err := f.store.GetPlan(context.Background(), plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)

	update := f.store.lastUpdate()
	require.NotNil(t, update)
	assert.False(t, update.ReplanTriggered)
	assert.InDelta(t, 0.75, update.Impact.ETAShiftHours, 1e-9)
}

func TestHandler_SmallDelayIsNoAction(t *testing.T) {
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-4")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:      plan.PlanID,
		Trigger:     dispatch.TrafficDelay{SegmentID: "seg-2", DelayMinutes: 15},
		TriggeredBy: "dispatcher",
	})

	require.NoError(t, err)
	assert.Equal(t, dispatch.DecisionNoAction, result.Decision)
	assert.False(t, result.ReplanTriggered)
}

func TestHandler_LargeDelayReplans(t *testing.T) {
	// 90 minutes is HIGH priority with a 1.5h impact, over the 1h threshold
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-5")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:       plan.PlanID,
		Trigger:      dispatch.TrafficDelay{SegmentID: "seg-2", DelayMinutes: 90},
		TriggeredBy:  "dispatcher",
		DriverState:  &hos.State{HoursDriven: 4, OnDutyTime: 5, HoursSinceBreak: 2},
		VehicleState: &planning.VehicleState{FuelCapacityGal: 200, CurrentFuelGal: 150, MPG: 6.5},
	})

	require.NoError(t, err)
	assert.Equal(t, dispatch.DecisionReplan, result.Decision)
	assert.True(t, result.ReplanTriggered)
	assert.Equal(t, dispatch.PriorityHigh, result.Priority)
}

func TestHandler_LoadAddedExtendsRoute(t *testing.T) {
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-6")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID: plan.PlanID,
		Trigger: dispatch.LoadAdded{Stop: planning.Stop{
			ID: "new-stop", Name: "Waco Depot",
			Position:           shared.LatLon{Lat: 31.5, Lon: -97.1},
			EstimatedDockHours: 1,
		}},
		TriggeredBy:  "dispatcher",
		DriverState:  &hos.State{HoursDriven: 2, OnDutyTime: 3, HoursSinceBreak: 1},
		VehicleState: &planning.VehicleState{FuelCapacityGal: 200, CurrentFuelGal: 150, MPG: 6.5},
	})

	require.NoError(t, err)
	assert.True(t, result.ReplanTriggered)

	drives := 0
	for _, seg := range result.NewPlan.Segments {
		if seg.Status == planning.SegmentPlanned && seg.Kind == planning.SegmentDrive {
			drives++
		}
	}
	assert.Equal(t, 2, drives)
}

func TestHandler_MissingVehicleStateDegradesToETAUpdate(t *testing.T) {
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-7")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:      plan.PlanID,
		Trigger:     dispatch.DockTimeChange{StopID: "memphis", EstimatedHours: 2, ActualHours: 6},
		TriggeredBy: "driver-app",
		DriverState: &hos.State{HoursDriven: 8, OnDutyTime: 9, HoursSinceBreak: 4},
	})

	require.NoError(t, err)
	assert.Equal(t, dispatch.DecisionUpdateETAs, result.Decision)
	assert.False(t, result.ReplanTriggered)
	assert.Contains(t, result.Reason, "degraded")

	stored, err := f.store.GetPlan(context.Background(), plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
}

func TestHandler_NilTriggerFallsBackToETAUpdate(t *testing.T) {
	f := newHandlerFixture(t, time.Second)
	plan := f.activePlan(t, "driver-8")

	result, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:      plan.PlanID,
		TriggeredBy: "monitor",
	})

	require.NoError(t, err)
	assert.Equal(t, dispatch.DecisionUpdateETAs, result.Decision)
	assert.False(t, result.ReplanTriggered)
}

func TestHandler_MissingPlanIsStorePrecondition(t *testing.T) {
	f := newHandlerFixture(t, time.Second)

	_, err := f.handler.HandleTrigger(context.Background(), dispatch.UpdateRequest{
		PlanID:      "plan-missing",
		Trigger:     dispatch.TrafficDelay{DelayMinutes: 90},
		TriggeredBy: "dispatcher",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorePrecondition)
}

func TestHandler_ConcurrentReplansForSameDriverConflict(t *testing.T) {
	// First replan blocks inside the planning engine; the second times out
	// waiting for the per-driver lock.
	f := newHandlerFixture(t, 25*time.Millisecond)
	plan := f.activePlan(t, "driver-10")

	f.distance.block = make(chan struct{})

	req := dispatch.UpdateRequest{
		PlanID:       plan.PlanID,
		Trigger:      dispatch.DockTimeChange{StopID: "memphis", EstimatedHours: 2, ActualHours: 6},
		TriggeredBy:  "driver-app",
		DriverState:  &hos.State{HoursDriven: 8, OnDutyTime: 9, HoursSinceBreak: 4},
		VehicleState: &planning.VehicleState{FuelCapacityGal: 200, CurrentFuelGal: 150, MPG: 6.5},
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.handler.HandleTrigger(context.Background(), req)
		firstDone <- err
	}()

	// Let the first replan take the lock and block on the provider.
	time.Sleep(10 * time.Millisecond)

	_, err := f.handler.HandleTrigger(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	close(f.distance.block)
	require.NoError(t, <-firstDone)
}

func TestTriggerAssessments(t *testing.T) {
	th := dispatch.DefaultThresholds()

	cases := []struct {
		name     string
		trigger  dispatch.Trigger
		priority dispatch.Priority
		action   string
	}{
		{"hos violation drive", dispatch.HOSViolation{Rule: "drive", Value: 11.5},
			dispatch.PriorityCritical, "MANDATORY_REST_IMMEDIATE"},
		{"hos violation break", dispatch.HOSViolation{Rule: "break", Value: 9},
			dispatch.PriorityCritical, "MANDATORY_BREAK_IMMEDIATE"},
		{"load cancelled", dispatch.LoadCancelled{StopID: "s1"},
			dispatch.PriorityHigh, "RE_SEQUENCE_STOPS"},
		{"dock unavailable", dispatch.DockUnavailable{StopID: "s1"},
			dispatch.PriorityHigh, "SKIP_OR_RESCHEDULE_STOP"},
		{"break required soon", dispatch.BreakRequiredSoon{MinutesUntilBreak: 40},
			dispatch.PriorityMedium, "INSERT_BREAK"},
		{"rest duration changed", dispatch.RestDurationChanged{PlannedHours: 10, ActualHours: 7},
			dispatch.PriorityMedium, "UPDATE_HOS_AND_REPLAN_REMAINING"},
		{"rest duration within tolerance", dispatch.RestDurationChanged{PlannedHours: 10, ActualHours: 9.8},
			dispatch.PriorityLow, "NO_ACTION"},
		{"speed deviation", dispatch.SpeedDeviation{ExpectedMPH: 55, ActualMPH: 40},
			dispatch.PriorityMedium, "UPDATE_ETAS"},
		{"speed within tolerance", dispatch.SpeedDeviation{ExpectedMPH: 55, ActualMPH: 52},
			dispatch.PriorityLow, "NO_ACTION"},
		{"fuel low", dispatch.FuelLow{CurrentGal: 40, CapacityGal: 200, NeededGal: 60},
			dispatch.PriorityHigh, "INSERT_FUEL_STOP"},
		{"fuel critical", dispatch.FuelLow{CurrentGal: 20, CapacityGal: 200, NeededGal: 60},
			dispatch.PriorityCritical, "INSERT_FUEL_STOP"},
		{"fuel fine", dispatch.FuelLow{CurrentGal: 150, CapacityGal: 200, NeededGal: 60},
			dispatch.PriorityLow, "NO_ACTION"},
		{"weather", dispatch.WeatherEvent{Condition: "snow", Severity: "moderate"},
			dispatch.PriorityLow, "NO_ACTION"},
		{"weigh station", dispatch.WeighStationDelay{Location: "I-40 EB", DelayMinutes: 20},
			dispatch.PriorityLow, "NO_ACTION"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := tc.trigger.Assess(th)
			assert.Equal(t, tc.priority, a.Priority)
			assert.Equal(t, tc.action, a.Action)
		})
	}
}

func TestHOSLimitApproaching_ReplanOnlyOnShortfall(t *testing.T) {
	th := dispatch.DefaultThresholds()

	short := dispatch.HOSLimitApproaching{Limit: "drive", HoursRemaining: 2, HoursNeeded: 5}
	a := short.Assess(th)
	assert.Equal(t, dispatch.PriorityHigh, a.Priority)
	assert.True(t, a.ForceReplan)
	assert.InDelta(t, 3.0, a.ImpactHours, 1e-9)

	fits := dispatch.HOSLimitApproaching{Limit: "duty", HoursRemaining: 6, HoursNeeded: 5}
	a = fits.Assess(th)
	assert.False(t, a.ForceReplan)
	assert.Equal(t, "hos_duty_limit_approaching", fits.Type())
}

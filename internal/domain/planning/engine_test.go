package planning_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

func newEngine(distance *fakeDistanceProvider, store planning.PlanStore, clock shared.Clock) *planning.Engine {
	sim := planning.NewSimulator(
		hos.DefaultLimits(),
		distance,
		&stubRestAreas{stop: &planning.Stop{ID: "ts-1", Name: "Flying J"}},
		&stubFuelStops{},
		0.20,
	)
	return planning.NewEngine(planning.NewSequencer(100), sim, distance, store, clock, 5*time.Second)
}

func engineFixture() (*fakeDistanceProvider, planning.PlanRequest) {
	distance := newFakeDistanceProvider()
	distance.addLeg("origin", "stop-a", 120, planning.RoadInterstate)
	distance.addLeg("origin", "dest", 300, planning.RoadHighway)
	distance.addLeg("stop-a", "dest", 200, planning.RoadHighway)

	req := planning.PlanRequest{
		DriverID:  "driver-7",
		VehicleID: "truck-12",
		DriverState: hos.State{
			HoursDriven: 1, OnDutyTime: 2, HoursSinceBreak: 1,
		},
		VehicleState: planning.VehicleState{FuelCapacityGal: 200, CurrentFuelGal: 180, MPG: 6.5},
		Stops: []planning.Stop{
			{ID: "origin", Name: "Atlanta Yard", IsOrigin: true},
			{ID: "stop-a", Name: "Birmingham DC", EstimatedDockHours: 1.5},
			{ID: "dest", Name: "Jackson Terminal", IsDestination: true},
		},
		Priority: planning.MinimizeTime,
	}
	return distance, req
}

func TestEngine_PlanRoute_BuildsAndPersistsDraft(t *testing.T) {
	// Arrange
	distance, req := engineFixture()
	store := newMemoryPlanStore()
	clock := shared.NewMockClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	engine := newEngine(distance, store, clock)

	// Act
	plan, err := engine.PlanRoute(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, planning.PlanDraft, plan.Status)
	assert.Equal(t, 1, plan.Version)
	assert.False(t, plan.IsActive)
	assert.Equal(t, "driver-7", plan.DriverID)
	assert.True(t, plan.IsFeasible)
	assert.InDelta(t, 320.0, plan.TotalDistanceMiles, 1e-9)
	// 120mi at 60mph + 200mi at 50mph
	assert.InDelta(t, 6.0, plan.TotalDriveTimeHours, 1e-9)
	require.NotEmpty(t, plan.Segments)

	stored, err := store.GetPlan(context.Background(), plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanID, stored.PlanID)
}

func TestEngine_PlanRoute_DeterministicForFixedClock(t *testing.T) {
	distance, req := engineFixture()
	store := newMemoryPlanStore()
	clock := shared.NewMockClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	engine := newEngine(distance, store, clock)

	first, err := engine.PlanRoute(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.PlanRoute(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.PlanID, second.PlanID)
	assert.Equal(t, first.Segments, second.Segments)
	assert.Equal(t, first.TotalDistanceMiles, second.TotalDistanceMiles)
	assert.Equal(t, first.Compliance, second.Compliance)
}

func TestEngine_PlanRoute_RetriesDistanceLookupOnce(t *testing.T) {
	// Arrange: first lookup of one pair fails, the retry succeeds
	distance, req := engineFixture()
	distance.failTimes("origin", "stop-a", 1)
	store := newMemoryPlanStore()
	clock := shared.NewMockClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	engine := newEngine(distance, store, clock)

	// Act
	plan, err := engine.PlanRoute(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.True(t, plan.IsFeasible)
	// 3 pairs + 1 retry
	assert.Equal(t, 4, distance.calls)
}

func TestEngine_PlanRoute_SecondFailureIsInsufficientData(t *testing.T) {
	distance, req := engineFixture()
	distance.failTimes("origin", "stop-a", 2)
	store := newMemoryPlanStore()
	clock := shared.NewMockClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	engine := newEngine(distance, store, clock)

	_, err := engine.PlanRoute(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientData)
	assert.Empty(t, store.plans)
}

func TestEngine_PlanRoute_RequestValidation(t *testing.T) {
	distance, req := engineFixture()
	store := newMemoryPlanStore()
	clock := shared.NewMockClock(time.Time{})
	engine := newEngine(distance, store, clock)
	ctx := context.Background()

	// Too few stops
	short := req
	short.Stops = req.Stops[:1]
	_, err := engine.PlanRoute(ctx, short)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// No origin
	noOrigin := req
	noOrigin.Stops = []planning.Stop{
		{ID: "origin", Name: "Atlanta Yard"},
		{ID: "dest", Name: "Jackson Terminal", IsDestination: true},
	}
	_, err = engine.PlanRoute(ctx, noOrigin)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// Two origins
	twoOrigins := req
	twoOrigins.Stops = []planning.Stop{
		{ID: "origin", IsOrigin: true},
		{ID: "stop-a", IsOrigin: true},
	}
	_, err = engine.PlanRoute(ctx, twoOrigins)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// Two destinations
	twoDests := req
	twoDests.Stops = []planning.Stop{
		{ID: "origin", IsOrigin: true},
		{ID: "stop-a", IsDestination: true},
		{ID: "dest", IsDestination: true},
	}
	_, err = engine.PlanRoute(ctx, twoDests)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	// Missing driver
	noDriver := req
	noDriver.DriverID = ""
	_, err = engine.PlanRoute(ctx, noDriver)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.Empty(t, store.plans)
}

package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/truckplan-go/internal/adapters/persistence"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
	"github.com/fleetyard/truckplan-go/test/helpers"
)

func seedPlan(t *testing.T, repo *persistence.PlanRepositoryGORM, driverID string) *planning.RoutePlan {
	t.Helper()

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	plan := planning.NewRoutePlan(driverID, "truck-12", planning.MinimizeTime)
	plan.TotalDistanceMiles = 650
	plan.TotalDriveTimeHours = 13
	plan.TotalOnDutyHours = 14
	plan.IsFeasible = true
	plan.Compliance = planning.ComplianceReport{
		MaxDriveHoursUsed: 8,
		MaxDutyHoursUsed:  9,
		BreaksRequired:    1,
		BreaksPlanned:     1,
	}
	plan.Segments = []planning.RouteSegment{
		{
			SequenceOrder: 1,
			Kind:          planning.SegmentDrive,
			Drive: &planning.DriveDetail{
				DistanceMiles: 250, DriveTimeHours: 5,
				FromStop: "Chicago Warehouse", ToStop: "Memphis DC",
			},
			FromPosition:       shared.LatLon{Lat: 41.88, Lon: -87.63},
			ToPosition:         shared.LatLon{Lat: 35.15, Lon: -90.05},
			HOSStateAfter:      hos.State{HoursDriven: 5, OnDutyTime: 6, HoursSinceBreak: 5},
			EstimatedArrival:   start.Add(5 * time.Hour),
			EstimatedDeparture: start.Add(5 * time.Hour),
			Status:             planning.SegmentPlanned,
		},
		{
			SequenceOrder: 2,
			Kind:          planning.SegmentDock,
			Dock:          &planning.DockDetail{DurationHours: 1, Customer: "MidSouth Foods", Location: "Memphis DC"},
			FromPosition:  shared.LatLon{Lat: 35.15, Lon: -90.05},
			ToPosition:    shared.LatLon{Lat: 35.15, Lon: -90.05},
			HOSStateAfter: hos.State{HoursDriven: 5, OnDutyTime: 7, HoursSinceBreak: 6},
			Status:        planning.SegmentPlanned,
		},
	}

	require.NoError(t, repo.CreatePlan(context.Background(), plan))
	return plan
}

func TestPlanRepository_CreateAndGetRoundTrip(t *testing.T) {
	// Arrange
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-1")

	// Act
	loaded, err := repo.GetPlan(context.Background(), plan.PlanID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, plan.PlanID, loaded.PlanID)
	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, planning.PlanDraft, loaded.Status)
	assert.Equal(t, planning.MinimizeTime, loaded.OptimizationPriority)
	assert.InDelta(t, 650, loaded.TotalDistanceMiles, 1e-9)
	assert.Equal(t, 1, loaded.Compliance.BreaksRequired)

	require.Len(t, loaded.Segments, 2)
	drive := loaded.Segments[0]
	assert.Equal(t, planning.SegmentDrive, drive.Kind)
	require.NotNil(t, drive.Drive)
	assert.Equal(t, "Memphis DC", drive.Drive.ToStop)
	assert.InDelta(t, 5, drive.HOSStateAfter.HoursDriven, 1e-9)
	assert.Equal(t, plan.Segments[0].EstimatedArrival, drive.EstimatedArrival.UTC())

	dock := loaded.Segments[1]
	require.NotNil(t, dock.Dock)
	assert.Equal(t, "MidSouth Foods", dock.Dock.Customer)
}

func TestPlanRepository_GetMissingPlanFails(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))

	_, err := repo.GetPlan(context.Background(), "plan-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorePrecondition)
}

func TestPlanRepository_ActivateDeactivatesSiblings(t *testing.T) {
	// Arrange: two draft plans for the same driver
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	first := seedPlan(t, repo, "driver-2")
	second := seedPlan(t, repo, "driver-2")

	// Act
	require.NoError(t, repo.Activate(context.Background(), first.PlanID))
	require.NoError(t, repo.Activate(context.Background(), second.PlanID))

	// Assert: only the second stays active
	active, err := repo.GetActivePlanByDriver(context.Background(), "driver-2")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.PlanID, active.PlanID)

	reloaded, err := repo.GetPlan(context.Background(), first.PlanID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestPlanRepository_ActivateRejectsNonDraft(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-3")
	require.NoError(t, repo.Activate(context.Background(), plan.PlanID))

	err := repo.Activate(context.Background(), plan.PlanID)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorePrecondition)
}

func TestPlanRepository_CompleteAndCancelLifecycle(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-4")

	// A draft plan cannot complete
	err := repo.Complete(context.Background(), plan.PlanID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorePrecondition)

	require.NoError(t, repo.Activate(context.Background(), plan.PlanID))
	require.NoError(t, repo.Complete(context.Background(), plan.PlanID))

	loaded, err := repo.GetPlan(context.Background(), plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, planning.PlanCompleted, loaded.Status)
	assert.False(t, loaded.IsActive)

	// Completed plans cannot be cancelled
	err = repo.Cancel(context.Background(), plan.PlanID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorePrecondition)
}

func TestPlanRepository_SegmentStatusTransitions(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-5")
	segID := plan.Segments[0].ID
	require.NotZero(t, segID)

	// planned -> in_progress -> completed is legal
	require.NoError(t, repo.SetSegmentStatus(context.Background(), segID, planning.SegmentInProgress))
	require.NoError(t, repo.SetSegmentStatus(context.Background(), segID, planning.SegmentCompleted))

	// completed is terminal
	err := repo.SetSegmentStatus(context.Background(), segID, planning.SegmentInProgress)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorePrecondition)

	loaded, err := repo.GetPlan(context.Background(), plan.PlanID)
	require.NoError(t, err)
	completed := loaded.Segments[0]
	assert.Equal(t, planning.SegmentCompleted, completed.Status)
	assert.NotNil(t, completed.ActualArrival)
	assert.NotNil(t, completed.ActualDeparture)
}

func TestPlanRepository_CurrentAndRemainingSegments(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-6")

	// With nothing started, the first planned segment is current
	current, err := repo.CurrentSegment(context.Background(), plan.PlanID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, 1, current.SequenceOrder)

	require.NoError(t, repo.SetSegmentStatus(context.Background(), plan.Segments[0].ID, planning.SegmentInProgress))

	current, err = repo.CurrentSegment(context.Background(), plan.PlanID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, planning.SegmentInProgress, current.Status)

	remaining, err := repo.RemainingSegments(context.Background(), plan.PlanID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 2, remaining[0].SequenceOrder)
}

func TestPlanRepository_ReplanBumpsVersionAtomically(t *testing.T) {
	// Arrange: an active plan with one completed and one planned segment
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-7")
	require.NoError(t, repo.Activate(context.Background(), plan.PlanID))
	require.NoError(t, repo.SetSegmentStatus(context.Background(), plan.Segments[0].ID, planning.SegmentCompleted))

	rebuilt := planning.NewRoutePlan("driver-7", "truck-12", planning.MinimizeTime)
	rebuilt.TotalDistanceMiles = 400
	rebuilt.TotalDriveTimeHours = 8
	rebuilt.TotalOnDutyHours = 9
	rebuilt.IsFeasible = true
	rebuilt.Segments = []planning.RouteSegment{
		{
			SequenceOrder: 1,
			Kind:          planning.SegmentDrive,
			Drive: &planning.DriveDetail{
				DistanceMiles: 400, DriveTimeHours: 8,
				FromStop: "Memphis DC", ToStop: "Dallas Terminal",
			},
			HOSStateAfter: hos.State{HoursDriven: 8, OnDutyTime: 9, HoursSinceBreak: 8},
			Status:        planning.SegmentPlanned,
		},
	}

	update := planning.NewPlanUpdate(plan.PlanID, "dock_time_change", "driver-app",
		time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	update.PreviousVersion = 1
	update.ReplanTriggered = true
	update.Impact = planning.ImpactSummary{SegmentsAdded: 1, SegmentsRemoved: 1}

	// Act
	newPlan, err := repo.Replan(context.Background(), plan.PlanID, rebuilt, update)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, newPlan.Version)
	require.NotNil(t, update.NewVersion)
	assert.Equal(t, 2, *update.NewVersion)
	assert.InDelta(t, 400, newPlan.TotalDistanceMiles, 1e-9)

	// Old planned segment cancelled, rebuilt tail appended after it
	require.Len(t, newPlan.Segments, 3)
	assert.Equal(t, planning.SegmentCompleted, newPlan.Segments[0].Status)
	assert.Equal(t, planning.SegmentCancelled, newPlan.Segments[1].Status)
	assert.Equal(t, planning.SegmentPlanned, newPlan.Segments[2].Status)
	assert.Equal(t, 3, newPlan.Segments[2].SequenceOrder)

	updates, err := repo.GetUpdates(context.Background(), plan.PlanID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.True(t, updates[0].ReplanTriggered)
	assert.Equal(t, 1, updates[0].PreviousVersion)
}

func TestPlanRepository_ReplanDetectsVersionConflict(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-8")

	rebuilt := planning.NewRoutePlan("driver-8", "truck-12", planning.MinimizeTime)
	update := planning.NewPlanUpdate(plan.PlanID, "traffic_delay", "dispatcher",
		time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC))
	update.PreviousVersion = 7 // stale

	_, err := repo.Replan(context.Background(), plan.PlanID, rebuilt, update)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestPlanRepository_AppendUpdateAndSegment(t *testing.T) {
	repo := persistence.NewPlanRepository(helpers.NewTestDB(t))
	plan := seedPlan(t, repo, "driver-9")

	update := planning.NewPlanUpdate(plan.PlanID, "traffic_delay", "dispatcher",
		time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	update.PreviousVersion = 1
	update.Impact = planning.ImpactSummary{ETAShiftHours: 0.75, Description: "UPDATE_ETAS"}
	require.NoError(t, repo.AppendUpdate(context.Background(), update))

	seg := &planning.RouteSegment{
		Kind:          planning.SegmentRest,
		Rest:          &planning.RestDetail{Type: planning.RestBreak, DurationHours: 0.5, Reason: "30-minute break"},
		HOSStateAfter: hos.State{HoursDriven: 5, OnDutyTime: 7.5},
		Status:        planning.SegmentPlanned,
	}
	require.NoError(t, repo.AppendSegment(context.Background(), plan.PlanID, seg))
	assert.Equal(t, 3, seg.SequenceOrder)

	updates, err := repo.GetUpdates(context.Background(), plan.PlanID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.InDelta(t, 0.75, updates[0].Impact.ETAShiftHours, 1e-9)
	assert.Nil(t, updates[0].NewVersion)
}

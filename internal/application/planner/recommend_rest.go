package planner

import (
	"context"
	"fmt"

	"github.com/fleetyard/truckplan-go/internal/adapters/metrics"
	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/rest"
)

// RecommendRestQuery asks whether the driver should rest during upcoming dock
// time. Callers either supply the multi-trip horizon or, for the single-trip
// case, just PostLoadDriveHours.
type RecommendRestQuery struct {
	State             hos.State
	DockDurationHours float64
	UpcomingTrips     []rest.TripRequirement
	CurrentLocation   string

	// PostLoadDriveHours is the single-trip shorthand: drive time expected
	// after the current dock. Ignored when UpcomingTrips is set.
	PostLoadDriveHours float64
}

// RecommendRestResponse carries the recommendation and its analyses
type RecommendRestResponse struct {
	Result *rest.Result
}

// RecommendRestHandler handles the RecommendRest query
type RecommendRestHandler struct {
	optimizer *rest.Optimizer
}

// NewRecommendRestHandler creates a new RecommendRestHandler
func NewRecommendRestHandler(optimizer *rest.Optimizer) *RecommendRestHandler {
	return &RecommendRestHandler{optimizer: optimizer}
}

// Handle produces a rest recommendation
func (h *RecommendRestHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*RecommendRestQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RecommendRestQuery")
	}

	trips := query.UpcomingTrips
	if len(trips) == 0 && query.PostLoadDriveHours > 0 {
		trips = []rest.TripRequirement{{DriveTimeHours: query.PostLoadDriveHours}}
	}

	result, err := h.optimizer.Recommend(rest.Input{
		State:             query.State,
		DockDurationHours: query.DockDurationHours,
		UpcomingTrips:     trips,
		CurrentLocation:   query.CurrentLocation,
	})
	if err != nil {
		return nil, err
	}

	if result.RecommendedDurationHours > 0 {
		metrics.RecordRestPlanned(string(result.Recommendation), result.RecommendedDurationHours)
	}

	common.LoggerFromContext(ctx).Log("info", "rest recommendation produced", map[string]interface{}{
		"recommendation": string(result.Recommendation),
		"confidence":     result.Confidence,
		"can_decline":    result.DriverCanDecline,
	})

	return &RecommendRestResponse{Result: result}, nil
}

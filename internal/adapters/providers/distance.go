// Package providers contains the static implementations of the distance,
// rest-area, and fuel-stop ports. They run on a built-in catalog and a
// haversine road approximation; a routing or fuel-price API would slot in
// behind the same interfaces.
package providers

import (
	"context"

	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// roadFactor converts straight-line miles into an approximation of road miles
const roadFactor = 1.2

// HaversineDistanceProvider resolves legs from stop coordinates. Distances
// are great-circle miles times the road factor; never fails.
type HaversineDistanceProvider struct {
	road planning.RoadClass
}

// NewHaversineDistanceProvider creates a provider that labels every leg with
// the given road class. An empty class defaults to highway.
func NewHaversineDistanceProvider(road planning.RoadClass) *HaversineDistanceProvider {
	if road == "" {
		road = planning.RoadHighway
	}
	return &HaversineDistanceProvider{road: road}
}

func (p *HaversineDistanceProvider) Distance(_ context.Context, from, to planning.Stop) (planning.Leg, error) {
	return planning.Leg{
		Miles: from.Position.DistanceTo(to.Position) * roadFactor,
		Road:  p.road,
	}, nil
}

// DriveTime estimates hours for a leg from the road class's average speed
func (p *HaversineDistanceProvider) DriveTime(leg planning.Leg) float64 {
	speed := 55.0
	switch leg.Road {
	case planning.RoadInterstate:
		speed = 60
	case planning.RoadHighway:
		speed = 50
	case planning.RoadCity:
		speed = 30
	}
	return leg.Miles / speed
}

package providers

import (
	"context"
	"sort"

	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// midpointSearchRadiusMiles bounds the rest-area search around a leg midpoint
const midpointSearchRadiusMiles = 25.0

// CatalogRestAreaProvider finds truck stops from a static catalog of major
// interstate locations. Along-route lookups search around the leg midpoint.
type CatalogRestAreaProvider struct {
	stops []planning.Stop
}

// NewCatalogRestAreaProvider creates a provider over the built-in catalog
func NewCatalogRestAreaProvider() *CatalogRestAreaProvider {
	return &CatalogRestAreaProvider{stops: truckStopCatalog()}
}

// NewRestAreaProviderWithCatalog creates a provider over a custom catalog
func NewRestAreaProviderWithCatalog(stops []planning.Stop) *CatalogRestAreaProvider {
	return &CatalogRestAreaProvider{stops: stops}
}

// FindAlongRoute returns the truck stop nearest the midpoint of the leg, or
// nil when none is within the search radius.
func (p *CatalogRestAreaProvider) FindAlongRoute(ctx context.Context, from, to planning.Stop) (*planning.Stop, error) {
	mid := from.Position.Midpoint(to.Position)
	nearby, err := p.FindNear(ctx, mid, midpointSearchRadiusMiles)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, nil
	}
	return &nearby[0], nil
}

// FindNear returns catalog stops within the radius, nearest first
func (p *CatalogRestAreaProvider) FindNear(_ context.Context, pos shared.LatLon, radiusMiles float64) ([]planning.Stop, error) {
	var nearby []planning.Stop
	for _, stop := range p.stops {
		if pos.DistanceTo(stop.Position) <= radiusMiles {
			nearby = append(nearby, stop)
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		return pos.DistanceTo(nearby[i].Position) < pos.DistanceTo(nearby[j].Position)
	})
	return nearby, nil
}

// truckStopCatalog is the static set of major truck stops. A live source
// (Pilot Flying J, Love's, TA/Petro APIs) would replace it.
func truckStopCatalog() []planning.Stop {
	return []planning.Stop{
		{
			ID:       "ts-i80-exit-123",
			Name:     "Pilot Travel Center - I-80 Exit 123",
			Position: shared.LatLon{Lat: 41.2565, Lon: -95.9345},
			Kind:     planning.StopTruckStop,
		},
		{
			ID:       "ts-i80-exit-145",
			Name:     "Love's Travel Stop - I-80 Exit 145",
			Position: shared.LatLon{Lat: 41.1234, Lon: -96.1234},
			Kind:     planning.StopTruckStop,
		},
		{
			ID:       "ts-i5-exit-200",
			Name:     "TA Travel Center - I-5 Exit 200",
			Position: shared.LatLon{Lat: 34.0522, Lon: -118.2437},
			Kind:     planning.StopTruckStop,
		},
		{
			ID:       "ts-i95-exit-50",
			Name:     "Petro Stopping Center - I-95 Exit 50",
			Position: shared.LatLon{Lat: 39.7392, Lon: -104.9903},
			Kind:     planning.StopTruckStop,
		},
		{
			ID:       "ts-i40-exit-100",
			Name:     "Flying J - I-40 Exit 100",
			Position: shared.LatLon{Lat: 35.4676, Lon: -97.5164},
			Kind:     planning.StopTruckStop,
		},
	}
}

package providers

import (
	"context"
	"sort"

	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

const (
	// fuelSearchRadiusMiles bounds the station search around the leg start
	fuelSearchRadiusMiles = 30.0

	// lowFuelFraction marks the critical level below which the tank is
	// filled to capacity rather than to need plus buffer.
	lowFuelFraction = 0.25
)

// fuelStation is a catalog entry with its posted diesel price
type fuelStation struct {
	stop        planning.Stop
	pricePerGal float64
}

// CatalogFuelStopProvider picks the cheapest station near the leg start from
// a static price catalog.
type CatalogFuelStopProvider struct {
	stations   []fuelStation
	fuelBuffer float64
}

// NewCatalogFuelStopProvider creates a provider over the built-in catalog.
// fuelBuffer is the safety fraction over the fuel needed for the remaining
// distance.
func NewCatalogFuelStopProvider(fuelBuffer float64) *CatalogFuelStopProvider {
	return &CatalogFuelStopProvider{
		stations:   fuelStationCatalog(),
		fuelBuffer: fuelBuffer,
	}
}

// Optimize returns a refuel plan for the leg, or nil when the tank already
// covers it with the buffer or no station is in range.
func (p *CatalogFuelStopProvider) Optimize(_ context.Context, from, to planning.Stop, vehicle planning.VehicleState) (*planning.FuelPlan, error) {
	remaining := from.Position.DistanceTo(to.Position) * roadFactor
	needed := remaining / vehicle.MPG
	if vehicle.CurrentFuelGal >= needed*(1+p.fuelBuffer) {
		return nil, nil
	}

	gallons := needed*(1+p.fuelBuffer) - vehicle.CurrentFuelGal
	if vehicle.CurrentFuelGal/vehicle.FuelCapacityGal < lowFuelFraction {
		gallons = vehicle.FuelCapacityGal - vehicle.CurrentFuelGal
	}

	var nearby []fuelStation
	for _, station := range p.stations {
		if from.Position.DistanceTo(station.stop.Position) <= fuelSearchRadiusMiles {
			nearby = append(nearby, station)
		}
	}
	if len(nearby) == 0 {
		return nil, nil
	}
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].pricePerGal < nearby[j].pricePerGal
	})

	best := nearby[0]
	return &planning.FuelPlan{
		Station:       best.stop,
		GallonsNeeded: gallons,
		PricePerGal:   best.pricePerGal,
		EstimatedCost: gallons * best.pricePerGal,
	}, nil
}

// fuelStationCatalog is the static diesel price list. A price feed would
// replace it.
func fuelStationCatalog() []fuelStation {
	return []fuelStation{
		{
			stop: planning.Stop{
				ID:       "fuel-i80-exit-120",
				Name:     "Pilot Fuel - I-80 Exit 120",
				Position: shared.LatLon{Lat: 41.2500, Lon: -95.9000},
				Kind:     planning.StopFuelStation,
			},
			pricePerGal: 3.89,
		},
		{
			stop: planning.Stop{
				ID:       "fuel-i80-exit-140",
				Name:     "Love's Diesel - I-80 Exit 140",
				Position: shared.LatLon{Lat: 41.1000, Lon: -96.1000},
				Kind:     planning.StopFuelStation,
			},
			pricePerGal: 3.95,
		},
		{
			stop: planning.Stop{
				ID:       "fuel-i5-exit-198",
				Name:     "TA Fuel - I-5 Exit 198",
				Position: shared.LatLon{Lat: 34.0400, Lon: -118.2500},
				Kind:     planning.StopFuelStation,
			},
			pricePerGal: 4.15,
		},
		{
			stop: planning.Stop{
				ID:       "fuel-i95-exit-48",
				Name:     "Flying J Diesel - I-95 Exit 48",
				Position: shared.LatLon{Lat: 39.7300, Lon: -104.9800},
				Kind:     planning.StopFuelStation,
			},
			pricePerGal: 3.79,
		},
	}
}

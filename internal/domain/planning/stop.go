package planning

import (
	"time"

	"github.com/fleetyard/truckplan-go/internal/domain/shared"
)

// StopKind classifies a stop in the network
type StopKind string

const (
	StopWarehouse          StopKind = "warehouse"
	StopCustomer           StopKind = "customer"
	StopDistributionCenter StopKind = "distribution_center"
	StopTruckStop          StopKind = "truck_stop"
	StopServiceArea        StopKind = "service_area"
	StopFuelStation        StopKind = "fuel_station"
)

// Stop is a location a plan may visit. At most one stop per planning request
// is the origin and at most one the destination.
type Stop struct {
	ID                 string
	Name               string
	Position           shared.LatLon
	Kind               StopKind
	IsOrigin           bool
	IsDestination      bool
	EarliestArrival    *time.Time
	LatestArrival      *time.Time
	EstimatedDockHours float64
	CustomerName       string
}

// VehicleState is the truck's fuel situation at planning time
type VehicleState struct {
	FuelCapacityGal float64
	CurrentFuelGal  float64
	MPG             float64
}

/// Validate checks the fuel invariants: positive capacity and mpg, and a fuel
// level within tank bounds.
func (v VehicleState) Validate() error {
	if v.FuelCapacityGal <= 0 {
		return shared.NewInvalidInput("fuel_capacity_gal must be positive, got %.2f", v.FuelCapacityGal)
	}
	if v.MPG <= 0 {
		return shared.NewInvalidInput("mpg must be positive, got %.2f", v.MPG)
	}
	if v.CurrentFuelGal < 0 || v.CurrentFuelGal > v.FuelCapacityGal {
		return shared.NewInvalidInput(
			"current_fuel_gal must be between 0 and capacity (%.2f), got %.2f",
			v.FuelCapacityGal, v.CurrentFuelGal)
	}
	return nil
}

// RangeMiles returns how far the truck can go on the current fuel
func (v VehicleState) RangeMiles() float64 {
	return v.CurrentFuelGal * v.MPG
}

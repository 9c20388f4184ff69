package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/fleetyard/truckplan-go/internal/adapters/metrics"
	"github.com/fleetyard/truckplan-go/internal/adapters/persistence"
	"github.com/fleetyard/truckplan-go/internal/adapters/providers"
	"github.com/fleetyard/truckplan-go/internal/application/common"
	"github.com/fleetyard/truckplan-go/internal/application/planner"
	"github.com/fleetyard/truckplan-go/internal/domain/dispatch"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
	"github.com/fleetyard/truckplan-go/internal/domain/rest"
	"github.com/fleetyard/truckplan-go/internal/domain/shared"
	"github.com/fleetyard/truckplan-go/internal/infrastructure/config"
	"github.com/fleetyard/truckplan-go/internal/infrastructure/database"
)

// app is the wired application behind every CLI command
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	store    planning.PlanStore
	mediator common.Mediator
}

// newApp loads configuration and wires the full planning stack
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if cfg.Metrics.Enabled && !metrics.IsEnabled() {
		metrics.InitRegistry()
		collector := metrics.NewPlanningMetricsCollector()
		if err := collector.Register(); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		metrics.SetGlobalCollector(collector)
	}

	store := persistence.NewPlanRepository(db)
	clock := &shared.RealClock{}
	limits := cfg.Planning.HOS.Limits()

	distance := providers.NewHaversineDistanceProvider("")
	restAreas := providers.NewCatalogRestAreaProvider()
	fuelStops := providers.NewCatalogFuelStopProvider(cfg.Planning.FuelBuffer)

	simulator := planning.NewSimulator(limits, distance, restAreas, fuelStops, cfg.Planning.FuelBuffer)
	engine := planning.NewEngine(
		planning.NewSequencer(cfg.Planning.TwoOptIterations),
		simulator,
		distance,
		store,
		clock,
		cfg.Planning.DistanceTimeout,
	)
	dispatcher := dispatch.NewHandler(
		engine,
		store,
		cfg.Dispatch.Thresholds(cfg.Planning.FuelBuffer),
		clock,
		cfg.Dispatch.LockTimeout,
	)
	rules := hos.NewRuleEngine(limits)
	optimizer := rest.NewOptimizer(rules)

	m := common.NewMediator()
	if err := planner.RegisterHandlers(m, engine, store, dispatcher, rules, optimizer); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to register handlers: %w", err)
	}

	return &app{cfg: cfg, db: db, store: store, mediator: m}, nil
}

// Close releases the application's resources
func (a *app) Close() {
	_ = database.Close(a.db)
}

// commandContext builds the context for one command invocation
func commandContext() context.Context {
	ctx := context.Background()
	if verbose {
		ctx = common.WithLogger(ctx, &common.StdLogger{})
	}
	return ctx
}

// stopFile is the JSON wire format for the --stops file
type stopFile struct {
	Stops []stopEntry `json:"stops"`
}

type stopEntry struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Kind            string  `json:"kind"`
	IsOrigin        bool    `json:"is_origin"`
	IsDestination   bool    `json:"is_destination"`
	DockHours       float64 `json:"dock_hours"`
	CustomerName    string  `json:"customer_name"`
	EarliestArrival string  `json:"earliest_arrival"`
	LatestArrival   string  `json:"latest_arrival"`
}

// loadStops reads and converts the stops JSON file
func loadStops(path string) ([]planning.Stop, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stops file: %w", err)
	}

	var file stopFile
	if err := json.Unmarshal(data, &file); err != nil {
		// Also accept a bare JSON array of stops
		var entries []stopEntry
		if arrErr := json.Unmarshal(data, &entries); arrErr != nil {
			return nil, fmt.Errorf("failed to parse stops file: %w", err)
		}
		file.Stops = entries
	}

	stops := make([]planning.Stop, 0, len(file.Stops))
	for i, e := range file.Stops {
		stop := planning.Stop{
			ID:                 e.ID,
			Name:               e.Name,
			Position:           shared.LatLon{Lat: e.Lat, Lon: e.Lon},
			Kind:               planning.StopKind(e.Kind),
			IsOrigin:           e.IsOrigin,
			IsDestination:      e.IsDestination,
			EstimatedDockHours: e.DockHours,
			CustomerName:       e.CustomerName,
		}
		if stop.Kind == "" {
			stop.Kind = planning.StopCustomer
		}
		if e.EarliestArrival != "" {
			at, err := time.Parse(time.RFC3339, e.EarliestArrival)
			if err != nil {
				return nil, fmt.Errorf("stop %d: invalid earliest_arrival: %w", i, err)
			}
			stop.EarliestArrival = &at
		}
		if e.LatestArrival != "" {
			at, err := time.Parse(time.RFC3339, e.LatestArrival)
			if err != nil {
				return nil, fmt.Errorf("stop %d: invalid latest_arrival: %w", i, err)
			}
			stop.LatestArrival = &at
		}
		stops = append(stops, stop)
	}
	return stops, nil
}

// printPlan writes a human-readable plan summary
func printPlan(plan *planning.RoutePlan) {
	fmt.Printf("Plan:      %s (v%d, %s)\n", plan.PlanID, plan.Version, plan.Status)
	fmt.Printf("Driver:    %s  Vehicle: %s\n", plan.DriverID, plan.VehicleID)
	fmt.Printf("Totals:    %.0f mi, %.1fh driving, %.1fh on duty, $%.0f est. cost\n",
		plan.TotalDistanceMiles, plan.TotalDriveTimeHours,
		plan.TotalOnDutyHours, plan.TotalCostEstimate)
	fmt.Printf("Feasible:  %v\n", plan.IsFeasible)
	for _, issue := range plan.FeasibilityIssues {
		fmt.Printf("  issue: %s\n", issue)
	}

	fmt.Println("Segments:")
	for _, seg := range plan.Segments {
		fmt.Printf("  %2d. %s\n", seg.SequenceOrder, describeSegment(seg))
	}
}

// describeSegment renders one segment as a single line
func describeSegment(seg planning.RouteSegment) string {
	switch seg.Kind {
	case planning.SegmentDrive:
		if seg.Drive != nil {
			return fmt.Sprintf("drive  %s -> %s (%.0f mi, %.1fh) [%s]",
				seg.Drive.FromStop, seg.Drive.ToStop,
				seg.Drive.DistanceMiles, seg.Drive.DriveTimeHours, seg.Status)
		}
	case planning.SegmentRest:
		if seg.Rest != nil {
			return fmt.Sprintf("rest   %s %.1fh: %s [%s]",
				seg.Rest.Type, seg.Rest.DurationHours, seg.Rest.Reason, seg.Status)
		}
	case planning.SegmentFuel:
		if seg.Fuel != nil {
			return fmt.Sprintf("fuel   %.0f gal at %s [%s]",
				seg.Fuel.Gallons, seg.Fuel.Station, seg.Status)
		}
	case planning.SegmentDock:
		if seg.Dock != nil {
			return fmt.Sprintf("dock   %.1fh at %s (%s) [%s]",
				seg.Dock.DurationHours, seg.Dock.Location, seg.Dock.Customer, seg.Status)
		}
	}
	return fmt.Sprintf("%s [%s]", seg.Kind, seg.Status)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetyard/truckplan-go/internal/application/planner"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// NewPlanCommand creates the plan command group
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build and inspect route plans",
	}

	cmd.AddCommand(newPlanCreateCommand())
	cmd.AddCommand(newPlanShowCommand())

	return cmd
}

func newPlanCreateCommand() *cobra.Command {
	var (
		driverID  string
		vehicleID string
		loadID    string
		stopsPath string
		priority  string
		activate  bool

		hoursDriven     float64
		onDutyTime      float64
		hoursSinceBreak float64

		fuelCapacity float64
		currentFuel  float64
		mpg          float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Build a new route plan for a driver",
		Long: `Build a new route plan from a stops file, the driver's current
hours-of-service counters, and the vehicle's fuel state.

Example:
  truckplan plan create --driver driver-1 --vehicle truck-12 \
    --stops stops.json --driven 2 --duty 3 --since-break 2 \
    --fuel-capacity 200 --fuel 150 --mpg 6.5 --activate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if driverID == "" || vehicleID == "" {
				return fmt.Errorf("--driver and --vehicle flags are required")
			}
			if stopsPath == "" {
				return fmt.Errorf("--stops flag is required")
			}

			stops, err := loadStops(stopsPath)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.mediator.Send(commandContext(), &planner.PlanRouteCommand{
				DriverID:  driverID,
				VehicleID: vehicleID,
				LoadID:    loadID,
				DriverState: hos.State{
					HoursDriven:     hoursDriven,
					OnDutyTime:      onDutyTime,
					HoursSinceBreak: hoursSinceBreak,
				},
				VehicleState: planning.VehicleState{
					FuelCapacityGal: fuelCapacity,
					CurrentFuelGal:  currentFuel,
					MPG:             mpg,
				},
				Stops:    stops,
				Priority: planning.OptimizationPriority(priority),
				Activate: activate,
			})
			if err != nil {
				return fmt.Errorf("planning failed: %w", err)
			}

			plan := resp.(*planner.PlanRouteResponse).Plan
			fmt.Println("✓ Route plan created")
			printPlan(plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&driverID, "driver", "", "Driver ID (required)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "Vehicle ID (required)")
	cmd.Flags().StringVar(&loadID, "load", "", "Load ID")
	cmd.Flags().StringVar(&stopsPath, "stops", "", "Path to stops JSON file (required)")
	cmd.Flags().StringVar(&priority, "priority", "", "Optimization priority (minimize_time, minimize_cost, balanced)")
	cmd.Flags().BoolVar(&activate, "activate", false, "Activate the plan immediately")

	cmd.Flags().Float64Var(&hoursDriven, "driven", 0, "Hours driven in the current duty window")
	cmd.Flags().Float64Var(&onDutyTime, "duty", 0, "Hours on duty in the current duty window")
	cmd.Flags().Float64Var(&hoursSinceBreak, "since-break", 0, "Driving hours since the last 30-minute break")

	cmd.Flags().Float64Var(&fuelCapacity, "fuel-capacity", 200, "Fuel tank capacity in gallons")
	cmd.Flags().Float64Var(&currentFuel, "fuel", 200, "Current fuel level in gallons")
	cmd.Flags().Float64Var(&mpg, "mpg", 6.5, "Miles per gallon")

	return cmd
}

func newPlanShowCommand() *cobra.Command {
	var (
		planID   string
		driverID string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a plan by id, or a driver's active plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if planID == "" && driverID == "" {
				return fmt.Errorf("either --plan or --driver flag is required")
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.mediator.Send(commandContext(), &planner.GetPlanQuery{
				PlanID:   planID,
				DriverID: driverID,
			})
			if err != nil {
				return err
			}

			plan := resp.(*planner.GetPlanResponse).Plan
			if plan == nil {
				fmt.Printf("No active plan for driver %s\n", driverID)
				return nil
			}
			printPlan(plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan ID")
	cmd.Flags().StringVar(&driverID, "driver", "", "Driver ID (shows the active plan)")

	return cmd
}

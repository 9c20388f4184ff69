package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetyard/truckplan-go/internal/application/planner"
	"github.com/fleetyard/truckplan-go/internal/domain/dispatch"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
	"github.com/fleetyard/truckplan-go/internal/domain/planning"
)

// NewUpdateCommand creates the update command
func NewUpdateCommand() *cobra.Command {
	var (
		planID      string
		triggerType string
		triggerData string
		triggeredBy string

		hoursDriven     float64
		onDutyTime      float64
		hoursSinceBreak float64
		withDriver      bool

		fuelCapacity float64
		currentFuel  float64
		mpg          float64
		withVehicle  bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply a runtime trigger to an active plan",
		Long: `Apply a runtime trigger to an active plan. The trigger is classified
against the dispatch thresholds; depending on priority the plan is
left alone, gets its ETAs refreshed, or is replanned from the
driver's current position.

Replanning needs the driver's current counters (--with-driver) and
the vehicle's fuel state (--with-vehicle); without them the update
degrades to an ETA refresh.

Examples:
  truckplan update --plan plan-abc --trigger traffic_delay --data '{"delay_minutes":45}'
  truckplan update --plan plan-abc --trigger dock_time_change \
    --data '{"estimated_hours":2,"actual_hours":5}' \
    --with-driver --driven 6 --duty 8 --since-break 4 \
    --with-vehicle --fuel-capacity 200 --fuel 120 --mpg 6.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if planID == "" || triggerType == "" {
				return fmt.Errorf("--plan and --trigger flags are required")
			}

			trigger, err := dispatch.DecodeTrigger(triggerType, []byte(triggerData))
			if err != nil {
				return err
			}

			command := &planner.UpdatePlanCommand{
				PlanID:      planID,
				Trigger:     trigger,
				TriggeredBy: triggeredBy,
			}
			if withDriver {
				command.DriverState = &hos.State{
					HoursDriven:     hoursDriven,
					OnDutyTime:      onDutyTime,
					HoursSinceBreak: hoursSinceBreak,
				}
			}
			if withVehicle {
				command.VehicleState = &planning.VehicleState{
					FuelCapacityGal: fuelCapacity,
					CurrentFuelGal:  currentFuel,
					MPG:             mpg,
				}
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.mediator.Send(commandContext(), command)
			if err != nil {
				return fmt.Errorf("update failed: %w", err)
			}

			result := resp.(*planner.UpdatePlanResponse).Result
			fmt.Printf("Decision:  %s (%s)\n", result.Decision, result.Priority)
			fmt.Printf("Reason:    %s\n", result.Reason)
			if result.ReplanTriggered && result.NewVersion != nil {
				fmt.Printf("Replanned: v%d -> v%d\n", result.PreviousVersion, *result.NewVersion)
			}
			if result.NewPlan != nil {
				printPlan(result.NewPlan)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&planID, "plan", "", "Plan ID (required)")
	cmd.Flags().StringVar(&triggerType, "trigger", "", "Trigger type, e.g. traffic_delay (required)")
	cmd.Flags().StringVar(&triggerData, "data", "{}", "Trigger payload as JSON")
	cmd.Flags().StringVar(&triggeredBy, "by", "cli", "Who reported the event")

	cmd.Flags().BoolVar(&withDriver, "with-driver", false, "Supply the driver's current counters")
	cmd.Flags().Float64Var(&hoursDriven, "driven", 0, "Hours driven in the current duty window")
	cmd.Flags().Float64Var(&onDutyTime, "duty", 0, "Hours on duty in the current duty window")
	cmd.Flags().Float64Var(&hoursSinceBreak, "since-break", 0, "Driving hours since the last 30-minute break")

	cmd.Flags().BoolVar(&withVehicle, "with-vehicle", false, "Supply the vehicle's fuel state")
	cmd.Flags().Float64Var(&fuelCapacity, "fuel-capacity", 200, "Fuel tank capacity in gallons")
	cmd.Flags().Float64Var(&currentFuel, "fuel", 200, "Current fuel level in gallons")
	cmd.Flags().Float64Var(&mpg, "mpg", 6.5, "Miles per gallon")

	return cmd
}

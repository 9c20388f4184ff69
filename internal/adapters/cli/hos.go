package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetyard/truckplan-go/internal/application/planner"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
)

// NewCheckHOSCommand creates the check-hos command
func NewCheckHOSCommand() *cobra.Command {
	var (
		driverID        string
		hoursDriven     float64
		onDutyTime      float64
		hoursSinceBreak float64
	)

	cmd := &cobra.Command{
		Use:   "check-hos",
		Short: "Validate a driver's counters against the hours-of-service limits",
		Long: `Validate a driver's duty counters against the federal 11/14/8
property-carrying rules.

Example:
  truckplan check-hos --driven 9.5 --duty 12 --since-break 6.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.mediator.Send(commandContext(), &planner.CheckHOSQuery{
				DriverID: driverID,
				State: hos.State{
					HoursDriven:     hoursDriven,
					OnDutyTime:      onDutyTime,
					HoursSinceBreak: hoursSinceBreak,
				},
			})
			if err != nil {
				return err
			}

			result := resp.(*planner.CheckHOSResponse).Result
			if result.IsCompliant {
				fmt.Println("✓ Compliant")
			} else {
				fmt.Println("✗ NOT compliant")
			}
			fmt.Printf("  Remaining: %.1fh drive, %.1fh duty\n",
				result.HoursRemainingToDrive, result.HoursRemainingOnDuty)
			if result.BreakRequired {
				fmt.Println("  30-minute break required")
			}
			if result.RestRequired {
				fmt.Println("  10-hour rest required")
			}
			for _, v := range result.Violations {
				fmt.Printf("  violation: %s\n", v)
			}
			for _, w := range result.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driverID, "driver", "", "Driver ID")
	cmd.Flags().Float64Var(&hoursDriven, "driven", 0, "Hours driven in the current duty window")
	cmd.Flags().Float64Var(&onDutyTime, "duty", 0, "Hours on duty in the current duty window")
	cmd.Flags().Float64Var(&hoursSinceBreak, "since-break", 0, "Driving hours since the last 30-minute break")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetyard/truckplan-go/internal/application/planner"
	"github.com/fleetyard/truckplan-go/internal/domain/hos"
)

// NewRecommendRestCommand creates the recommend-rest command
func NewRecommendRestCommand() *cobra.Command {
	var (
		hoursDriven     float64
		onDutyTime      float64
		hoursSinceBreak float64

		dockHours     float64
		postLoadDrive float64
		location      string
	)

	cmd := &cobra.Command{
		Use:   "recommend-rest",
		Short: "Recommend how to use upcoming dock time for rest",
		Long: `Recommend whether the driver should take a full rest, a split
sleeper period, or a 30-minute break during upcoming dock time,
given the driving still required afterwards.

Example:
  truckplan recommend-rest --driven 8 --duty 9 --since-break 6 \
    --dock-hours 4 --post-load-drive 3.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.mediator.Send(commandContext(), &planner.RecommendRestQuery{
				State: hos.State{
					HoursDriven:     hoursDriven,
					OnDutyTime:      onDutyTime,
					HoursSinceBreak: hoursSinceBreak,
				},
				DockDurationHours:  dockHours,
				PostLoadDriveHours: postLoadDrive,
				CurrentLocation:    location,
			})
			if err != nil {
				return err
			}

			result := resp.(*planner.RecommendRestResponse).Result
			fmt.Printf("Recommendation: %s (%.1fh, confidence %d%%)\n",
				result.Recommendation, result.RecommendedDurationHours, result.Confidence)
			fmt.Printf("  %s\n", result.Reasoning)
			fmt.Printf("  Driver can decline: %v\n", result.DriverCanDecline)
			fmt.Printf("  Remaining before rest: %.1fh drive, %.1fh duty\n",
				result.HoursRemainingToDrive, result.HoursRemainingOnDuty)
			return nil
		},
	}

	cmd.Flags().Float64Var(&hoursDriven, "driven", 0, "Hours driven in the current duty window")
	cmd.Flags().Float64Var(&onDutyTime, "duty", 0, "Hours on duty in the current duty window")
	cmd.Flags().Float64Var(&hoursSinceBreak, "since-break", 0, "Driving hours since the last 30-minute break")
	cmd.Flags().Float64Var(&dockHours, "dock-hours", 0, "Upcoming dock time in hours")
	cmd.Flags().Float64Var(&postLoadDrive, "post-load-drive", 0, "Drive hours required after the dock")
	cmd.Flags().StringVar(&location, "location", "", "Current location name")

	return cmd
}

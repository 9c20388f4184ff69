// Package cli provides the truckplan command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "truckplan",
		Short: "Truckplan CLI - HOS-aware route planning for heavy trucks",
		Long: `Truckplan plans multi-stop truck routes under the federal 11/14/8
hours-of-service rules, inserting rest and fuel stops where the
simulation requires them, and replans active routes when runtime
events invalidate them.

Examples:
  truckplan plan --driver driver-1 --vehicle truck-12 --stops stops.json --activate
  truckplan plan show --plan plan-abc123
  truckplan plan show --driver driver-1
  truckplan check-hos --driven 9.5 --duty 12 --since-break 6.5
  truckplan recommend-rest --driven 8 --duty 9 --since-break 6 --dock-hours 4 --post-load-drive 3.5
  truckplan update --plan plan-abc123 --trigger dock_time_change --data '{"estimated_hours":2,"actual_hours":5}'
  truckplan serve-metrics`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/truckplan)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewCheckHOSCommand())
	rootCmd.AddCommand(NewRecommendRestCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewServeMetricsCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

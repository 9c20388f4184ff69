package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/fleetyard/truckplan-go/internal/adapters/metrics"
)

// NewServeMetricsCommand creates the serve-metrics command
func NewServeMetricsCommand() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve the Prometheus metrics endpoint",
		Long: `Serve the Prometheus metrics endpoint for scraping. Blocks until
interrupted.

Example:
  truckplan serve-metrics --address :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !metrics.IsEnabled() {
				return fmt.Errorf("metrics are disabled; set metrics.enabled to true")
			}

			if address == "" {
				address = a.cfg.Metrics.Address
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())

			fmt.Printf("Serving metrics on %s/metrics\n", address)
			return http.ListenAndServe(address, mux)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (default from config)")

	return cmd
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all metrics
	namespace = "truckplan"
	// Subsystem for planner metrics
	subsystem = "planner"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalCollector is the singleton planning metrics collector
	// Set by SetGlobalCollector() when metrics are enabled
	globalCollector PlanningMetricsRecorder
)

// PlanningMetricsRecorder defines the interface for recording planning events
// This interface is used by application code to record metrics
type PlanningMetricsRecorder interface {
	RecordPlanBuilt(driverID string, feasible bool, durationSeconds float64, distanceMiles float64)
	RecordTrigger(planID string, triggerType string, action string)
	RecordReplan(planID string, triggerType string, success bool)
	RecordComplianceCheck(driverID string, compliant bool, violations int)
	RecordRestPlanned(restType string, durationHours float64)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCollector sets the global planning metrics collector
// This should be called after the collector is created and registered
func SetGlobalCollector(collector PlanningMetricsRecorder) {
	globalCollector = collector
}

// Handler returns an HTTP handler serving the registry, or nil when disabled
func Handler() http.Handler {
	if Registry == nil {
		return nil
	}
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordPlanBuilt records a plan construction event globally
func RecordPlanBuilt(driverID string, feasible bool, durationSeconds float64, distanceMiles float64) {
	if globalCollector != nil {
		globalCollector.RecordPlanBuilt(driverID, feasible, durationSeconds, distanceMiles)
	}
}

// RecordTrigger records a dispatch trigger and the action taken globally
func RecordTrigger(planID string, triggerType string, action string) {
	if globalCollector != nil {
		globalCollector.RecordTrigger(planID, triggerType, action)
	}
}

// RecordReplan records a replan attempt globally
func RecordReplan(planID string, triggerType string, success bool) {
	if globalCollector != nil {
		globalCollector.RecordReplan(planID, triggerType, success)
	}
}

// RecordComplianceCheck records a compliance validation globally
func RecordComplianceCheck(driverID string, compliant bool, violations int) {
	if globalCollector != nil {
		globalCollector.RecordComplianceCheck(driverID, compliant, violations)
	}
}

// RecordRestPlanned records a planned rest segment globally
func RecordRestPlanned(restType string, durationHours float64) {
	if globalCollector != nil {
		globalCollector.RecordRestPlanned(restType, durationHours)
	}
}

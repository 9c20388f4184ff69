package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PlanningMetricsCollector handles all route planning metrics
type PlanningMetricsCollector struct {
	// Plan construction metrics
	plansTotal   *prometheus.CounterVec
	planDuration *prometheus.HistogramVec
	planDistance *prometheus.CounterVec

	// Dispatch metrics
	triggersTotal *prometheus.CounterVec
	replansTotal  *prometheus.CounterVec

	// Compliance metrics
	complianceChecks *prometheus.CounterVec
	hosViolations    *prometheus.CounterVec

	// Rest planning metrics
	restsPlanned *prometheus.CounterVec
	restDuration *prometheus.HistogramVec
}

// NewPlanningMetricsCollector creates a new planning metrics collector
func NewPlanningMetricsCollector() *PlanningMetricsCollector {
	return &PlanningMetricsCollector{
		// Plans built counter, split by feasibility
		plansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plans_total",
				Help:      "Total number of route plans built by feasibility",
			},
			[]string{"driver_id", "feasible"},
		),

		// Plan construction duration histogram
		planDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_build_duration_seconds",
				Help:      "Route plan construction duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"driver_id"},
		),

		// Total planned distance counter
		planDistance: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_distance_miles_total",
				Help:      "Total miles planned across all routes",
			},
			[]string{"driver_id"},
		),

		// Dispatch triggers counter by type and resulting action
		triggersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "triggers_total",
				Help:      "Total dispatch triggers processed by type and action",
			},
			[]string{"plan_id", "trigger_type", "action"},
		),

		// Replan attempts counter by trigger type and outcome
		replansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "replans_total",
				Help:      "Total replan attempts by trigger type and outcome",
			},
			[]string{"plan_id", "trigger_type", "success"},
		),

		// Compliance checks counter by result
		complianceChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "compliance_checks_total",
				Help:      "Total hours-of-service compliance checks by result",
			},
			[]string{"driver_id", "compliant"},
		),

		// Violations found counter
		hosViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "hos_violations_total",
				Help:      "Total hours-of-service violations detected",
			},
			[]string{"driver_id"},
		),

		// Rest segments planned counter by type
		restsPlanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rests_planned_total",
				Help:      "Total rest segments planned by rest type",
			},
			[]string{"rest_type"},
		),

		// Rest duration histogram
		restDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rest_duration_hours",
				Help:      "Planned rest duration distribution",
				Buckets:   []float64{0.5, 2, 3, 7, 8, 10, 12},
			},
			[]string{"rest_type"},
		),
	}
}

// Register registers all planning metrics with the Prometheus registry
func (c *PlanningMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	metrics := []prometheus.Collector{
		c.plansTotal,
		c.planDuration,
		c.planDistance,
		c.triggersTotal,
		c.replansTotal,
		c.complianceChecks,
		c.hosViolations,
		c.restsPlanned,
		c.restDuration,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordPlanBuilt records a plan construction event
func (c *PlanningMetricsCollector) RecordPlanBuilt(
	driverID string,
	feasible bool,
	durationSeconds float64,
	distanceMiles float64,
) {
	feasibleStr := strconv.FormatBool(feasible)

	c.plansTotal.WithLabelValues(driverID, feasibleStr).Inc()
	c.planDuration.WithLabelValues(driverID).Observe(durationSeconds)

	if feasible {
		c.planDistance.WithLabelValues(driverID).Add(distanceMiles)
	}
}

// RecordTrigger records a dispatch trigger and the action taken
func (c *PlanningMetricsCollector) RecordTrigger(planID string, triggerType string, action string) {
	c.triggersTotal.WithLabelValues(planID, triggerType, action).Inc()
}

// RecordReplan records a replan attempt
func (c *PlanningMetricsCollector) RecordReplan(planID string, triggerType string, success bool) {
	c.replansTotal.WithLabelValues(planID, triggerType, strconv.FormatBool(success)).Inc()
}

// RecordComplianceCheck records a compliance validation
func (c *PlanningMetricsCollector) RecordComplianceCheck(driverID string, compliant bool, violations int) {
	c.complianceChecks.WithLabelValues(driverID, strconv.FormatBool(compliant)).Inc()

	if violations > 0 {
		c.hosViolations.WithLabelValues(driverID).Add(float64(violations))
	}
}

// RecordRestPlanned records a planned rest segment
func (c *PlanningMetricsCollector) RecordRestPlanned(restType string, durationHours float64) {
	c.restsPlanned.WithLabelValues(restType).Inc()
	c.restDuration.WithLabelValues(restType).Observe(durationHours)
}

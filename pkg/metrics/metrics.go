// Package metrics exposes Prometheus instrumentation for the trust pipeline.
//
// Metrics are package-level collectors registered via promauto, scraped from
// the /metrics endpoint of the embedding server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CycleIterations counts completed monitoring cycle iterations.
	CycleIterations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustguard_cycle_iterations_total",
			Help: "Completed monitoring cycle iterations",
		},
		[]string{"cycle"},
	)

	// CycleErrors counts cycle iterations that failed on a collaborator
	// error and entered backoff.
	CycleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustguard_cycle_errors_total",
			Help: "Monitoring cycle iterations that failed and backed off",
		},
		[]string{"cycle"},
	)

	// ViolationsRaised counts violations by type and severity tier.
	ViolationsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustguard_violations_raised_total",
			Help: "Violations raised, by type and severity",
		},
		[]string{"type", "severity"},
	)

	// SecurityScore is the most recently computed device security score.
	SecurityScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustguard_security_score",
			Help: "Most recent device security score (0-100)",
		},
	)

	// AppBlocked is 1 while the app-level block is in effect.
	AppBlocked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustguard_app_blocked",
			Help: "Whether the app-level block is in effect (0 or 1)",
		},
	)

	// AttendanceBlocked is 1 while attendance actions are blocked.
	AttendanceBlocked = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustguard_attendance_blocked",
			Help: "Whether attendance actions are blocked (0 or 1)",
		},
	)

	// ReportQueueDepth is the number of violation reports awaiting
	// submission.
	ReportQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustguard_report_queue_depth",
			Help: "Violation reports pending submission",
		},
	)

	// ReportRetries counts report submissions that failed and were
	// re-queued.
	ReportRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trustguard_report_retries_total",
			Help: "Report submissions that failed and were re-queued",
		},
	)
)

// boolGauge translates a flag to the 0/1 gauge convention.
func boolGauge(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
		return
	}
	g.Set(0)
}

// SetBlockedState records both blocking gauges at once.
func SetBlockedState(appBlocked, attendanceBlocked bool) {
	boolGauge(AppBlocked, appBlocked)
	boolGauge(AttendanceBlocked, attendanceBlocked)
}

package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// recordOps counts use-case invocations by action and outcome
	// (ok, denied, invalid, not_found, error).
	recordOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_operations_total",
			Help: "Record use-case invocations by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	// recordTransitions counts status changes by source and target.
	recordTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_status_transitions_total",
			Help: "Committed record status changes.",
		},
		[]string{"from", "to"},
	)

	// recordDenials counts authorization denials by action and reason.
	recordDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "records_denials_total",
			Help: "Authorization denials by action and reason.",
		},
		[]string{"action", "reason"},
	)
)

func init() {
	prometheus.MustRegister(recordOps, recordTransitions, recordDenials)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		wizardInputsTotal,
		wizardCommitsTotal,
		bulkOperationsTotal,
	)
}

var (
	wizardInputsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_inputs_total",
			Help: "Operator inputs handled by the wizard, by step and outcome.",
		},
		[]string{"step", "outcome"}, // outcome: 'accepted', 'rejected', 'lost'
	)

	wizardCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_commits_total",
			Help: "Wizard commits by flow and result.",
		},
		[]string{"flow", "result"}, // result: 'ok', 'conflict', 'core_failed', 'error'
	)

	bulkOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_operations_total",
			Help: "Bulk account operations by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

func IncWizardInput(step, outcome string) {
	wizardInputsTotal.WithLabelValues(norm(step), norm(outcome)).Inc()
}

func IncWizardCommit(flow, result string) {
	wizardCommitsTotal.WithLabelValues(norm(flow), norm(result)).Inc()
}

func IncBulkOperation(kind, result string) {
	bulkOperationsTotal.WithLabelValues(norm(kind), norm(result)).Inc()
}

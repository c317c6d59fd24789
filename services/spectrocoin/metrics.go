package spectrocoin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var reconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "callback_reconciliations_total",
		Help: "Count of reconciled callbacks by variant, canonical status and outcome",
	},
	[]string{"variant", "status", "outcome"},
)

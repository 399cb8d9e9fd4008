// Package monitor exposes the pipeline's business metrics.
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of the transaction pipeline.
type Metrics struct {
	TransactionsSubmitted *prometheus.CounterVec
	TransactionFailures   *prometheus.CounterVec
	LedgerRejections      prometheus.Counter
	OptInRequests         prometheus.Counter
	SubmissionDuration    prometheus.Histogram
}

// NewMetrics registers the pipeline collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "transactions_submitted_total",
			Help:      "Transactions submitted to the chain, by kind.",
		}, []string{"kind"}),
		TransactionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "transaction_failures_total",
			Help:      "Terminal flow failures, by taxonomy kind.",
		}, []string{"kind"}),
		LedgerRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "ledger_rejections_total",
			Help:      "Hardware signer rejections, cancellations and timeouts.",
		}),
		OptInRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "wallet",
			Name:      "asset_opt_in_requests_total",
			Help:      "Opt-in request side flows triggered by unopted receivers.",
		}),
		SubmissionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wallet",
			Name:      "submission_duration_seconds",
			Help:      "Wall time from submission to node acknowledgement.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

package metrics

import (
	"context"
	"time"

	"BNBChain-Agent/internal/executor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnbagent_actions_total",
		Help: "Dispatched actions by outcome. Outcome is ok or the error kind.",
	}, []string{"action", "outcome"})

	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bnbagent_action_duration_seconds",
		Help:    "Time spent in an action handler.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"action"})

	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bnbagent_transactions_total",
		Help: "Transaction lifecycle transitions by chain and state.",
	}, []string{"chain", "state"})
)

// ObserveAction records one handler run. An empty kind counts as success.
func ObserveAction(action, kind string, duration time.Duration) {
	outcome := kind
	if outcome == "" {
		outcome = "ok"
	}
	ActionsTotal.WithLabelValues(action, outcome).Inc()
	ActionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// TransactionObserver counts executor transitions.
type TransactionObserver struct{}

func (TransactionObserver) TransactionUpdated(_ context.Context, res executor.TransactionResult) {
	Transactions.WithLabelValues(string(res.Chain), res.State.String()).Inc()
}

var _ executor.Observer = TransactionObserver{}

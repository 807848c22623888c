package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	Register("transactions", func(logger *slog.Logger, src Sources) (MetricHandler, error) {
		if src.PendingTransactions == nil {
			return nil, nil
		}
		return &transactionMetricHandler{
			source: src.PendingTransactions,
			pending: prometheus.NewDesc(namespace+"_pending_transactions",
				"Relayed requests waiting for a server reply", nil, nil),
		}, nil
	})
}

type transactionMetricHandler struct {
	source  func() int
	pending *prometheus.Desc
}

func (h *transactionMetricHandler) Name() string {
	return "transactions"
}

func (h *transactionMetricHandler) Describe(ch chan<- *prometheus.Desc) {
	ch <- h.pending
}

func (h *transactionMetricHandler) Collect(ctx context.Context, ch chan<- prometheus.Metric) error {
	ch <- prometheus.MustNewConstMetric(h.pending, prometheus.GaugeValue, float64(h.source()))
	return nil
}

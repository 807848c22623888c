package metrics

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	Register("interfaces", func(logger *slog.Logger, src Sources) (MetricHandler, error) {
		if src.Interfaces == nil {
			return nil, nil
		}
		return newInterfaceMetricHandler(logger, src.Interfaces), nil
	})
}

type interfaceMetricHandler struct {
	logger *slog.Logger
	source func() []InterfaceInfo
	info   *prometheus.Desc
}

func newInterfaceMetricHandler(logger *slog.Logger, source func() []InterfaceInfo) *interfaceMetricHandler {
	return &interfaceMetricHandler{
		logger: logger,
		source: source,
		info: prometheus.NewDesc(namespace+"_interface_info",
			"Configured interfaces with their mode and server or trusted port",
			[]string{"interface", "mode", "target"}, nil),
	}
}

func (h *interfaceMetricHandler) Name() string {
	return "interfaces"
}

func (h *interfaceMetricHandler) Describe(ch chan<- *prometheus.Desc) {
	ch <- h.info
}

func (h *interfaceMetricHandler) Collect(ctx context.Context, ch chan<- prometheus.Metric) error {
	for _, i := range h.source() {
		ch <- prometheus.MustNewConstMetric(h.info, prometheus.GaugeValue, 1, i.Name, i.Mode, i.Target)
	}
	return nil
}

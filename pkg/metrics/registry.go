package metrics

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricHandler exports state that is read at scrape time rather than
// counted on the hot path.
type MetricHandler interface {
	Name() string
	Describe(ch chan<- *prometheus.Desc)
	Collect(ctx context.Context, ch chan<- prometheus.Metric) error
}

// Sources gives scrape-time handlers read access to daemon state.
type Sources struct {
	Interfaces          func() []InterfaceInfo
	PendingTransactions func() int
}

type InterfaceInfo struct {
	Name   string
	Mode   string
	Target string
}

type MetricHandlerFactory func(logger *slog.Logger, src Sources) (MetricHandler, error)

type MetricHandlerRegistry struct {
	mu        sync.RWMutex
	factories map[string]MetricHandlerFactory
}

var defaultRegistry = &MetricHandlerRegistry{
	factories: make(map[string]MetricHandlerFactory),
}

func DefaultRegistry() *MetricHandlerRegistry {
	return defaultRegistry
}

func Register(name string, factory MetricHandlerFactory) {
	defaultRegistry.RegisterFactory(name, factory)
}

func (r *MetricHandlerRegistry) RegisterFactory(name string, factory MetricHandlerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

func (r *MetricHandlerRegistry) CreateHandlers(logger *slog.Logger, src Sources) ([]MetricHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	handlers := make([]MetricHandler, 0, len(names))
	for _, name := range names {
		handler, err := r.factories[name](logger, src)
		if err != nil {
			logger.Error("Failed to create metric handler", "name", name, "error", err)
			continue
		}
		if handler == nil {
			continue
		}
		handlers = append(handlers, handler)
	}
	return handlers, nil
}

// Collector adapts a set of handlers to prometheus.Collector.
type Collector struct {
	logger   *slog.Logger
	handlers []MetricHandler
}

func NewCollector(logger *slog.Logger, handlers []MetricHandler) *Collector {
	return &Collector{logger: logger, handlers: handlers}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, handler := range c.handlers {
		handler.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	for _, handler := range c.handlers {
		if err := handler.Collect(ctx, ch); err != nil {
			c.logger.Error("Failed to collect metrics", "handler", handler.Name(), "error", err)
		}
	}
}

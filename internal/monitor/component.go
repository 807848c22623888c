package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veesix-networks/dhcpagent/pkg/component"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
	"github.com/veesix-networks/dhcpagent/pkg/metrics"
)

type Config struct {
	Listen string
	Path   string
	// Registry holds the agent counters. Runtime and handler metrics are
	// added to it on start.
	Registry *prometheus.Registry
	Sources  metrics.Sources
}

type Component struct {
	*component.Base

	logger   *slog.Logger
	listen   string
	path     string
	registry *prometheus.Registry
	sources  metrics.Sources

	mu           sync.RWMutex
	server       *http.Server
	addr         string
	handlerCount int
}

func New(cfg Config) *Component {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	return &Component{
		Base:     component.NewBase("monitor"),
		logger:   logger.Get(logger.Monitor),
		listen:   cfg.Listen,
		path:     path,
		registry: reg,
		sources:  cfg.Sources,
	}
}

// Addr returns the bound listen address once the component has started.
func (c *Component) Addr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.addr
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting Prometheus exporter", "addr", c.listen, "path", c.path)

	handlers, err := metrics.DefaultRegistry().CreateHandlers(c.logger, c.sources)
	if err != nil {
		return fmt.Errorf("create metric handlers: %w", err)
	}
	c.logger.Info("Registered metric handlers", "count", len(handlers))

	if err := c.registry.Register(metrics.NewCollector(c.logger, handlers)); err != nil {
		return fmt.Errorf("register handler collector: %w", err)
	}
	c.registry.Register(collectors.NewGoCollector())
	c.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ln, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.listen, err)
	}

	mux := http.NewServeMux()
	mux.Handle(c.path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	c.mu.Lock()
	c.server = server
	c.addr = ln.Addr().String()
	c.handlerCount = len(handlers)
	c.mu.Unlock()

	c.Go(func() {
		c.logger.Info("Prometheus HTTP server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Prometheus HTTP server error", "error", err)
		}
	})
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping Prometheus exporter")

	c.mu.RLock()
	server := c.server
	c.mu.RUnlock()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("Failed to shut down Prometheus HTTP server", "error", err)
		}
	}

	c.StopContext()
	return nil
}

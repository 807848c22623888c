// Package agent assembles the daemon from its configuration and drives the
// reload loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vishvananda/netlink"

	"github.com/veesix-networks/dhcpagent/internal/dataplane"
	"github.com/veesix-networks/dhcpagent/internal/monitor"
	"github.com/veesix-networks/dhcpagent/internal/relay"
	"github.com/veesix-networks/dhcpagent/pkg/cache/memory"
	"github.com/veesix-networks/dhcpagent/pkg/component"
	"github.com/veesix-networks/dhcpagent/pkg/config"
	"github.com/veesix-networks/dhcpagent/pkg/config/system"
	"github.com/veesix-networks/dhcpagent/pkg/configmgr"
	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
	"github.com/veesix-networks/dhcpagent/pkg/fdb"
	"github.com/veesix-networks/dhcpagent/pkg/ifmgr"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
	"github.com/veesix-networks/dhcpagent/pkg/metrics"
	"github.com/veesix-networks/dhcpagent/pkg/opdb"
	opdbmemory "github.com/veesix-networks/dhcpagent/pkg/opdb/memory"
	"github.com/veesix-networks/dhcpagent/pkg/opdb/sqlite"
	"github.com/veesix-networks/dhcpagent/pkg/rules"
)

const shutdownTimeout = 10 * time.Second

type Option func(*options)

type options struct {
	interfaces *ifmgr.Manager
	listen     func(name string) (dataplane.FrameConn, error)
	listenUDP  func(port uint16) (net.PacketConn, error)
}

// WithInterfaces uses a statically populated interface registry instead of
// discovering interfaces over netlink.
func WithInterfaces(mgr *ifmgr.Manager) Option {
	return func(o *options) { o.interfaces = mgr }
}

// WithListeners replaces the raw frame and relay socket listeners.
func WithListeners(listen func(name string) (dataplane.FrameConn, error), listenUDP func(port uint16) (net.PacketConn, error)) Option {
	return func(o *options) {
		o.listen = listen
		o.listenUDP = listenUDP
	}
}

type Agent struct {
	path   string
	cfg    *config.Config
	logger *slog.Logger

	db           opdb.Store
	providers    *opdb.ProviderRegistry
	registry     *prometheus.Registry
	metrics      *metrics.Agent
	store        *configmgr.Store
	interfaces   *ifmgr.Manager
	handle       *netlink.Handle
	transactions *memory.Cache
	dispatcher   *relay.Dispatcher
	dataplane    *dataplane.Component
	orch         *component.Orchestrator
}

// New builds every component from cfg. path is re-read on reload.
func New(path string, cfg *config.Config, opts ...Option) (*Agent, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &Agent{
		path:      path,
		cfg:       cfg,
		logger:    logger.Get(logger.Main),
		providers: opdb.NewProviderRegistry(),
		registry:  prometheus.NewRegistry(),
		orch:      component.NewOrchestrator(),
	}
	a.metrics = metrics.NewAgent(a.registry)

	db, err := openOpDB(cfg.OpDB)
	if err != nil {
		return nil, err
	}
	a.db = db

	a.store = configmgr.NewStore(
		configmgr.WithCheckpoint(db),
		configmgr.WithLoadHook(a.metrics.ConfigLoad),
	)
	a.providers.Register(a.store)

	var syncer *ifmgr.Syncer
	a.interfaces = o.interfaces
	if a.interfaces == nil || cfg.FDB.Backend == system.FDBBackendNetlink {
		h, err := ifmgr.NewNetlinkHandle(cfg.Agent.Netns)
		if err != nil {
			a.db.Close()
			return nil, fmt.Errorf("open netlink handle: %w", err)
		}
		a.handle = h
	}
	if a.interfaces == nil {
		a.interfaces = ifmgr.New()
		syncer = ifmgr.NewSyncer(a.interfaces, a.handle)
	}

	lookup, err := a.newFDB()
	if err != nil {
		a.close()
		return nil, err
	}

	evaluator := rules.NewEvaluator(rules.WithMismatchHook(func(rules.Predicate, dhcp.Value) {
		a.metrics.TypeMismatch()
	}))

	a.transactions = memory.New(cfg.Agent.TransactionTTL)
	a.dispatcher = relay.New(relay.Dependencies{
		Config:         a.store,
		Engine:         rules.NewEngine(evaluator),
		FDB:            lookup,
		Interfaces:     a.interfaces,
		Transactions:   a.transactions,
		Metrics:        a.metrics,
		RemoteID:       cfg.Agent.RemoteID,
		FDBTimeout:     cfg.Agent.FDBTimeout,
		TransactionTTL: cfg.Agent.TransactionTTL,
		ServerPort:     cfg.Agent.ServerPort,
	})

	a.dataplane = dataplane.New(dataplane.Dependencies{
		Processor:  a.dispatcher,
		Interfaces: a.interfaces,
		Syncer:     syncer,
		ServerPort: cfg.Agent.ServerPort,
		Listen:     o.listen,
		ListenUDP:  o.listenUDP,
	})
	a.orch.Register(a.dataplane)

	if cfg.Monitoring.Enabled {
		a.orch.Register(monitor.New(monitor.Config{
			Listen:   cfg.Monitoring.Listen,
			Path:     cfg.Monitoring.Path,
			Registry: a.registry,
			Sources: metrics.Sources{
				Interfaces:          a.interfaceInfo,
				PendingTransactions: a.dispatcher.PendingTransactions,
			},
		}))
	}

	return a, nil
}

func openOpDB(cfg system.OpDBConfig) (opdb.Store, error) {
	if cfg.Path == "" || cfg.Path == ":memory:" {
		return opdbmemory.New(), nil
	}
	db, err := sqlite.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open opdb: %w", err)
	}
	return db, nil
}

func (a *Agent) newFDB() (fdb.Lookup, error) {
	switch a.cfg.FDB.Backend {
	case system.FDBBackendStatic:
		s, err := fdb.NewStaticFromConfig(a.cfg.FDB.Static)
		if err != nil {
			return nil, fmt.Errorf("load static fdb: %w", err)
		}
		return s, nil
	default:
		return fdb.NewNetlink(a.handle, fdb.WithIndex(a.interfaces.Index)), nil
	}
}

func (a *Agent) interfaceInfo() []metrics.InterfaceInfo {
	snap := a.store.Snapshot()
	names := snap.Names()
	out := make([]metrics.InterfaceInfo, 0, len(names))
	for _, name := range names {
		cfg, _ := snap.Lookup(name)
		out = append(out, metrics.InterfaceInfo{
			Name:   name,
			Mode:   cfg.Mode.Name(),
			Target: cfg.Mode.Target(),
		})
	}
	return out
}

func (a *Agent) Store() *configmgr.Store {
	return a.store
}

func (a *Agent) Dispatcher() *relay.Dispatcher {
	return a.dispatcher
}

// Init applies the interface records from the configuration. When they do
// not compile, the last checkpointed records are restored instead.
func (a *Agent) Init(ctx context.Context) error {
	err := a.store.Load(a.cfg.Records())
	if err == nil {
		return nil
	}
	for _, p := range configmgr.Problems(err) {
		a.logger.Error("Interface configuration problem", "problem", p.String())
	}

	if rerr := a.providers.RestoreAll(ctx, a.db); rerr != nil {
		if errors.Is(rerr, opdb.ErrEmpty) {
			return err
		}
		return fmt.Errorf("%w (restore: %v)", err, rerr)
	}
	a.logger.Warn("Running with last good interface configuration",
		"generation", a.store.Snapshot().Generation)
	return nil
}

// Reload re-reads the configuration file and applies its interface records.
// Log levels apply immediately; other daemon settings take effect on restart.
func (a *Agent) Reload() error {
	cfg, err := config.Load(a.path)
	if err != nil {
		return err
	}
	configureLogging(cfg.Logging)
	return a.store.Load(cfg.Records())
}

// Run starts the components and blocks until ctx is cancelled or a
// termination signal arrives. SIGHUP and file changes trigger Reload.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.store.Subscribe(a.dataplane.Sync)

	if err := a.orch.Start(ctx); err != nil {
		a.close()
		return fmt.Errorf("start components: %w", err)
	}
	a.dataplane.Sync(a.store.Snapshot())

	var events <-chan struct{}
	if a.cfg.Agent.Watch {
		w, err := configmgr.NewWatcher(a.path)
		if err != nil {
			a.logger.Warn("Config watcher unavailable", "error", err)
		} else {
			defer w.Close()
			go w.Run(ctx)
			events = w.Events()
		}
	}

	a.logger.Info("dhcpagent started",
		"interfaces", len(a.store.Snapshot().Interfaces),
		"generation", a.store.Snapshot().Generation)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case sig := <-sigCh:
			if sig != syscall.SIGHUP {
				a.logger.Info("Received signal", "signal", sig.String())
				break loop
			}
			a.reload("signal")
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			a.reload("watch")
		}
	}

	a.logger.Info("Shutting down dhcpagent...")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := a.orch.Stop(stopCtx); err != nil {
		a.logger.Error("Error stopping components", "error", err)
	}
	a.close()
	a.logger.Info("dhcpagent stopped")
	return nil
}

func (a *Agent) reload(trigger string) {
	if err := a.Reload(); err != nil {
		a.logger.Error("Reload failed, keeping current configuration",
			"trigger", trigger,
			"generation", a.store.Snapshot().Generation,
			"error", err)
	}
}

func (a *Agent) close() {
	if a.transactions != nil {
		a.transactions.Close()
	}
	if a.handle != nil {
		a.handle.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing opdb", "error", err)
	}
}

// Close releases resources held by an agent that was never run.
func (a *Agent) Close() {
	a.close()
}

func configureLogging(cfg system.LoggingConfig) {
	components := make(map[string]logger.LogLevel, len(cfg.Components))
	for name, lvl := range cfg.Components {
		components[name] = logger.LogLevel(lvl)
	}
	logger.Configure(cfg.Format, logger.LogLevel(cfg.Level), components)
}

// ConfigureLogging applies the logging section of cfg.
func ConfigureLogging(cfg *config.Config) {
	configureLogging(cfg.Logging)
}

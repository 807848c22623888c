// Package relay turns a received DHCP message into the message to transmit
// and a hint telling the dataplane where to send it.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/veesix-networks/dhcpagent/pkg/cache"
	"github.com/veesix-networks/dhcpagent/pkg/configmgr"
	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
	"github.com/veesix-networks/dhcpagent/pkg/fdb"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
	"github.com/veesix-networks/dhcpagent/pkg/metrics"
	"github.com/veesix-networks/dhcpagent/pkg/rules"
)

const (
	DefaultFDBTimeout     = 100 * time.Millisecond
	DefaultTransactionTTL = 300 * time.Second
	DefaultServerPort     = 67
)

type SnapshotSource interface {
	Snapshot() *configmgr.Snapshot
}

// InterfaceResolver supplies the relay address and VLAN of a local interface.
type InterfaceResolver interface {
	Address(name string) (netip.Addr, bool)
	VLAN(name string) (uint16, bool)
}

type Dependencies struct {
	Config       SnapshotSource
	Engine       *rules.Engine
	FDB          fdb.Lookup
	Interfaces   InterfaceResolver
	Transactions cache.Cache
	Metrics      *metrics.Agent

	RemoteID       string
	FDBTimeout     time.Duration
	TransactionTTL time.Duration
	ServerPort     uint16
}

type Dispatcher struct {
	config         SnapshotSource
	engine         *rules.Engine
	fdb            fdb.Lookup
	interfaces     InterfaceResolver
	transactions   cache.Cache
	metrics        *metrics.Agent
	remoteID       string
	fdbTimeout     time.Duration
	transactionTTL time.Duration
	serverPort     uint16
	logger         *slog.Logger
}

func New(deps Dependencies) *Dispatcher {
	d := &Dispatcher{
		config:         deps.Config,
		engine:         deps.Engine,
		fdb:            deps.FDB,
		interfaces:     deps.Interfaces,
		transactions:   deps.Transactions,
		metrics:        deps.Metrics,
		remoteID:       deps.RemoteID,
		fdbTimeout:     deps.FDBTimeout,
		transactionTTL: deps.TransactionTTL,
		serverPort:     deps.ServerPort,
		logger:         logger.Get(logger.Relay),
	}
	if d.engine == nil {
		d.engine = rules.NewEngine(nil)
	}
	if d.fdbTimeout <= 0 {
		d.fdbTimeout = DefaultFDBTimeout
	}
	if d.transactionTTL <= 0 {
		d.transactionTTL = DefaultTransactionTTL
	}
	if d.serverPort == 0 {
		d.serverPort = DefaultServerPort
	}
	return d
}

// PendingTransactions reports the number of requests awaiting a reply.
func (d *Dispatcher) PendingTransactions() int {
	return d.transactions.Len()
}

// Process handles one DHCP payload received on ingress. Requests travel UP
// and replies DOWN. Replies read from the relay UDP socket have no ingress
// interface. A dropped packet yields a *ProcessingError.
func (d *Dispatcher) Process(ctx context.Context, raw []byte, ingress string, dir rules.Direction) (*Result, error) {
	res, xid, err := d.process(ctx, raw, ingress, dir)
	if err != nil {
		if errors.Is(err, dhcp.ErrMalformedPacket) {
			d.metrics.MalformedPacket()
		}
		d.metrics.Drop(dropReason(err))
		return nil, &ProcessingError{Interface: ingress, XID: xid, Err: err}
	}
	d.metrics.Packet(res.Interface, strings.ToLower(dir.String()), res.Mode)
	return res, nil
}

func (d *Dispatcher) process(ctx context.Context, raw []byte, ingress string, dir rules.Direction) (*Result, uint32, error) {
	msg, err := dhcp.Decode(raw)
	if err != nil {
		d.logger.Debug("Dropping undecodable packet", "interface", ingress, "error", err)
		return nil, 0, err
	}

	snap := d.config.Snapshot()

	var res *Result
	switch dir {
	case rules.DirectionUp:
		res, err = d.upstream(ctx, snap, msg, ingress)
	case rules.DirectionDown:
		res, err = d.downstream(ctx, snap, msg, ingress)
	default:
		err = fmt.Errorf("%w: direction %s", ErrUnexpectedMessage, dir)
	}
	if err != nil {
		return nil, msg.XID, err
	}

	payload, err := dhcp.Encode(res.Message)
	if err != nil {
		return nil, msg.XID, fmt.Errorf("encode: %w", err)
	}
	res.Payload = payload
	res.Generation = snap.Generation
	return res, msg.XID, nil
}

func (d *Dispatcher) upstream(ctx context.Context, snap *configmgr.Snapshot, msg *dhcp.Message, ingress string) (*Result, error) {
	cfg, ok := snap.Lookup(ingress)
	if !ok {
		return nil, ErrUnknownInterface
	}
	if !msg.IsRequest() {
		return nil, fmt.Errorf("%w: BOOTREPLY from client side", ErrUnexpectedMessage)
	}

	mac := msg.ClientMAC()
	log := logger.WithPacket(d.logger, logger.PacketAttrs{
		XID:       msg.XID,
		MAC:       mac.String(),
		Interface: ingress,
		Direction: "up",
		Mode:      cfg.Mode.Name(),
	})

	txn := transaction{
		Interface: ingress,
		Mode:      cfg.Mode.Name(),
		MAC:       mac.String(),
		GIAddr:    msg.GIAddr,
		Created:   time.Now(),
	}

	res := &Result{
		Interface: ingress,
		Mode:      cfg.Mode.Name(),
		ClientMAC: mac,
	}

	var out *dhcp.Message
	var circuitID string

	switch mode := cfg.Mode.(type) {
	case configmgr.RelayMode:
		addr := d.relayAddress(cfg)
		if !addr.IsValid() {
			return nil, ErrNoRelayAddress
		}
		out = msg.Clone()
		if !out.GIAddr.IsValid() || out.GIAddr.IsUnspecified() {
			out.GIAddr = addr
		}
		out = d.engine.Apply(cfg.Rules, out, rules.DirectionUp)
		circuitID = ingress

		res.Destination = DestinationServer
		res.Server = mode.Server
		res.ServerPort = d.serverPort

	case configmgr.SnoopMode:
		port := d.lookupPort(ctx, cfg, msg, log)
		txn.Port = port
		out = d.engine.Apply(cfg.Rules, msg.Clone(), rules.DirectionUp)
		circuitID = port

		res.Destination = DestinationTrusted
		res.Port = mode.Trusted
	}

	if insertOption82(out, circuitID, d.remoteID) {
		d.metrics.Option82Inserted(ingress)
	}

	if err := d.remember(ctx, msg.XID, mac, txn); err != nil {
		log.Warn("Failed to record transaction", "error", err)
	}

	log.Debug("Forwarding request",
		"type", msg.MessageType().String(),
		"destination", res.Destination.String(),
		"giaddr", out.GIAddr.String())

	res.Message = out
	return res, nil
}

func (d *Dispatcher) downstream(ctx context.Context, snap *configmgr.Snapshot, msg *dhcp.Message, ingress string) (*Result, error) {
	if msg.IsRequest() {
		if ingress == "" {
			d.logger.Debug("Spurious request on relay socket", "xid", fmt.Sprintf("0x%08x", msg.XID))
		}
		return nil, fmt.Errorf("%w: BOOTREQUEST from server side", ErrUnexpectedMessage)
	}

	mac := msg.ClientMAC()
	txn, err := d.recall(ctx, msg.XID, mac)
	if err != nil && !errors.Is(err, ErrNoTransaction) {
		return nil, err
	}

	name := ingress
	if txn != nil {
		name = txn.Interface
	}
	cfg, ok := snap.Lookup(name)
	if !ok {
		if txn == nil {
			return nil, ErrNoTransaction
		}
		return nil, ErrUnknownInterface
	}

	log := logger.WithPacket(d.logger, logger.PacketAttrs{
		XID:       msg.XID,
		MAC:       mac.String(),
		Interface: name,
		Direction: "down",
		Mode:      cfg.Mode.Name(),
	})

	res := &Result{
		Destination: DestinationIngress,
		Interface:   name,
		Mode:        cfg.Mode.Name(),
		ClientMAC:   mac,
	}

	out := msg.Clone()
	switch cfg.Mode.(type) {
	case configmgr.RelayMode:
		if txn == nil {
			return nil, ErrNoTransaction
		}
		out.GIAddr = txn.GIAddr
		res.Broadcast = out.Broadcast() || !out.CIAddr.IsValid() || out.CIAddr.IsUnspecified()
	case configmgr.SnoopMode:
		if txn != nil {
			res.Port = txn.Port
		}
		res.Broadcast = out.Broadcast()
	}

	res.Message = d.engine.Apply(cfg.Rules, out, rules.DirectionDown)

	log.Debug("Returning reply",
		"type", msg.MessageType().String(),
		"broadcast", res.Broadcast,
		"port", res.Port)
	return res, nil
}

// relayAddress is the configured address override or the first IPv4
// address of the interface.
func (d *Dispatcher) relayAddress(cfg *configmgr.InterfaceConfig) netip.Addr {
	if cfg.Address.IsValid() {
		return cfg.Address
	}
	if d.interfaces == nil {
		return netip.Addr{}
	}
	addr, _ := d.interfaces.Address(cfg.Name)
	return addr
}

func (d *Dispatcher) vlan(cfg *configmgr.InterfaceConfig) uint16 {
	if cfg.VLAN != 0 {
		return cfg.VLAN
	}
	if d.interfaces != nil {
		if v, ok := d.interfaces.VLAN(cfg.Name); ok {
			return v
		}
	}
	return 0
}

// lookupPort resolves the client's bridge port. A miss or timeout yields an
// empty port and the request is still forwarded.
func (d *Dispatcher) lookupPort(ctx context.Context, cfg *configmgr.InterfaceConfig, msg *dhcp.Message, log *slog.Logger) string {
	vlan := d.vlan(cfg)
	if d.fdb == nil {
		log.Warn("No FDB configured, forwarding with empty circuit-id")
		d.metrics.FDBMiss(cfg.Name)
		return ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, d.fdbTimeout)
	defer cancel()

	port, err := d.fdb.Lookup(lookupCtx, cfg.Name, vlan, msg.ClientMAC())
	if err != nil {
		log.Warn("FDB lookup failed, forwarding with empty circuit-id", "bridge", cfg.Name, "vlan", vlan, "error", err)
		d.metrics.FDBMiss(cfg.Name)
		return ""
	}
	return port
}

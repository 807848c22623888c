package dataplane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4/server4"
	"github.com/mdlayher/packet"
	"golang.org/x/sys/unix"

	"github.com/veesix-networks/dhcpagent/internal/relay"
	"github.com/veesix-networks/dhcpagent/pkg/component"
	"github.com/veesix-networks/dhcpagent/pkg/configmgr"
	"github.com/veesix-networks/dhcpagent/pkg/dataplane"
	"github.com/veesix-networks/dhcpagent/pkg/ifmgr"
	"github.com/veesix-networks/dhcpagent/pkg/logger"
	"github.com/veesix-networks/dhcpagent/pkg/rules"
)

const (
	readTimeout = time.Second
	maxFrame    = 1600
)

// Processor is satisfied by *relay.Dispatcher.
type Processor interface {
	Process(ctx context.Context, raw []byte, ingress string, dir rules.Direction) (*relay.Result, error)
}

// FrameConn is a raw packet socket bound to one interface.
type FrameConn interface {
	ReadFrom(b []byte) (int, net.Addr, error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

type role uint8

const (
	// roleClient ports receive requests from clients.
	roleClient role = 1 << iota
	// roleTrusted ports receive replies from the server side.
	roleTrusted
)

type port struct {
	name string
	role role
	conn FrameConn
	done chan struct{}
}

type Dependencies struct {
	Processor  Processor
	Interfaces *ifmgr.Manager
	// Syncer refreshes Interfaces before listeners are opened. It is nil
	// when interfaces are registered statically.
	Syncer     *ifmgr.Syncer
	ServerPort uint16

	// Listen and ListenUDP default to AF_PACKET and the relay UDP socket.
	Listen    func(name string) (FrameConn, error)
	ListenUDP func(port uint16) (net.PacketConn, error)
}

type Component struct {
	*component.Base

	logger     *slog.Logger
	processor  Processor
	ifaces     *ifmgr.Manager
	syncer     *ifmgr.Syncer
	serverPort uint16
	listen     func(name string) (FrameConn, error)
	listenUDP  func(port uint16) (net.PacketConn, error)

	udpConn net.PacketConn

	mu    sync.Mutex
	ports map[string]*port

	egressCount  atomic.Int64
	egressErrors atomic.Int64
}

func New(deps Dependencies) *Component {
	c := &Component{
		Base:       component.NewBase("dataplane"),
		logger:     logger.Get(logger.Dataplane),
		processor:  deps.Processor,
		ifaces:     deps.Interfaces,
		syncer:     deps.Syncer,
		serverPort: deps.ServerPort,
		listen:     deps.Listen,
		listenUDP:  deps.ListenUDP,
		ports:      make(map[string]*port),
	}
	if c.serverPort == 0 {
		c.serverPort = dataplane.ServerPort
	}
	if c.listen == nil {
		c.listen = listenPacket
	}
	if c.listenUDP == nil {
		c.listenUDP = listenRelaySocket
	}
	return c
}

func listenPacket(name string) (FrameConn, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	conn, err := packet.Listen(ifi, packet.Raw, unix.ETH_P_IP, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func listenRelaySocket(port uint16) (net.PacketConn, error) {
	conn, err := server4.NewIPv4UDPConn("", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Component) Start(ctx context.Context) error {
	c.StartContext(ctx)
	c.logger.Info("Starting dataplane component")

	conn, err := c.listenUDP(c.serverPort)
	if err != nil {
		return fmt.Errorf("open relay socket on port %d: %w", c.serverPort, err)
	}
	c.udpConn = conn

	c.Go(c.udpLoop)
	c.Go(c.egressStatsLoop)
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	c.logger.Info("Stopping dataplane component")

	if c.udpConn != nil {
		if err := c.udpConn.Close(); err != nil {
			c.logger.Error("Error closing relay socket", "error", err)
		}
	}

	c.mu.Lock()
	for name, p := range c.ports {
		c.closePort(p)
		delete(c.ports, name)
	}
	c.mu.Unlock()

	c.StopContext()
	return nil
}

// Sync opens listeners for every interface in snap and closes the rest.
// Configured interfaces listen for requests; trusted ports listen for
// replies.
func (c *Component) Sync(snap *configmgr.Snapshot) {
	want := make(map[string]role)
	for _, name := range snap.Names() {
		cfg, _ := snap.Lookup(name)
		want[name] |= roleClient
		if mode, ok := cfg.Mode.(configmgr.SnoopMode); ok {
			want[mode.Trusted] |= roleTrusted
		}
	}

	if c.syncer != nil {
		names := make([]string, 0, len(want))
		for name := range want {
			names = append(names, name)
		}
		if err := c.syncer.Sync(names); err != nil {
			c.logger.Warn("Failed to refresh interfaces", "error", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, p := range c.ports {
		r, ok := want[name]
		if !ok {
			c.logger.Info("Closing listener", "interface", name)
			c.closePort(p)
			delete(c.ports, name)
			continue
		}
		p.role = r
	}

	for name, r := range want {
		if _, ok := c.ports[name]; ok {
			continue
		}
		conn, err := c.listen(name)
		if err != nil {
			c.logger.Error("Failed to open listener", "interface", name, "error", err)
			continue
		}
		p := &port{name: name, role: r, conn: conn, done: make(chan struct{})}
		c.ports[name] = p
		c.logger.Info("Opened listener", "interface", name, "client", r&roleClient != 0, "trusted", r&roleTrusted != 0)
		c.Go(func() { c.readLoop(p) })
	}
}

func (c *Component) closePort(p *port) {
	close(p.done)
	if err := p.conn.Close(); err != nil {
		c.logger.Debug("Error closing listener", "interface", p.name, "error", err)
	}
}

func (c *Component) port(name string) (*port, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.ports[name]
	return p, ok
}

func (c *Component) readLoop(p *port) {
	buf := make([]byte, maxFrame)
	for {
		select {
		case <-c.Ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		if err := p.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			c.logger.Debug("Failed to set read deadline", "interface", p.name, "error", err)
		}
		n, _, err := p.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			c.logger.Error("Failed to read frame", "interface", p.name, "error", err)
			continue
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])
		c.handleFrame(p, frame)
	}
}

func (c *Component) handleFrame(p *port, frame []byte) {
	pkt, err := dataplane.Parse(frame)
	if err != nil {
		return
	}
	pkt.Interface = p.name

	var dir rules.Direction
	c.mu.Lock()
	r := p.role
	c.mu.Unlock()

	switch {
	case pkt.Direction == dataplane.DirectionRequest && r&roleClient != 0:
		dir = rules.DirectionUp
	case pkt.Direction == dataplane.DirectionReply && r&roleTrusted != 0:
		dir = rules.DirectionDown
	default:
		return
	}

	res, err := c.processor.Process(c.Ctx, pkt.Payload, p.name, dir)
	if err != nil {
		c.logger.Debug("Dropped packet", "interface", p.name, "error", err)
		return
	}
	c.transmit(res, pkt)
}

func (c *Component) udpLoop() {
	buf := make([]byte, maxFrame)
	for {
		select {
		case <-c.Ctx.Done():
			return
		default:
		}

		n, from, err := c.udpConn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			c.logger.Error("Failed to read from relay socket", "error", err)
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		res, err := c.processor.Process(c.Ctx, payload, "", rules.DirectionDown)
		if err != nil {
			c.logger.Debug("Dropped server reply", "from", from.String(), "error", err)
			continue
		}
		c.transmit(res, nil)
	}
}

func (c *Component) egressStatsLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	var lastCount, lastErrors int64
	for {
		select {
		case <-c.Ctx.Done():
			return
		case <-ticker.C:
			count := c.egressCount.Load()
			errs := c.egressErrors.Load()
			if count != lastCount || errs != lastErrors {
				c.logger.Info("Egress stats", "total_sent", count, "total_errors", errs, "sent", count-lastCount, "errors", errs-lastErrors)
				lastCount = count
				lastErrors = errs
			}
		}
	}
}

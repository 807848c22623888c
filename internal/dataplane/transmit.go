package dataplane

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/mdlayher/packet"

	"github.com/veesix-networks/dhcpagent/internal/relay"
	"github.com/veesix-networks/dhcpagent/pkg/dataplane"
)

// transmit sends a processed message according to its destination hint.
// orig is the frame the message arrived in, nil for replies read from the
// relay socket.
func (c *Component) transmit(res *relay.Result, orig *dataplane.ParsedPacket) {
	var err error
	switch res.Destination {
	case relay.DestinationServer:
		err = c.sendToServer(res)
	case relay.DestinationTrusted:
		err = c.forward(res.Port, res.Payload, orig)
	case relay.DestinationIngress:
		err = c.sendToClient(res, orig)
	default:
		err = fmt.Errorf("unknown destination %s", res.Destination)
	}

	if err != nil {
		c.egressErrors.Add(1)
		c.logger.Warn("Failed to transmit", "interface", res.Interface, "destination", res.Destination.String(), "error", err)
		return
	}
	c.egressCount.Add(1)
}

func (c *Component) sendToServer(res *relay.Result) error {
	if c.udpConn == nil {
		return fmt.Errorf("relay socket not open")
	}
	port := res.ServerPort
	if port == 0 {
		port = dataplane.ServerPort
	}
	dst := net.UDPAddrFromAddrPort(netip.AddrPortFrom(res.Server, port))
	_, err := c.udpConn.WriteTo(res.Payload, dst)
	return err
}

// forward re-emits orig with a new payload out of the named port, keeping
// the original Ethernet and IP addressing.
func (c *Component) forward(name string, payload []byte, orig *dataplane.ParsedPacket) error {
	if orig == nil {
		return fmt.Errorf("no original frame to forward")
	}

	frame, err := dataplane.BuildFrame(&dataplane.EgressPacket{
		SrcMAC:  orig.Ethernet.SrcMAC,
		DstMAC:  orig.Ethernet.DstMAC,
		VLAN:    orig.VLAN,
		SrcIP:   orig.SrcIP,
		DstIP:   orig.DstIP,
		SrcPort: orig.SrcPort,
		DstPort: orig.DstPort,
		TTL:     orig.IPv4.TTL,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("build frame: %w", err)
	}
	return c.write(name, frame, orig.Ethernet.DstMAC)
}

func (c *Component) sendToClient(res *relay.Result, orig *dataplane.ParsedPacket) error {
	out := res.Interface
	if res.Port != "" {
		if _, ok := c.port(res.Port); ok {
			out = res.Port
		}
	}

	if orig != nil {
		return c.forward(out, res.Payload, orig)
	}

	iface := c.ifaces.GetByName(res.Interface)
	if iface == nil {
		return fmt.Errorf("interface %s not registered", res.Interface)
	}
	src, ok := iface.PrimaryIPv4()
	if !ok {
		return fmt.Errorf("interface %s has no IPv4 address", res.Interface)
	}

	dstMAC, dstIP := dataplane.BroadcastMAC, netip.AddrFrom4([4]byte{255, 255, 255, 255})
	if yiaddr := res.Message.YIAddr; !res.Broadcast && yiaddr.IsValid() && !yiaddr.IsUnspecified() {
		dstMAC, dstIP = res.ClientMAC, yiaddr
	}

	frame, err := dataplane.BuildFrame(&dataplane.EgressPacket{
		SrcMAC:  iface.MAC,
		DstMAC:  dstMAC,
		SrcIP:   src,
		DstIP:   dstIP,
		SrcPort: dataplane.ServerPort,
		DstPort: dataplane.ClientPort,
		Payload: res.Payload,
	})
	if err != nil {
		return fmt.Errorf("build frame: %w", err)
	}
	return c.write(out, frame, dstMAC)
}

func (c *Component) write(name string, frame []byte, dst net.HardwareAddr) error {
	p, ok := c.port(name)
	if !ok {
		return fmt.Errorf("no listener on %s", name)
	}
	_, err := p.conn.WriteTo(frame, &packet.Addr{HardwareAddr: dst})
	return err
}

package dataplane

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var ErrNotDHCP = errors.New("not a dhcpv4 frame")

type ParsedPacket struct {
	// Interface is the interface the frame was read from.
	Interface string
	Direction Direction

	MAC     net.HardwareAddr
	VLAN    uint16
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16

	Ethernet *layers.Ethernet
	Dot1Q    []*layers.Dot1Q
	IPv4     *layers.IPv4
	UDP      *layers.UDP

	// Payload is the DHCP message carried by the UDP datagram.
	Payload   []byte
	RawPacket []byte
}

// Parse decodes an Ethernet frame carrying DHCPv4 over UDP. Frames that do
// not are rejected with ErrNotDHCP.
func Parse(frame []byte) (*ParsedPacket, error) {
	packet := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)

	ethLayer := packet.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, fmt.Errorf("%w: no ethernet layer", ErrNotDHCP)
	}
	eth := ethLayer.(*layers.Ethernet)

	pkt := &ParsedPacket{
		Ethernet:  eth,
		MAC:       eth.SrcMAC,
		RawPacket: frame,
	}

	for _, layer := range packet.Layers() {
		if dot1q, ok := layer.(*layers.Dot1Q); ok {
			pkt.Dot1Q = append(pkt.Dot1Q, dot1q)
		}
	}
	if len(pkt.Dot1Q) > 0 {
		pkt.VLAN = pkt.Dot1Q[0].VLANIdentifier
	}

	ipv4Layer := packet.Layer(layers.LayerTypeIPv4)
	if ipv4Layer == nil {
		return nil, fmt.Errorf("%w: no ipv4 layer", ErrNotDHCP)
	}
	pkt.IPv4 = ipv4Layer.(*layers.IPv4)
	pkt.SrcIP, _ = netip.AddrFromSlice(pkt.IPv4.SrcIP.To4())
	pkt.DstIP, _ = netip.AddrFromSlice(pkt.IPv4.DstIP.To4())

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, fmt.Errorf("%w: no udp layer", ErrNotDHCP)
	}
	pkt.UDP = udpLayer.(*layers.UDP)
	pkt.SrcPort = uint16(pkt.UDP.SrcPort)
	pkt.DstPort = uint16(pkt.UDP.DstPort)

	switch pkt.DstPort {
	case ServerPort:
		pkt.Direction = DirectionRequest
	case ClientPort:
		pkt.Direction = DirectionReply
	default:
		return nil, fmt.Errorf("%w: udp port %d", ErrNotDHCP, pkt.DstPort)
	}

	pkt.Payload = pkt.UDP.Payload
	return pkt, nil
}

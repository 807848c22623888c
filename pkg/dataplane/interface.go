package dataplane

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Ingress reads DHCP frames from one interface.
type Ingress interface {
	ReadPacket(ctx context.Context) (*ParsedPacket, error)
	Close() error
}

// Egress writes frames to one interface.
type Egress interface {
	SendPacket(pkt *EgressPacket) error
	Close() error
}

type EgressPacket struct {
	DstMAC  net.HardwareAddr
	SrcMAC  net.HardwareAddr
	VLAN    uint16
	SrcIP   netip.Addr
	DstIP   netip.Addr
	SrcPort uint16
	DstPort uint16
	TTL     uint8
	Payload []byte
}

var BroadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// BuildFrame serializes pkt as Ethernet, optional 802.1Q, IPv4 and UDP with
// lengths and checksums filled in.
func BuildFrame(pkt *EgressPacket) ([]byte, error) {
	if !pkt.SrcIP.Is4() || !pkt.DstIP.Is4() {
		return nil, fmt.Errorf("ipv4 source and destination required")
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}

	eth := &layers.Ethernet{
		SrcMAC: pkt.SrcMAC,
		DstMAC: pkt.DstMAC,
	}

	ttl := pkt.TTL
	if ttl == 0 {
		ttl = 64
	}
	src, dst := pkt.SrcIP.As4(), pkt.DstIP.As4()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      ttl,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP(src[:]),
		DstIP:    net.IP(dst[:]),
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(pkt.SrcPort),
		DstPort: layers.UDPPort(pkt.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	var layerStack []gopacket.SerializableLayer
	if pkt.VLAN > 0 {
		eth.EthernetType = layers.EthernetTypeDot1Q
		dot1q := &layers.Dot1Q{
			VLANIdentifier: pkt.VLAN,
			Type:           layers.EthernetTypeIPv4,
		}
		layerStack = []gopacket.SerializableLayer{eth, dot1q, ip, udp, gopacket.Payload(pkt.Payload)}
	} else {
		eth.EthernetType = layers.EthernetTypeIPv4
		layerStack = []gopacket.SerializableLayer{eth, ip, udp, gopacket.Payload(pkt.Payload)}
	}

	if err := gopacket.SerializeLayers(buf, opts, layerStack...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package dhcp

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMatchesInsomniacslk(t *testing.T) {
	mac := net.HardwareAddr{0x52, 0x54, 0x00, 0xaa, 0xbb, 0xcc}
	ref, err := dhcpv4.NewDiscovery(mac, dhcpv4.WithOption(dhcpv4.OptHostName("cpe-1")))
	require.NoError(t, err)
	raw := ref.ToBytes()

	msg, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, binary.BigEndian.Uint32(ref.TransactionID[:]), msg.XID)
	assert.Equal(t, DHCPDiscover, msg.MessageType())
	assert.Equal(t, mac, msg.ClientMAC())

	host, ok := msg.Get(OptionHostName)
	require.True(t, ok)
	assert.Equal(t, String("cpe-1"), host)

	out, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestEncodeReadableByInsomniacslk(t *testing.T) {
	mac := net.HardwareAddr{0x52, 0x54, 0x00, 0xaa, 0xbb, 0xcc}
	msg := &Message{Op: OpBootRequest, HType: 1, HLen: 6, XID: 0x01020304}
	copy(msg.CHAddr[:], mac)
	msg.Append(OptionMessageType, Uint8(DHCPRequest))
	msg.Append(OptionRelayAgentInformation, RelayAgentInfo{
		{Code: SubOptionCircuitID, Data: []byte("br100")},
		{Code: SubOptionRemoteID, Data: []byte("agent")},
	})

	raw, err := Encode(msg)
	require.NoError(t, err)

	ref, err := dhcpv4.FromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, dhcpv4.MessageTypeRequest, ref.MessageType())
	assert.Equal(t, mac, ref.ClientHWAddr)

	rai := ref.Options.Get(dhcpv4.OptionRelayAgentInformation)
	assert.Equal(t, []byte{1, 5, 'b', 'r', '1', '0', '0', 2, 5, 'a', 'g', 'e', 'n', 't'}, rai)
}

func TestDecodeMatchesGopacket(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	layer := &layers.DHCPv4{
		Operation:    layers.DHCPOpRequest,
		HardwareType: layers.LinkTypeEthernet,
		HardwareLen:  6,
		Xid:          0xcafe,
		RelayAgentIP: net.IPv4(192, 168, 3, 254),
		ClientHWAddr: mac,
		Options: layers.DHCPOptions{
			layers.NewDHCPOption(layers.DHCPOptMessageType, []byte{byte(layers.DHCPMsgTypeDiscover)}),
			layers.NewDHCPOption(layers.DHCPOptParamsRequest, []byte{1, 3, 6}),
			layers.NewDHCPOption(layers.DHCPOptHostname, []byte("cpe")),
		},
	}

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, layer))

	msg, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(0xcafe), msg.XID)
	assert.Equal(t, "192.168.3.254", msg.GIAddr.String())
	require.Len(t, msg.Options, 3)
	assert.Equal(t, Uint8List{1, 3, 6}, msg.Options[1].Value)

	out, err := Encode(msg)
	require.NoError(t, err)

	decoded := &layers.DHCPv4{}
	require.NoError(t, decoded.DecodeFromBytes(out, gopacket.NilDecodeFeedback))
	assert.Equal(t, layer.Xid, decoded.Xid)
	assert.True(t, bytes.Equal(mac, decoded.ClientHWAddr))
	require.Len(t, decoded.Options, 3)
	assert.Equal(t, []byte("cpe"), decoded.Options[2].Data)
}

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

func discoverPayload(t *testing.T) []byte {
	t.Helper()
	msg := &dhcp.Message{
		Op:     dhcp.OpBootRequest,
		HType:  1,
		HLen:   6,
		XID:    0x12345678,
		GIAddr: netip.MustParseAddr("192.168.3.254"),
	}
	copy(msg.CHAddr[:], []byte{0x02, 0, 0, 0, 0, 0x01})
	msg.Append(dhcp.OptionMessageType, dhcp.Uint8(dhcp.DHCPDiscover))
	msg.Append(dhcp.OptionHostName, dhcp.String("cpe"))
	raw, err := dhcp.Encode(msg)
	require.NoError(t, err)
	return raw
}

func TestReadInputHex(t *testing.T) {
	raw := discoverPayload(t)
	dump := hex.EncodeToString(raw[:100]) + "\n" + hex.EncodeToString(raw[100:]) + "\n"

	got, err := readInput(strings.NewReader(dump), "-")
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = readInput(bytes.NewReader(raw), "-")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestDecodeJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, decode(&out, discoverPayload(t)))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "192.168.3.254", doc["giaddr"])
	assert.Equal(t, "02:00:00:00:00:01", doc["chaddr"])
	assert.Len(t, doc["options"], 2)
}

func TestDecodeRaw(t *testing.T) {
	decodeRaw = true
	t.Cleanup(func() { decodeRaw = false })

	var out bytes.Buffer
	require.NoError(t, decode(&out, discoverPayload(t)))
	assert.Equal(t, "350101\n0c03637065\n", out.String())
}

func TestDecodeMalformed(t *testing.T) {
	var out bytes.Buffer
	err := decode(&out, []byte{1, 2, 3})
	require.ErrorIs(t, err, dhcp.ErrMalformedPacket)
}

package ifmgr

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVLANFromName(t *testing.T) {
	tests := []struct {
		name string
		want uint16
		ok   bool
	}{
		{"br100", 100, true},
		{"br101", 101, true},
		{"e101-001-0", 0, false},
		{"br0", 0, false},
		{"br5000", 0, false},
		{"bridge", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := VLANFromName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManagerLookups(t *testing.T) {
	m := New()
	m.Add(&Interface{Index: 4, Name: "br100", Kind: "bridge", IPv4: []netip.Addr{netip.MustParseAddr("192.168.3.254")}})
	m.Add(&Interface{Index: 5, Name: "vlan200", Kind: "vlan", VLAN: 300})
	m.Add(&Interface{Index: 6, MasterIndex: 4, Name: "e100-001-0"})

	addr, ok := m.Address("br100")
	require.True(t, ok)
	assert.Equal(t, "192.168.3.254", addr.String())

	_, ok = m.Address("e100-001-0")
	assert.False(t, ok)

	vlan, ok := m.VLAN("br100")
	assert.True(t, ok)
	assert.Equal(t, uint16(100), vlan)

	vlan, _ = m.VLAN("vlan200")
	assert.Equal(t, uint16(300), vlan, "device VLAN wins over the name")

	index, ok := m.Index("br100")
	assert.True(t, ok)
	assert.Equal(t, 4, index)

	_, ok = m.Index("br-lan")
	assert.False(t, ok)

	vlan, ok = m.VLAN("br101")
	assert.True(t, ok, "unregistered names still derive a VLAN")
	assert.Equal(t, uint16(101), vlan)

	names := []string{}
	for _, iface := range m.List() {
		names = append(names, iface.Name)
	}
	assert.Equal(t, []string{"br100", "e100-001-0", "vlan200"}, names)
}

func TestManagerReplaceAndRemove(t *testing.T) {
	m := New()
	m.Add(&Interface{Index: 4, Name: "br100"})
	m.Add(&Interface{Index: 7, Name: "br100"})

	assert.Nil(t, m.Get(4))
	assert.Equal(t, 7, m.GetByName("br100").Index)

	m.AddIPv4Address("br100", netip.MustParseAddr("10.0.0.1"))
	m.AddIPv4Address("br100", netip.MustParseAddr("10.0.0.1"))
	m.AddIPv4Address("br100", netip.MustParseAddr("2001:db8::1"))
	assert.Len(t, m.GetByName("br100").IPv4, 1)

	m.RemoveIPv4Address("br100", netip.MustParseAddr("10.0.0.1"))
	assert.Empty(t, m.GetByName("br100").IPv4)

	m.Remove("br100")
	assert.Nil(t, m.GetByName("br100"))
	assert.Nil(t, m.Get(7))
}

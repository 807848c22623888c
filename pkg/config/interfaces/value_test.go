package interfaces

import (
	"net/netip"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

func parseLiteral(t *testing.T, doc string) (dhcp.Value, error) {
	t.Helper()
	var v Value
	if err := yaml.Unmarshal([]byte(doc), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", doc, err)
	}
	return v.Parse()
}

func TestValueLiterals(t *testing.T) {
	addr := func(s string) dhcp.Address { return dhcp.AddressFrom(netip.MustParseAddr(s)) }

	tests := []struct {
		doc  string
		want dhcp.Value
	}{
		{"{empty: {}}", dhcp.Empty{}},
		{"{address: 10.0.0.1}", addr("10.0.0.1")},
		{"{addresses: [10.0.0.1, 10.0.0.2]}", dhcp.AddressList{addr("10.0.0.1"), addr("10.0.0.2")}},
		{"{address-pairs: [[10.0.0.0, 255.0.0.0]]}", dhcp.AddressPairs{{First: addr("10.0.0.0"), Second: addr("255.0.0.0")}}},
		{"{uint32: 3600}", dhcp.Uint32(3600)},
		{"{uint16: 1500}", dhcp.Uint16(1500)},
		{"{uint8: 1}", dhcp.Uint8(1)},
		{"{uint16-list: [1, 2]}", dhcp.Uint16List{1, 2}},
		{"{uint8-list: [1, 3, 6]}", dhcp.Uint8List{1, 3, 6}},
		{"{string: cpe}", dhcp.String("cpe")},
		{"{strings: [a, bc]}", dhcp.StringList{"a", "bc"}},
		{"{relay-agent: [{code: 1, data: br100}, {code: 2, hex: 'aa:bb'}]}", dhcp.RelayAgentInfo{
			{Code: 1, Data: []byte("br100")},
			{Code: 2, Data: []byte{0xaa, 0xbb}},
		}},
		{"{client-id: {htype: 1, id: '52:54:00:00:00:01'}}", dhcp.ClientID{HType: 1, ID: []byte{0x52, 0x54, 0, 0, 0, 1}}},
		{"{prefix: 10.1.0.0/16}", dhcp.Prefix{Prefix: netip.MustParsePrefix("10.1.0.0/16")}},
		{"{classless-routes: [{destination: 10.1.0.0/16, router: 192.168.1.1}, {destination: 0.0.0.0/0, router: 192.168.1.254}]}", dhcp.ClasslessRoutes{
			{Destination: dhcp.Prefix{Prefix: netip.MustParsePrefix("10.1.0.0/16")}, Router: addr("192.168.1.1")},
			{Destination: dhcp.Prefix{Prefix: netip.MustParsePrefix("0.0.0.0/0")}, Router: addr("192.168.1.254")},
		}},
		{"{binary: '01:02:ff'}", dhcp.Binary{1, 2, 0xff}},
	}

	for _, tt := range tests {
		got, err := parseLiteral(t, tt.doc)
		if err != nil {
			t.Errorf("%s: %v", tt.doc, err)
			continue
		}
		if !dhcp.Equal(got, tt.want) {
			t.Errorf("%s: got %s %v, want %s %v", tt.doc, got.Kind(), got, tt.want.Kind(), tt.want)
		}
	}
}

func TestValueLiteralErrors(t *testing.T) {
	for _, doc := range []string{
		"{address: '2001:db8::1'}",
		"{addresses: []}",
		"{uint8: 300}",
		"{uint8-list: []}",
		"{binary: zz}",
		"{colour: red}",
		"{client-id: {htype: 1, id: ''}}",
		"{classless-routes: []}",
		"{classless-routes: [{destination: 10.0.0.0/8, router: nope}]}",
	} {
		if _, err := parseLiteral(t, doc); err == nil {
			t.Errorf("%s: expected error", doc)
		}
	}
}

func TestValueRequiresSingleKey(t *testing.T) {
	var v Value
	if err := yaml.Unmarshal([]byte("{address: 10.0.0.1, uint8: 1}"), &v); err == nil {
		t.Fatal("expected error for two kind keys")
	}
}

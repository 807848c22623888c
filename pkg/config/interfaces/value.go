package interfaces

import (
	"errors"
	"fmt"
	"net/netip"

	"gopkg.in/yaml.v3"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

// Value is a typed literal written as a single-key mapping whose key names
// the variant, e.g. {address: 10.0.0.1} or {uint8-list: [1, 3, 6]}. The
// literal is kept raw until Parse so that one bad value is reported against
// its record instead of failing the whole file.
type Value struct {
	Kind string
	Raw  yaml.Node
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: value must be a mapping with exactly one kind key", node.Line)
	}
	v.Kind = node.Content[0].Value
	v.Raw = *node.Content[1]
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	raw := v.Raw
	return map[string]*yaml.Node{v.Kind: &raw}, nil
}

type subOptionLiteral struct {
	Code uint8  `yaml:"code"`
	Data string `yaml:"data,omitempty"`
	Hex  string `yaml:"hex,omitempty"`
}

type classlessRouteLiteral struct {
	Destination string `yaml:"destination"`
	Router      string `yaml:"router"`
}

type clientIDLiteral struct {
	HType uint8  `yaml:"htype"`
	ID    string `yaml:"id"`
}

// Parse converts the literal to a dhcp.Value.
func (v *Value) Parse() (dhcp.Value, error) {
	if v == nil {
		return nil, errors.New("missing value")
	}
	kind, err := dhcp.ParseKind(v.Kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case dhcp.KindEmpty:
		return dhcp.Empty{}, nil

	case dhcp.KindAddress:
		var s string
		if err := v.Raw.Decode(&s); err != nil {
			return nil, err
		}
		return parseAddress(s)

	case dhcp.KindAddressList:
		var ss []string
		if err := v.Raw.Decode(&ss); err != nil {
			return nil, err
		}
		if len(ss) == 0 {
			return nil, errors.New("addresses must not be empty")
		}
		out := make(dhcp.AddressList, len(ss))
		for i, s := range ss {
			if out[i], err = parseAddress(s); err != nil {
				return nil, err
			}
		}
		return out, nil

	case dhcp.KindAddressPairs:
		var pairs [][]string
		if err := v.Raw.Decode(&pairs); err != nil {
			return nil, err
		}
		if len(pairs) == 0 {
			return nil, errors.New("address-pairs must not be empty")
		}
		out := make(dhcp.AddressPairs, len(pairs))
		for i, p := range pairs {
			if len(p) != 2 {
				return nil, fmt.Errorf("address pair %d must have two addresses", i)
			}
			if out[i].First, err = parseAddress(p[0]); err != nil {
				return nil, err
			}
			if out[i].Second, err = parseAddress(p[1]); err != nil {
				return nil, err
			}
		}
		return out, nil

	case dhcp.KindUint32:
		var n uint32
		if err := v.Raw.Decode(&n); err != nil {
			return nil, err
		}
		return dhcp.Uint32(n), nil

	case dhcp.KindUint16:
		var n uint16
		if err := v.Raw.Decode(&n); err != nil {
			return nil, err
		}
		return dhcp.Uint16(n), nil

	case dhcp.KindUint8:
		var n uint8
		if err := v.Raw.Decode(&n); err != nil {
			return nil, err
		}
		return dhcp.Uint8(n), nil

	case dhcp.KindUint16List:
		var l []uint16
		if err := v.Raw.Decode(&l); err != nil {
			return nil, err
		}
		if len(l) == 0 {
			return nil, errors.New("uint16-list must not be empty")
		}
		return dhcp.Uint16List(l), nil

	case dhcp.KindUint8List:
		var l []uint8
		if err := v.Raw.Decode(&l); err != nil {
			return nil, err
		}
		if len(l) == 0 {
			return nil, errors.New("uint8-list must not be empty")
		}
		return dhcp.Uint8List(l), nil

	case dhcp.KindString:
		var s string
		if err := v.Raw.Decode(&s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, errors.New("string must not be empty")
		}
		return dhcp.String(s), nil

	case dhcp.KindStringList:
		var l []string
		if err := v.Raw.Decode(&l); err != nil {
			return nil, err
		}
		if len(l) == 0 {
			return nil, errors.New("strings must not be empty")
		}
		for _, s := range l {
			if s == "" || len(s) > 255 {
				return nil, fmt.Errorf("string %q must be 1-255 bytes", s)
			}
		}
		return dhcp.StringList(l), nil

	case dhcp.KindRelayAgent:
		var subs []subOptionLiteral
		if err := v.Raw.Decode(&subs); err != nil {
			return nil, err
		}
		if len(subs) == 0 {
			return nil, errors.New("relay-agent must have at least one sub-option")
		}
		out := make(dhcp.RelayAgentInfo, len(subs))
		for i, s := range subs {
			data := []byte(s.Data)
			if s.Hex != "" {
				b, err := dhcp.ParseBinary(s.Hex)
				if err != nil {
					return nil, err
				}
				data = b
			}
			if len(data) > 255 {
				return nil, fmt.Errorf("sub-option %d longer than 255 bytes", s.Code)
			}
			out[i] = dhcp.SubOption{Code: s.Code, Data: data}
		}
		return out, nil

	case dhcp.KindClientID:
		var c clientIDLiteral
		if err := v.Raw.Decode(&c); err != nil {
			return nil, err
		}
		id, err := dhcp.ParseBinary(c.ID)
		if err != nil {
			return nil, err
		}
		if len(id) == 0 {
			return nil, errors.New("client-id must carry an identifier")
		}
		return dhcp.ClientID{HType: c.HType, ID: id}, nil

	case dhcp.KindPrefix:
		var s string
		if err := v.Raw.Decode(&s); err != nil {
			return nil, err
		}
		p, err := netip.ParsePrefix(s)
		if err != nil || !p.Addr().Is4() {
			return nil, fmt.Errorf("invalid IPv4 prefix %q", s)
		}
		return dhcp.Prefix{Prefix: p.Masked()}, nil

	case dhcp.KindClasslessRoutes:
		var routes []classlessRouteLiteral
		if err := v.Raw.Decode(&routes); err != nil {
			return nil, err
		}
		if len(routes) == 0 {
			return nil, errors.New("classless-routes must not be empty")
		}
		out := make(dhcp.ClasslessRoutes, len(routes))
		for i, r := range routes {
			p, err := netip.ParsePrefix(r.Destination)
			if err != nil || !p.Addr().Is4() {
				return nil, fmt.Errorf("invalid IPv4 prefix %q", r.Destination)
			}
			router, err := parseAddress(r.Router)
			if err != nil {
				return nil, err
			}
			out[i] = dhcp.ClasslessRoute{Destination: dhcp.Prefix{Prefix: p.Masked()}, Router: router}
		}
		return out, nil

	case dhcp.KindBinary:
		var s string
		if err := v.Raw.Decode(&s); err != nil {
			return nil, err
		}
		return dhcp.ParseBinary(s)
	}
	return nil, fmt.Errorf("unsupported value kind %q", v.Kind)
}

func parseAddress(s string) (dhcp.Address, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return dhcp.Address{}, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return dhcp.AddressFrom(a), nil
}

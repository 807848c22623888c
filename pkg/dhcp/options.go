package dhcp

import (
	"encoding/binary"
	"net/netip"
	"strconv"
	"strings"
)

const (
	OptionPad                   uint8 = 0
	OptionSubnetMask            uint8 = 1
	OptionTimeOffset            uint8 = 2
	OptionRouter                uint8 = 3
	OptionTimeServer            uint8 = 4
	OptionDomainNameServer      uint8 = 6
	OptionHostName              uint8 = 12
	OptionDomainName            uint8 = 15
	OptionPolicyFilter          uint8 = 21
	OptionInterfaceMTU          uint8 = 26
	OptionBroadcastAddress      uint8 = 28
	OptionStaticRoute           uint8 = 33
	OptionNTPServers            uint8 = 42
	OptionRequestedIPAddress    uint8 = 50
	OptionIPAddressLeaseTime    uint8 = 51
	OptionMessageType           uint8 = 53
	OptionServerIdentifier      uint8 = 54
	OptionParameterRequestList  uint8 = 55
	OptionMaxMessageSize        uint8 = 57
	OptionRenewalTime           uint8 = 58
	OptionRebindingTime         uint8 = 59
	OptionClassIdentifier       uint8 = 60
	OptionClientIdentifier      uint8 = 61
	OptionTFTPServerName        uint8 = 66
	OptionBootFileName          uint8 = 67
	OptionUserClass             uint8 = 77
	OptionRapidCommit           uint8 = 80
	OptionRelayAgentInformation uint8 = 82
	OptionDomainSearch          uint8 = 119
	OptionSubnetSelection       uint8 = 118
	OptionDomainServerList      uint8 = 117
	OptionClasslessStaticRoute  uint8 = 121
	OptionEnd                   uint8 = 255
)

type catalogEntry struct {
	name string
	kind Kind
}

var catalog = map[uint8]catalogEntry{
	OptionPad:                   {"pad", KindBinary},
	OptionSubnetMask:            {"subnet-mask", KindAddress},
	OptionTimeOffset:            {"time-offset", KindUint32},
	OptionRouter:                {"router", KindAddressList},
	OptionTimeServer:            {"time-server", KindAddressList},
	OptionDomainNameServer:      {"domain-name-server", KindAddressList},
	OptionHostName:              {"host-name", KindString},
	OptionDomainName:            {"domain-name", KindString},
	OptionPolicyFilter:          {"policy-filter", KindAddressPairs},
	OptionInterfaceMTU:          {"interface-mtu", KindUint16},
	OptionBroadcastAddress:      {"broadcast-address", KindAddress},
	OptionStaticRoute:           {"static-route", KindAddressPairs},
	OptionNTPServers:            {"ntp-servers", KindAddressList},
	OptionRequestedIPAddress:    {"requested-ip-address", KindAddress},
	OptionIPAddressLeaseTime:    {"ip-address-lease-time", KindUint32},
	OptionMessageType:           {"message-type", KindUint8},
	OptionServerIdentifier:      {"server-identifier", KindAddress},
	OptionParameterRequestList:  {"parameter-request-list", KindUint8List},
	OptionMaxMessageSize:        {"max-message-size", KindUint16},
	OptionRenewalTime:           {"renewal-time", KindUint32},
	OptionRebindingTime:         {"rebinding-time", KindUint32},
	OptionClassIdentifier:       {"class-identifier", KindString},
	OptionClientIdentifier:      {"client-identifier", KindClientID},
	OptionTFTPServerName:        {"tftp-server-name", KindString},
	OptionBootFileName:          {"bootfile-name", KindString},
	OptionUserClass:             {"user-class", KindStringList},
	OptionRapidCommit:           {"rapid-commit", KindEmpty},
	OptionRelayAgentInformation: {"relay-agent-information", KindRelayAgent},
	OptionDomainServerList:      {"domain-server-list", KindUint16List},
	OptionSubnetSelection:       {"subnet-selection", KindAddress},
	OptionClasslessStaticRoute:  {"classless-static-route", KindClasslessRoutes},
}

// KindOf returns the catalogued variant for an option code. Codes outside the
// catalog are Binary.
func KindOf(code uint8) Kind {
	if e, ok := catalog[code]; ok {
		return e.kind
	}
	return KindBinary
}

func OptionName(code uint8) string {
	if e, ok := catalog[code]; ok {
		return e.name
	}
	return "option-" + strconv.Itoa(int(code))
}

// LookupOption resolves an option by catalog name or decimal code.
func LookupOption(name string) (uint8, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if n, err := strconv.ParseUint(name, 10, 8); err == nil {
		return uint8(n), true
	}
	for code, e := range catalog {
		if e.name == name {
			return code, true
		}
	}
	return 0, false
}

// DecodeValue parses an option payload as the variant the catalog assigns to
// code. Payloads that do not fit the variant are returned as Binary.
func DecodeValue(code uint8, payload []byte) Value {
	if v, ok := decodeAs(KindOf(code), payload); ok {
		return v
	}
	return Binary(append([]byte(nil), payload...))
}

func decodeAs(kind Kind, payload []byte) (Value, bool) {
	n := len(payload)
	switch kind {
	case KindEmpty:
		if n != 0 {
			return nil, false
		}
		return Empty{}, true
	case KindAddress:
		if n != 4 {
			return nil, false
		}
		return Address(payload), true
	case KindAddressList:
		if n == 0 || n%4 != 0 {
			return nil, false
		}
		l := make(AddressList, n/4)
		for i := range l {
			l[i] = Address(payload[i*4 : i*4+4])
		}
		return l, true
	case KindAddressPairs:
		if n == 0 || n%8 != 0 {
			return nil, false
		}
		p := make(AddressPairs, n/8)
		for i := range p {
			p[i] = AddressPair{
				First:  Address(payload[i*8 : i*8+4]),
				Second: Address(payload[i*8+4 : i*8+8]),
			}
		}
		return p, true
	case KindUint32:
		if n != 4 {
			return nil, false
		}
		return Uint32(binary.BigEndian.Uint32(payload)), true
	case KindUint16:
		if n != 2 {
			return nil, false
		}
		return Uint16(binary.BigEndian.Uint16(payload)), true
	case KindUint8:
		if n != 1 {
			return nil, false
		}
		return Uint8(payload[0]), true
	case KindUint16List:
		if n == 0 || n%2 != 0 {
			return nil, false
		}
		l := make(Uint16List, n/2)
		for i := range l {
			l[i] = binary.BigEndian.Uint16(payload[i*2:])
		}
		return l, true
	case KindUint8List:
		if n == 0 {
			return nil, false
		}
		return Uint8List(append([]byte(nil), payload...)), true
	case KindString:
		if n == 0 {
			return nil, false
		}
		return String(payload), true
	case KindStringList:
		return decodeStringList(payload)
	case KindRelayAgent:
		return decodeRelayAgentInfo(payload)
	case KindClientID:
		if n < 2 {
			return nil, false
		}
		return ClientID{HType: payload[0], ID: append([]byte(nil), payload[1:]...)}, true
	case KindPrefix:
		return decodePrefix(payload)
	case KindClasslessRoutes:
		return decodeClasslessRoutes(payload)
	}
	return nil, false
}

func decodeStringList(payload []byte) (Value, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	var l StringList
	for i := 0; i < len(payload); {
		n := int(payload[i])
		if n == 0 || i+1+n > len(payload) {
			return nil, false
		}
		l = append(l, string(payload[i+1:i+1+n]))
		i += 1 + n
	}
	return l, true
}

func decodePrefix(payload []byte) (Value, bool) {
	if len(payload) == 0 || payload[0] > 32 {
		return nil, false
	}
	bits := int(payload[0])
	if len(payload) != 1+(bits+7)/8 {
		return nil, false
	}
	var a [4]byte
	copy(a[:], payload[1:])
	addr := netip.AddrFrom4(a)
	p, err := addr.Prefix(bits)
	if err != nil || p.Addr() != addr {
		return nil, false
	}
	return Prefix{p}, true
}

func decodeClasslessRoutes(payload []byte) (Value, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	var routes ClasslessRoutes
	for i := 0; i < len(payload); {
		if payload[i] > 32 {
			return nil, false
		}
		n := 1 + (int(payload[i])+7)/8
		if i+n+4 > len(payload) {
			return nil, false
		}
		dst, ok := decodePrefix(payload[i : i+n])
		if !ok {
			return nil, false
		}
		routes = append(routes, ClasslessRoute{
			Destination: dst.(Prefix),
			Router:      Address(payload[i+n : i+n+4]),
		})
		i += n + 4
	}
	return routes, true
}

package dhcp

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindBinary Kind = iota
	KindEmpty
	KindAddress
	KindAddressList
	KindAddressPairs
	KindUint32
	KindUint16
	KindUint8
	KindUint16List
	KindUint8List
	KindString
	KindStringList
	KindRelayAgent
	KindClientID
	KindPrefix
	KindClasslessRoutes
)

var kindNames = map[Kind]string{
	KindBinary:          "binary",
	KindEmpty:           "empty",
	KindAddress:         "address",
	KindAddressList:     "addresses",
	KindAddressPairs:    "address-pairs",
	KindUint32:          "uint32",
	KindUint16:          "uint16",
	KindUint8:           "uint8",
	KindUint16List:      "uint16-list",
	KindUint8List:       "uint8-list",
	KindString:          "string",
	KindStringList:      "strings",
	KindRelayAgent:      "relay-agent",
	KindClientID:        "client-id",
	KindPrefix:          "prefix",
	KindClasslessRoutes: "classless-routes",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown value kind %q", name)
}

// Value is the payload of an option or a header field. The set of
// implementations is closed; the variant is reported by Kind.
type Value interface {
	Kind() Kind
	// Bytes returns the wire encoding of the payload, without code and length.
	Bytes() []byte
	String() string
	isValue()
}

// Integer is implemented by the unsigned scalar variants.
type Integer interface {
	Value
	Uint64() uint64
}

// List is implemented by the variants that compare element-wise.
type List interface {
	Value
	Elements() []Value
	ElementKind() Kind
}

type Empty struct{}

func (Empty) Kind() Kind     { return KindEmpty }
func (Empty) Bytes() []byte  { return nil }
func (Empty) String() string { return "" }
func (Empty) isValue()       {}

type Address [4]byte

func AddressFrom(a netip.Addr) Address {
	if a.Is4In6() {
		a = a.Unmap()
	}
	if !a.Is4() {
		return Address{}
	}
	return Address(a.As4())
}

func (a Address) Addr() netip.Addr { return netip.AddrFrom4(a) }
func (a Address) Kind() Kind       { return KindAddress }
func (a Address) Bytes() []byte    { return a[:] }
func (a Address) String() string   { return a.Addr().String() }
func (Address) isValue()           {}

type AddressList []Address

func (l AddressList) Kind() Kind { return KindAddressList }

func (l AddressList) Bytes() []byte {
	b := make([]byte, 0, 4*len(l))
	for _, a := range l {
		b = append(b, a[:]...)
	}
	return b
}

func (l AddressList) String() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

func (l AddressList) Elements() []Value {
	out := make([]Value, len(l))
	for i, a := range l {
		out[i] = a
	}
	return out
}

func (AddressList) ElementKind() Kind { return KindAddress }
func (AddressList) isValue()          {}

type AddressPair struct {
	First  Address
	Second Address
}

// AddressPairs carries options such as policy filters and static routes
// whose payload is a sequence of address pairs.
type AddressPairs []AddressPair

func (p AddressPairs) Kind() Kind { return KindAddressPairs }

func (p AddressPairs) Bytes() []byte {
	b := make([]byte, 0, 8*len(p))
	for _, pair := range p {
		b = append(b, pair.First[:]...)
		b = append(b, pair.Second[:]...)
	}
	return b
}

func (p AddressPairs) String() string {
	parts := make([]string, len(p))
	for i, pair := range p {
		parts[i] = pair.First.String() + "/" + pair.Second.String()
	}
	return strings.Join(parts, ",")
}

func (AddressPairs) isValue() {}

type Uint32 uint32

func (v Uint32) Kind() Kind     { return KindUint32 }
func (v Uint32) Uint64() uint64 { return uint64(v) }
func (v Uint32) String() string { return fmt.Sprintf("%d", uint32(v)) }
func (Uint32) isValue()         {}

func (v Uint32) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(v))
}

type Uint16 uint16

func (v Uint16) Kind() Kind     { return KindUint16 }
func (v Uint16) Uint64() uint64 { return uint64(v) }
func (v Uint16) String() string { return fmt.Sprintf("%d", uint16(v)) }
func (Uint16) isValue()         {}

func (v Uint16) Bytes() []byte {
	return binary.BigEndian.AppendUint16(nil, uint16(v))
}

type Uint8 uint8

func (v Uint8) Kind() Kind     { return KindUint8 }
func (v Uint8) Uint64() uint64 { return uint64(v) }
func (v Uint8) Bytes() []byte  { return []byte{byte(v)} }
func (v Uint8) String() string { return fmt.Sprintf("%d", uint8(v)) }
func (Uint8) isValue()         {}

type Uint16List []uint16

func (l Uint16List) Kind() Kind { return KindUint16List }

func (l Uint16List) Bytes() []byte {
	b := make([]byte, 0, 2*len(l))
	for _, v := range l {
		b = binary.BigEndian.AppendUint16(b, v)
	}
	return b
}

func (l Uint16List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

func (l Uint16List) Elements() []Value {
	out := make([]Value, len(l))
	for i, v := range l {
		out[i] = Uint16(v)
	}
	return out
}

func (Uint16List) ElementKind() Kind { return KindUint16 }
func (Uint16List) isValue()          {}

type Uint8List []uint8

func (l Uint8List) Kind() Kind    { return KindUint8List }
func (l Uint8List) Bytes() []byte { return append([]byte(nil), l...) }

func (l Uint8List) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

func (l Uint8List) Elements() []Value {
	out := make([]Value, len(l))
	for i, v := range l {
		out[i] = Uint8(v)
	}
	return out
}

func (Uint8List) ElementKind() Kind { return KindUint8 }
func (Uint8List) isValue()          {}

type String string

func (s String) Kind() Kind     { return KindString }
func (s String) Bytes() []byte  { return []byte(s) }
func (s String) String() string { return string(s) }
func (String) isValue()         {}

// StringList is the length-prefixed string sequence used by the user class option.
type StringList []string

func (l StringList) Kind() Kind { return KindStringList }

func (l StringList) Bytes() []byte {
	var b []byte
	for _, s := range l {
		b = append(b, byte(len(s)))
		b = append(b, s...)
	}
	return b
}

func (l StringList) String() string { return strings.Join(l, ",") }

func (l StringList) Elements() []Value {
	out := make([]Value, len(l))
	for i, s := range l {
		out[i] = String(s)
	}
	return out
}

func (StringList) ElementKind() Kind { return KindString }
func (StringList) isValue()          {}

type ClientID struct {
	HType uint8
	ID    []byte
}

func (c ClientID) Kind() Kind    { return KindClientID }
func (c ClientID) Bytes() []byte { return append([]byte{c.HType}, c.ID...) }

func (c ClientID) String() string {
	return fmt.Sprintf("%d/%s", c.HType, colonHex(c.ID))
}

func (ClientID) isValue() {}

// Prefix is a classless route destination descriptor: the prefix width
// followed by the significant octets of the network address.
type Prefix struct {
	netip.Prefix
}

func (p Prefix) Kind() Kind { return KindPrefix }

func (p Prefix) Bytes() []byte {
	bits := p.Bits()
	if bits < 0 || !p.Addr().Is4() {
		return []byte{0}
	}
	addr := p.Addr().As4()
	return append([]byte{byte(bits)}, addr[:(bits+7)/8]...)
}

func (Prefix) isValue() {}

type ClasslessRoute struct {
	Destination Prefix
	Router      Address
}

// ClasslessRoutes is the payload of the classless static route option. Its
// elements are the route destinations, so prefix literals are matched per
// route.
type ClasslessRoutes []ClasslessRoute

func (r ClasslessRoutes) Kind() Kind { return KindClasslessRoutes }

func (r ClasslessRoutes) Bytes() []byte {
	var b []byte
	for _, route := range r {
		b = append(b, route.Destination.Bytes()...)
		b = append(b, route.Router[:]...)
	}
	return b
}

func (r ClasslessRoutes) String() string {
	parts := make([]string, len(r))
	for i, route := range r {
		parts[i] = route.Destination.String() + " via " + route.Router.String()
	}
	return strings.Join(parts, ",")
}

func (r ClasslessRoutes) Elements() []Value {
	out := make([]Value, len(r))
	for i, route := range r {
		out[i] = route.Destination
	}
	return out
}

func (ClasslessRoutes) ElementKind() Kind { return KindPrefix }
func (ClasslessRoutes) isValue()          {}

type Binary []byte

func (b Binary) Kind() Kind     { return KindBinary }
func (b Binary) Bytes() []byte  { return append([]byte(nil), b...) }
func (b Binary) String() string { return colonHex(b) }
func (Binary) isValue()         {}

// ParseBinary accepts hex with optional ':' or '-' separators.
func ParseBinary(s string) (Binary, error) {
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(s)
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return Binary(b), nil
}

func colonHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}

// Equal reports whether two values have the same variant and wire payload.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && bytes.Equal(a.Bytes(), b.Bytes())
}

// Ordered reports whether values of kind k have a defined ordering.
func Ordered(k Kind) bool {
	switch k {
	case KindBinary, KindEmpty:
		return false
	}
	return true
}

// Compare orders two values of the same kind. Integers compare numerically,
// everything else compares its wire payload lexicographically. ok is false
// when the kinds differ.
func Compare(a, b Value) (cmp int, ok bool) {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return 0, false
	}
	if ai, isInt := a.(Integer); isInt {
		bi := b.(Integer)
		switch {
		case ai.Uint64() < bi.Uint64():
			return -1, true
		case ai.Uint64() > bi.Uint64():
			return 1, true
		}
		return 0, true
	}
	return bytes.Compare(a.Bytes(), b.Bytes()), true
}

package dhcp

import (
	"fmt"
	"strings"
)

// Field names a fixed BOOTP header field.
type Field uint8

const (
	FieldOp Field = iota + 1
	FieldHType
	FieldHLen
	FieldHops
	FieldXID
	FieldSecs
	FieldFlags
	FieldCIAddr
	FieldYIAddr
	FieldSIAddr
	FieldGIAddr
	FieldCHAddr
	FieldSName
	FieldFile
)

var fields = []struct {
	field Field
	name  string
	kind  Kind
	max   int
}{
	{FieldOp, "op", KindUint8, 0},
	{FieldHType, "htype", KindUint8, 0},
	{FieldHLen, "hlen", KindUint8, 0},
	{FieldHops, "hops", KindUint8, 0},
	{FieldXID, "xid", KindUint32, 0},
	{FieldSecs, "secs", KindUint16, 0},
	{FieldFlags, "flags", KindUint16, 0},
	{FieldCIAddr, "ciaddr", KindAddress, 0},
	{FieldYIAddr, "yiaddr", KindAddress, 0},
	{FieldSIAddr, "siaddr", KindAddress, 0},
	{FieldGIAddr, "giaddr", KindAddress, 0},
	{FieldCHAddr, "chaddr", KindBinary, 16},
	{FieldSName, "sname", KindString, 64},
	{FieldFile, "file", KindString, 128},
}

func (f Field) String() string {
	for _, e := range fields {
		if e.field == f {
			return e.name
		}
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

// Kind is the variant carried by the field.
func (f Field) Kind() Kind {
	for _, e := range fields {
		if e.field == f {
			return e.kind
		}
	}
	return KindBinary
}

func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range fields {
		if e.name == name {
			return e.field, true
		}
	}
	return 0, false
}

// Field returns the value of a header field. chaddr is truncated to hlen,
// sname and file to their first NUL.
func (m *Message) Field(f Field) Value {
	switch f {
	case FieldOp:
		return Uint8(m.Op)
	case FieldHType:
		return Uint8(m.HType)
	case FieldHLen:
		return Uint8(m.HLen)
	case FieldHops:
		return Uint8(m.Hops)
	case FieldXID:
		return Uint32(m.XID)
	case FieldSecs:
		return Uint16(m.Secs)
	case FieldFlags:
		return Uint16(m.Flags)
	case FieldCIAddr:
		return AddressFrom(m.CIAddr)
	case FieldYIAddr:
		return AddressFrom(m.YIAddr)
	case FieldSIAddr:
		return AddressFrom(m.SIAddr)
	case FieldGIAddr:
		return AddressFrom(m.GIAddr)
	case FieldCHAddr:
		return Binary(m.ClientMAC())
	case FieldSName:
		return String(m.ServerName())
	case FieldFile:
		return String(m.BootFile())
	}
	return nil
}

// SetField assigns a header field. The value must carry the field's kind.
// Setting chaddr also sets hlen.
func (m *Message) SetField(f Field, v Value) error {
	if v == nil || v.Kind() != f.Kind() {
		return fmt.Errorf("field %s requires %s value", f, f.Kind())
	}
	switch f {
	case FieldOp:
		m.Op = uint8(v.(Uint8))
	case FieldHType:
		m.HType = uint8(v.(Uint8))
	case FieldHLen:
		m.HLen = uint8(v.(Uint8))
	case FieldHops:
		m.Hops = uint8(v.(Uint8))
	case FieldXID:
		m.XID = uint32(v.(Uint32))
	case FieldSecs:
		m.Secs = uint16(v.(Uint16))
	case FieldFlags:
		m.Flags = uint16(v.(Uint16))
	case FieldCIAddr:
		m.CIAddr = v.(Address).Addr()
	case FieldYIAddr:
		m.YIAddr = v.(Address).Addr()
	case FieldSIAddr:
		m.SIAddr = v.(Address).Addr()
	case FieldGIAddr:
		m.GIAddr = v.(Address).Addr()
	case FieldCHAddr:
		b := v.Bytes()
		if len(b) > len(m.CHAddr) {
			return fmt.Errorf("chaddr longer than %d bytes", len(m.CHAddr))
		}
		m.CHAddr = [16]byte{}
		copy(m.CHAddr[:], b)
		m.HLen = uint8(len(b))
	case FieldSName:
		return setFixed(m.SName[:], v.Bytes(), f)
	case FieldFile:
		return setFixed(m.File[:], v.Bytes(), f)
	default:
		return fmt.Errorf("unknown field %d", uint8(f))
	}
	return nil
}

// CheckField reports whether v can be assigned to f.
func CheckField(f Field, v Value) error {
	if v == nil || v.Kind() != f.Kind() {
		return fmt.Errorf("field %s requires %s value", f, f.Kind())
	}
	for _, e := range fields {
		if e.field == f && e.max > 0 && len(v.Bytes()) > e.max {
			return fmt.Errorf("field %s holds at most %d bytes", f, e.max)
		}
	}
	return nil
}

func setFixed(dst, src []byte, f Field) error {
	if len(src) > len(dst) {
		return fmt.Errorf("field %s holds at most %d bytes", f, len(dst))
	}
	clear(dst)
	copy(dst, src)
	return nil
}

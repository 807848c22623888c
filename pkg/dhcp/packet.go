package dhcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
)

var ErrOptionTooLong = errors.New("option payload exceeds 255 bytes")

// Encode serializes m to its UDP payload: the fixed header, the magic cookie,
// options in list order (PAD runs written as-is), END and the preserved
// trailer.
func Encode(m *Message) ([]byte, error) {
	size := headerSize + 1 + len(m.Trailer)
	payloads := make([][]byte, len(m.Options))
	for i, opt := range m.Options {
		if opt.Code == OptionPad {
			payloads[i] = padRun(opt.Value)
			size += len(payloads[i])
			continue
		}
		if opt.Code == OptionEnd {
			return nil, fmt.Errorf("option %d cannot carry a payload", opt.Code)
		}
		if opt.Value == nil {
			return nil, fmt.Errorf("option %d has no value", opt.Code)
		}
		b := opt.Value.Bytes()
		if len(b) > 255 {
			return nil, fmt.Errorf("option %d (%d bytes): %w", opt.Code, len(b), ErrOptionTooLong)
		}
		payloads[i] = b
		size += 2 + len(b)
	}

	buf := make([]byte, headerSize, size)
	buf[0] = m.Op
	buf[1] = m.HType
	buf[2] = m.HLen
	buf[3] = m.Hops
	binary.BigEndian.PutUint32(buf[4:8], m.XID)
	binary.BigEndian.PutUint16(buf[8:10], m.Secs)
	binary.BigEndian.PutUint16(buf[10:12], m.Flags)
	putAddr(buf[12:16], m.CIAddr)
	putAddr(buf[16:20], m.YIAddr)
	putAddr(buf[20:24], m.SIAddr)
	putAddr(buf[24:28], m.GIAddr)
	copy(buf[28:44], m.CHAddr[:])
	copy(buf[44:108], m.SName[:])
	copy(buf[108:236], m.File[:])
	binary.BigEndian.PutUint32(buf[236:240], DHCPMagicCookie)

	for i, opt := range m.Options {
		if opt.Code == OptionPad {
			buf = append(buf, payloads[i]...)
			continue
		}
		buf = append(buf, opt.Code, byte(len(payloads[i])))
		buf = append(buf, payloads[i]...)
	}
	buf = append(buf, OptionEnd)
	buf = append(buf, m.Trailer...)
	return buf, nil
}

// padRun is the wire form of a PAD entry: one zero byte per byte of its
// value, at least one.
func padRun(v Value) []byte {
	n := 1
	if v != nil {
		if l := len(v.Bytes()); l > 1 {
			n = l
		}
	}
	return make([]byte, n)
}

func putAddr(dst []byte, a netip.Addr) {
	if a.Is4In6() {
		a = a.Unmap()
	}
	if !a.Is4() {
		copy(dst, []byte{0, 0, 0, 0})
		return
	}
	b := a.As4()
	copy(dst, b[:])
}

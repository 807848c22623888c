package dhcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

const (
	DHCPMinPacketSize = 236
	DHCPMagicCookie   = 0x63825363

	headerSize = DHCPMinPacketSize + 4
)

const (
	OpBootRequest uint8 = 1
	OpBootReply   uint8 = 2

	FlagBroadcast uint16 = 0x8000
)

var ErrMalformedPacket = errors.New("malformed dhcp packet")

type MessageType uint8

const (
	DHCPDiscover MessageType = 1
	DHCPOffer    MessageType = 2
	DHCPRequest  MessageType = 3
	DHCPDecline  MessageType = 4
	DHCPAck      MessageType = 5
	DHCPNak      MessageType = 6
	DHCPRelease  MessageType = 7
	DHCPInform   MessageType = 8
)

func (mt MessageType) String() string {
	switch mt {
	case DHCPDiscover:
		return "DHCPDISCOVER"
	case DHCPOffer:
		return "DHCPOFFER"
	case DHCPRequest:
		return "DHCPREQUEST"
	case DHCPDecline:
		return "DHCPDECLINE"
	case DHCPAck:
		return "DHCPACK"
	case DHCPNak:
		return "DHCPNAK"
	case DHCPRelease:
		return "DHCPRELEASE"
	case DHCPInform:
		return "DHCPINFORM"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", mt)
	}
}

type Option struct {
	Code  uint8
	Value Value
}

// Message is a decoded BOOTP/DHCP message. Options keep wire order and
// duplicate codes. A run of PAD bytes between options is kept as a single
// OptionPad entry whose value holds the run. Trailer holds whatever followed
// the END option.
type Message struct {
	Op      uint8
	HType   uint8
	HLen    uint8
	Hops    uint8
	XID     uint32
	Secs    uint16
	Flags   uint16
	CIAddr  netip.Addr
	YIAddr  netip.Addr
	SIAddr  netip.Addr
	GIAddr  netip.Addr
	CHAddr  [16]byte
	SName   [64]byte
	File    [128]byte
	Options []Option
	Trailer []byte
}

// Decode parses a DHCP message from its UDP payload.
func Decode(data []byte) (*Message, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedPacket, len(data))
	}

	magic := binary.BigEndian.Uint32(data[236:240])
	if magic != DHCPMagicCookie {
		return nil, fmt.Errorf("%w: invalid magic cookie 0x%x", ErrMalformedPacket, magic)
	}

	msg := &Message{
		Op:     data[0],
		HType:  data[1],
		HLen:   data[2],
		Hops:   data[3],
		XID:    binary.BigEndian.Uint32(data[4:8]),
		Secs:   binary.BigEndian.Uint16(data[8:10]),
		Flags:  binary.BigEndian.Uint16(data[10:12]),
		CIAddr: netip.AddrFrom4([4]byte(data[12:16])),
		YIAddr: netip.AddrFrom4([4]byte(data[16:20])),
		SIAddr: netip.AddrFrom4([4]byte(data[20:24])),
		GIAddr: netip.AddrFrom4([4]byte(data[24:28])),
	}
	copy(msg.CHAddr[:], data[28:44])
	copy(msg.SName[:], data[44:108])
	copy(msg.File[:], data[108:236])

	msg.parseOptions(data[headerSize:])
	return msg, nil
}

func (m *Message) parseOptions(data []byte) {
	i := 0
	for i < len(data) {
		code := data[i]
		if code == OptionPad {
			j := i + 1
			for j < len(data) && data[j] == OptionPad {
				j++
			}
			m.Options = append(m.Options, Option{Code: OptionPad, Value: Binary(append([]byte(nil), data[i:j]...))})
			i = j
			continue
		}
		if code == OptionEnd {
			m.Trailer = append([]byte(nil), data[i+1:]...)
			return
		}

		if i+1 >= len(data) {
			m.Options = append(m.Options, Option{Code: code, Value: Binary{}})
			return
		}

		n := int(data[i+1])
		if i+2+n > len(data) {
			m.Options = append(m.Options, Option{
				Code:  code,
				Value: Binary(append([]byte(nil), data[i+2:]...)),
			})
			return
		}

		m.Options = append(m.Options, Option{Code: code, Value: DecodeValue(code, data[i+2:i+2+n])})
		i += 2 + n
	}
}

func (m *Message) IsRequest() bool {
	return m.Op == OpBootRequest
}

func (m *Message) Broadcast() bool {
	return m.Flags&FlagBroadcast != 0
}

// ClientMAC returns chaddr truncated to hlen.
func (m *Message) ClientMAC() net.HardwareAddr {
	n := int(m.HLen)
	if n > len(m.CHAddr) {
		n = len(m.CHAddr)
	}
	return net.HardwareAddr(append([]byte(nil), m.CHAddr[:n]...))
}

func (m *Message) ServerName() string {
	return cString(m.SName[:])
}

func (m *Message) BootFile() string {
	return cString(m.File[:])
}

func (m *Message) MessageType() MessageType {
	if v, ok := m.Get(OptionMessageType); ok {
		if t, ok := v.(Uint8); ok {
			return MessageType(t)
		}
	}
	return 0
}

// Get returns the first instance of an option. PAD runs are never returned.
func (m *Message) Get(code uint8) (Value, bool) {
	if code == OptionPad {
		return nil, false
	}
	for _, opt := range m.Options {
		if opt.Code == code {
			return opt.Value, true
		}
	}
	return nil, false
}

// GetAll returns every instance of an option in wire order.
func (m *Message) GetAll(code uint8) []Value {
	if code == OptionPad {
		return nil
	}
	var out []Value
	for _, opt := range m.Options {
		if opt.Code == code {
			out = append(out, opt.Value)
		}
	}
	return out
}

func (m *Message) Has(code uint8) bool {
	_, ok := m.Get(code)
	return ok
}

func (m *Message) Append(code uint8, v Value) {
	m.Options = append(m.Options, Option{Code: code, Value: v})
}

// Replace sets the first instance of code to v and removes the others. The
// option is appended when absent.
func (m *Message) Replace(code uint8, v Value) {
	out := m.Options[:0]
	replaced := false
	for _, opt := range m.Options {
		if opt.Code != code {
			out = append(out, opt)
			continue
		}
		if !replaced {
			out = append(out, Option{Code: code, Value: v})
			replaced = true
		}
	}
	m.Options = out
	if !replaced {
		m.Append(code, v)
	}
}

// RemoveFunc drops every instance of code for which match returns true and
// reports how many were removed.
func (m *Message) RemoveFunc(code uint8, match func(Value) bool) int {
	if code == OptionPad {
		return 0
	}
	out := m.Options[:0]
	removed := 0
	for _, opt := range m.Options {
		if opt.Code == code && match(opt.Value) {
			removed++
			continue
		}
		out = append(out, opt)
	}
	m.Options = out
	return removed
}

// Clone returns a copy whose option list and trailer can be modified without
// affecting m. Option values are shared; they are treated as immutable.
func (m *Message) Clone() *Message {
	c := *m
	c.Options = append([]Option(nil), m.Options...)
	if m.Trailer != nil {
		c.Trailer = append([]byte(nil), m.Trailer...)
	}
	return &c
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

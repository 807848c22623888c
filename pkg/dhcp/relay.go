package dhcp

import (
	"bytes"
	"fmt"
	"strings"
)

// Relay agent information sub-option codes (RFC 3046).
const (
	SubOptionCircuitID uint8 = 1
	SubOptionRemoteID  uint8 = 2
)

type SubOption struct {
	Code uint8
	Data []byte
}

// RelayAgentInfo is the payload of option 82. Sub-options keep wire order and
// duplicates.
type RelayAgentInfo []SubOption

func (r RelayAgentInfo) Kind() Kind { return KindRelayAgent }

func (r RelayAgentInfo) Bytes() []byte {
	var b []byte
	for _, sub := range r {
		b = append(b, sub.Code, byte(len(sub.Data)))
		b = append(b, sub.Data...)
	}
	return b
}

func (r RelayAgentInfo) String() string {
	parts := make([]string, len(r))
	for i, sub := range r {
		parts[i] = fmt.Sprintf("%d=%s", sub.Code, printable(sub.Data))
	}
	return strings.Join(parts, ",")
}

func (RelayAgentInfo) isValue() {}

// Get returns the first sub-option with the given code.
func (r RelayAgentInfo) Get(code uint8) ([]byte, bool) {
	for _, sub := range r {
		if sub.Code == code {
			return sub.Data, true
		}
	}
	return nil, false
}

func (r RelayAgentInfo) HasSubOption(code uint8, data []byte) bool {
	for _, sub := range r {
		if sub.Code == code && bytes.Equal(sub.Data, data) {
			return true
		}
	}
	return false
}

func decodeRelayAgentInfo(payload []byte) (RelayAgentInfo, bool) {
	if len(payload) == 0 {
		return nil, false
	}
	var info RelayAgentInfo
	for i := 0; i < len(payload); {
		if i+2 > len(payload) {
			return nil, false
		}
		code, n := payload[i], int(payload[i+1])
		if i+2+n > len(payload) {
			return nil, false
		}
		info = append(info, SubOption{
			Code: code,
			Data: append([]byte(nil), payload[i+2:i+2+n]...),
		})
		i += 2 + n
	}
	return info, true
}

func printable(b []byte) string {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return colonHex(b)
		}
	}
	return string(b)
}

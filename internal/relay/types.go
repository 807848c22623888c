package relay

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

var (
	ErrNoTransaction     = errors.New("no relay transaction for reply")
	ErrUnknownInterface  = errors.New("interface not configured")
	ErrUnexpectedMessage = errors.New("unexpected message for direction")
	ErrNoRelayAddress    = errors.New("interface has no IPv4 address")
)

// Destination tells the dataplane where an output message goes.
type Destination uint8

const (
	// DestinationServer unicasts to Result.Server over UDP.
	DestinationServer Destination = iota + 1
	// DestinationTrusted forwards the frame out of the trusted port.
	DestinationTrusted
	// DestinationIngress sends the reply back toward the client on
	// Result.Interface, or directly out of Result.Port when known.
	DestinationIngress
)

func (d Destination) String() string {
	switch d {
	case DestinationServer:
		return "server"
	case DestinationTrusted:
		return "trusted"
	case DestinationIngress:
		return "ingress"
	}
	return fmt.Sprintf("destination(%d)", uint8(d))
}

type Result struct {
	Payload     []byte
	Message     *dhcp.Message
	Destination Destination
	// Server is set for DestinationServer.
	Server     netip.Addr
	ServerPort uint16
	// Port is the trusted port for DestinationTrusted and the client's
	// learned port, if any, for DestinationIngress.
	Port      string
	Interface string
	Mode      string
	ClientMAC net.HardwareAddr
	// Broadcast asks for the reply to be sent to the broadcast addresses
	// rather than to yiaddr and chaddr.
	Broadcast  bool
	Generation uint64
}

// ProcessingError is returned for every packet that is dropped.
type ProcessingError struct {
	Interface string
	XID       uint32
	Err       error
}

func (e *ProcessingError) Error() string {
	if e.XID != 0 {
		return fmt.Sprintf("%s: xid 0x%08x: %v", e.Interface, e.XID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Interface, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// dropReason is the metrics label for a processing error.
func dropReason(err error) string {
	switch {
	case errors.Is(err, dhcp.ErrMalformedPacket):
		return "malformed"
	case errors.Is(err, ErrNoTransaction):
		return "no-transaction"
	case errors.Is(err, ErrUnknownInterface):
		return "unconfigured"
	case errors.Is(err, ErrUnexpectedMessage):
		return "unexpected"
	case errors.Is(err, ErrNoRelayAddress):
		return "no-address"
	}
	return "error"
}

// Package fdb resolves which bridge port a client MAC address was learned on.
package fdb

import (
	"context"
	"errors"
	"net"
	"strings"
)

var ErrNotFound = errors.New("fdb entry not found")

// Lookup returns the port on which mac was learned behind bridge. vlan
// selects among VLAN tagged entries and is 0 when the bridge carries no VLAN.
// Implementations return ErrNotFound on a miss and honour ctx cancellation.
type Lookup interface {
	Lookup(ctx context.Context, bridge string, vlan uint16, mac net.HardwareAddr) (string, error)
}

type key struct {
	vlan uint16
	mac  string
}

func keyFor(vlan uint16, mac net.HardwareAddr) key {
	return key{vlan: vlan, mac: strings.ToLower(mac.String())}
}

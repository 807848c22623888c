package ifmgr

import (
	"net"
	"net/netip"
	"strconv"
)

type Interface struct {
	Index       int
	MasterIndex int
	Name        string
	// Kind is the netlink link type, e.g. "bridge", "vlan", "veth".
	Kind string
	VLAN uint16
	MAC  net.HardwareAddr
	IPv4 []netip.Addr
	Up   bool
}

func (i *Interface) IsBridge() bool {
	return i.Kind == "bridge"
}

// PrimaryIPv4 returns the first IPv4 address, used as the relay address.
func (i *Interface) PrimaryIPv4() (netip.Addr, bool) {
	if len(i.IPv4) == 0 {
		return netip.Addr{}, false
	}
	return i.IPv4[0], true
}

// VLANFromName derives a VLAN id from the trailing digits of an interface
// name, so br100 yields 100. It returns false when there are no trailing
// digits or the number is not a valid VLAN id.
func VLANFromName(name string) (uint16, bool) {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, false
	}
	id, err := strconv.Atoi(name[start:end])
	if err != nil || id < 1 || id > 4094 {
		return 0, false
	}
	return uint16(id), true
}

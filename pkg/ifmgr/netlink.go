package ifmgr

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

// NewNetlinkHandle opens a netlink handle inside the named network namespace.
// An empty name uses the current namespace.
func NewNetlinkHandle(nsName string) (*netlink.Handle, error) {
	if nsName == "" {
		return netlink.NewHandle()
	}

	nsHandle, err := netns.GetFromName(nsName)
	if err != nil {
		return nil, fmt.Errorf("get netns %q: %w", nsName, err)
	}
	defer nsHandle.Close()

	h, err := netlink.NewHandleAt(nsHandle)
	if err != nil {
		return nil, fmt.Errorf("create netlink handle for netns %q: %w", nsName, err)
	}
	return h, nil
}

// Syncer populates a Manager from the kernel link table.
type Syncer struct {
	mgr    *Manager
	handle *netlink.Handle
	logger *slog.Logger
}

func NewSyncer(mgr *Manager, h *netlink.Handle) *Syncer {
	return &Syncer{
		mgr:    mgr,
		handle: h,
		logger: logger.Get(logger.IfMgr),
	}
}

// Sync refreshes the named interfaces and every port enslaved to them.
// Names that do not exist are reported in the returned error; the others
// are still registered.
func (s *Syncer) Sync(names []string) error {
	links, err := s.nlLinkList()
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	byName := make(map[string]netlink.Link, len(links))
	wanted := make(map[int]bool)
	for _, link := range links {
		byName[link.Attrs().Name] = link
	}

	var missing []string
	for _, name := range names {
		link, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		wanted[link.Attrs().Index] = true
	}

	for _, link := range links {
		attrs := link.Attrs()
		if !wanted[attrs.Index] && !wanted[attrs.MasterIndex] {
			continue
		}
		iface, err := s.describe(link)
		if err != nil {
			s.logger.Warn("Failed to read interface addresses", "interface", attrs.Name, "error", err)
		}
		s.mgr.Add(iface)
		s.logger.Debug("Registered interface",
			"interface", iface.Name,
			"index", iface.Index,
			"kind", iface.Kind,
			"vlan", iface.VLAN,
			"ipv4", len(iface.IPv4))
	}

	if len(missing) > 0 {
		return fmt.Errorf("interfaces not found: %v", missing)
	}
	return nil
}

func (s *Syncer) describe(link netlink.Link) (*Interface, error) {
	attrs := link.Attrs()
	iface := &Interface{
		Index:       attrs.Index,
		MasterIndex: attrs.MasterIndex,
		Name:        attrs.Name,
		Kind:        link.Type(),
		MAC:         append(net.HardwareAddr(nil), attrs.HardwareAddr...),
		Up:          attrs.Flags&net.FlagUp != 0,
	}
	if vlan, ok := link.(*netlink.Vlan); ok {
		iface.VLAN = uint16(vlan.VlanId)
	} else if id, ok := VLANFromName(attrs.Name); ok && iface.IsBridge() {
		iface.VLAN = id
	}

	addrs, err := s.nlAddrList(link)
	if err != nil {
		return iface, err
	}
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		if ip, ok := netip.AddrFromSlice(a.IPNet.IP.To4()); ok {
			iface.IPv4 = append(iface.IPv4, ip)
		}
	}
	return iface, nil
}

func (s *Syncer) nlLinkList() ([]netlink.Link, error) {
	if s.handle != nil {
		return s.handle.LinkList()
	}
	return netlink.LinkList()
}

func (s *Syncer) nlAddrList(link netlink.Link) ([]netlink.Addr, error) {
	if s.handle != nil {
		return s.handle.AddrList(link, netlink.FAMILY_V4)
	}
	return netlink.AddrList(link, netlink.FAMILY_V4)
}

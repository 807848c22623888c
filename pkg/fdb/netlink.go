package fdb

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

// Netlink reads the kernel bridge forwarding database.
type Netlink struct {
	handle *netlink.Handle
	// index resolves a bridge name to its ifindex from a cached registry.
	// Names it does not know are resolved over netlink.
	index  func(name string) (int, bool)
	logger *slog.Logger
}

type NetlinkOption func(*Netlink)

func WithIndex(fn func(name string) (int, bool)) NetlinkOption {
	return func(n *Netlink) { n.index = fn }
}

// NewNetlink uses h, or the current namespace when h is nil.
func NewNetlink(h *netlink.Handle, opts ...NetlinkOption) *Netlink {
	n := &Netlink{
		handle: h,
		logger: logger.Get(logger.FDB),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type lookupResult struct {
	port string
	err  error
}

// Lookup queries the kernel in a separate goroutine so that a slow dump
// cannot hold the caller past its deadline.
func (n *Netlink) Lookup(ctx context.Context, bridge string, vlan uint16, mac net.HardwareAddr) (string, error) {
	done := make(chan lookupResult, 1)
	go func() {
		port, err := n.lookup(bridge, vlan, mac)
		done <- lookupResult{port, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.port, r.err
	}
}

func (n *Netlink) lookup(bridge string, vlan uint16, mac net.HardwareAddr) (string, error) {
	master, err := n.bridgeIndex(bridge)
	if err != nil {
		return "", fmt.Errorf("resolve bridge %q: %w", bridge, err)
	}

	neighs, err := n.nlNeighList()
	if err != nil {
		return "", fmt.Errorf("dump bridge fdb: %w", err)
	}

	index, ok := match(neighs, master, vlan, mac)
	if !ok {
		return "", ErrNotFound
	}

	link, err := n.nlLinkByIndex(index)
	if err != nil {
		return "", fmt.Errorf("resolve port %d: %w", index, err)
	}
	n.logger.Debug("FDB hit", "bridge", bridge, "vlan", vlan, "mac", mac.String(), "port", link.Attrs().Name)
	return link.Attrs().Name, nil
}

// match returns the port ifindex of the entry for mac. Entries tagged with
// vlan win over untagged entries learned on the bridge with ifindex master.
// Entries the bridge holds for itself are ignored.
func match(neighs []netlink.Neigh, master int, vlan uint16, mac net.HardwareAddr) (int, bool) {
	fallback := 0
	for _, nb := range neighs {
		if !bytes.Equal(nb.HardwareAddr, mac) || nb.LinkIndex == nb.MasterIndex || nb.LinkIndex == master {
			continue
		}
		if nb.Vlan != 0 {
			if vlan != 0 && nb.Vlan == int(vlan) {
				return nb.LinkIndex, true
			}
			continue
		}
		if fallback == 0 && master != 0 && nb.MasterIndex == master {
			fallback = nb.LinkIndex
		}
	}
	return fallback, fallback != 0
}

func (n *Netlink) bridgeIndex(name string) (int, error) {
	if n.index != nil {
		if index, ok := n.index(name); ok {
			return index, nil
		}
	}
	link, err := n.nlLinkByName(name)
	if err != nil {
		return 0, err
	}
	return link.Attrs().Index, nil
}

func (n *Netlink) nlNeighList() ([]netlink.Neigh, error) {
	if n.handle != nil {
		return n.handle.NeighList(0, unix.AF_BRIDGE)
	}
	return netlink.NeighList(0, unix.AF_BRIDGE)
}

func (n *Netlink) nlLinkByName(name string) (netlink.Link, error) {
	if n.handle != nil {
		return n.handle.LinkByName(name)
	}
	return netlink.LinkByName(name)
}

func (n *Netlink) nlLinkByIndex(index int) (netlink.Link, error) {
	if n.handle != nil {
		return n.handle.LinkByIndex(index)
	}
	return netlink.LinkByIndex(index)
}

package fdb

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/veesix-networks/dhcpagent/pkg/config/system"
)

// Static answers lookups from a fixed binding table keyed by VLAN and MAC.
// The bridge name is not consulted.
type Static struct {
	mu       sync.RWMutex
	bindings map[key]string
}

func NewStatic() *Static {
	return &Static{bindings: make(map[key]string)}
}

// NewStaticFromConfig builds a table from the configured bindings.
func NewStaticFromConfig(entries []system.StaticFDBBinding) (*Static, error) {
	s := NewStatic()
	for i, e := range entries {
		mac, err := net.ParseMAC(e.MAC)
		if err != nil {
			return nil, fmt.Errorf("static[%d]: %w", i, err)
		}
		s.Set(e.VLAN, mac, e.Port)
	}
	return s, nil
}

func (s *Static) Set(vlan uint16, mac net.HardwareAddr, port string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[keyFor(vlan, mac)] = port
}

func (s *Static) Delete(vlan uint16, mac net.HardwareAddr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bindings, keyFor(vlan, mac))
}

func (s *Static) Lookup(ctx context.Context, _ string, vlan uint16, mac net.HardwareAddr) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	port, ok := s.bindings[keyFor(vlan, mac)]
	if !ok {
		return "", ErrNotFound
	}
	return port, nil
}

package configmgr

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veesix-networks/dhcpagent/pkg/config/interfaces"
	"github.com/veesix-networks/dhcpagent/pkg/rules"
)

// Record is one interface record as delivered by the configuration file or
// the operational database.
type Record = interfaces.InterfaceConfig

// Mode is either RelayMode or SnoopMode.
type Mode interface {
	Name() string
	Target() string
	isMode()
}

// RelayMode forwards requests to a DHCP server as a layer 3 relay.
type RelayMode struct {
	Server netip.Addr
}

func (m RelayMode) Name() string   { return "relay" }
func (m RelayMode) Target() string { return m.Server.String() }
func (RelayMode) isMode()          {}

// SnoopMode intercepts frames at layer 2 and forwards requests toward the
// trusted port only.
type SnoopMode struct {
	Trusted string
}

func (m SnoopMode) Name() string   { return "snoop" }
func (m SnoopMode) Target() string { return m.Trusted }
func (SnoopMode) isMode()          {}

type InterfaceConfig struct {
	Name  string
	Mode  Mode
	Rules *rules.RuleSet
	// Address overrides the relay address taken from the interface.
	Address netip.Addr
	// VLAN overrides the VLAN derived from the interface.
	VLAN uint16
}

// Snapshot is an immutable view of every configured interface.
type Snapshot struct {
	Generation uint64
	ID         uuid.UUID
	LoadedAt   time.Time
	Interfaces map[string]*InterfaceConfig

	records []Record
}

func (s *Snapshot) Lookup(name string) (*InterfaceConfig, bool) {
	if s == nil {
		return nil, false
	}
	cfg, ok := s.Interfaces[name]
	return cfg, ok
}

func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Interfaces))
	for name := range s.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns the records the snapshot was compiled from.
func (s *Snapshot) Records() []Record {
	if s == nil {
		return nil
	}
	return append([]Record(nil), s.records...)
}

type Problem struct {
	Interface string
	// Record is the position of the record in the load request.
	Record int
	Path   string
	Reason string
}

func (p Problem) String() string {
	name := p.Interface
	if name == "" {
		name = fmt.Sprintf("record[%d]", p.Record)
	}
	if p.Path != "" {
		return fmt.Sprintf("%s: %s: %s", name, p.Path, p.Reason)
	}
	return fmt.Sprintf("%s: %s", name, p.Reason)
}

// ConfigurationError is returned when a load is rejected. The previous
// snapshot stays active.
type ConfigurationError struct {
	Problems []Problem
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("configuration rejected (%d problems): %s", len(e.Problems), strings.Join(parts, "; "))
}

package ifmgr

import (
	"net/netip"
	"sort"
	"sync"
)

type Manager struct {
	mu      sync.RWMutex
	byIndex map[int]*Interface
	byName  map[string]*Interface
}

func New() *Manager {
	return &Manager{
		byIndex: make(map[int]*Interface),
		byName:  make(map[string]*Interface),
	}
}

// Add registers iface, replacing any interface with the same index or name.
func (m *Manager) Add(iface *Interface) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byName[iface.Name]; ok && old.Index != iface.Index {
		delete(m.byIndex, old.Index)
	}
	if old, ok := m.byIndex[iface.Index]; ok && iface.Index != 0 && old.Name != iface.Name {
		delete(m.byName, old.Name)
	}
	if iface.Index != 0 {
		m.byIndex[iface.Index] = iface
	}
	m.byName[iface.Name] = iface
}

func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if iface, ok := m.byName[name]; ok {
		delete(m.byName, name)
		if iface.Index != 0 {
			delete(m.byIndex, iface.Index)
		}
	}
}

func (m *Manager) Get(index int) *Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.byIndex[index]
}

func (m *Manager) GetByName(name string) *Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.byName[name]
}

// Address returns the relay address of the named interface.
func (m *Manager) Address(name string) (netip.Addr, bool) {
	iface := m.GetByName(name)
	if iface == nil {
		return netip.Addr{}, false
	}
	return iface.PrimaryIPv4()
}

// VLAN returns the VLAN of the named interface. Interfaces without a VLAN
// device fall back to the trailing digits of the name.
func (m *Manager) VLAN(name string) (uint16, bool) {
	if iface := m.GetByName(name); iface != nil && iface.VLAN != 0 {
		return iface.VLAN, true
	}
	return VLANFromName(name)
}

// Index returns the ifindex of a registered interface.
func (m *Manager) Index(name string) (int, bool) {
	iface := m.GetByName(name)
	if iface == nil {
		return 0, false
	}
	return iface.Index, true
}

func (m *Manager) List() []*Interface {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Interface, 0, len(m.byName))
	for _, iface := range m.byName {
		result = append(result, iface)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byIndex = make(map[int]*Interface)
	m.byName = make(map[string]*Interface)
}

func (m *Manager) AddIPv4Address(name string, addr netip.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iface, ok := m.byName[name]
	if !ok || !addr.Is4() {
		return
	}
	for _, existing := range iface.IPv4 {
		if existing == addr {
			return
		}
	}
	iface.IPv4 = append(iface.IPv4, addr)
}

func (m *Manager) RemoveIPv4Address(name string, addr netip.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	iface, ok := m.byName[name]
	if !ok {
		return
	}
	for i, existing := range iface.IPv4 {
		if existing == addr {
			iface.IPv4 = append(iface.IPv4[:i], iface.IPv4[i+1:]...)
			return
		}
	}
}

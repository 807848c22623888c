package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/veesix-networks/dhcpagent/pkg/opdb"
)

// Store keeps namespaces in process memory. It is used when no database path
// is configured and in tests.
type Store struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string]map[string][]byte)}
}

func (s *Store) Put(ctx context.Context, namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		s.data[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[namespace], key)
	return nil
}

func (s *Store) Load(ctx context.Context, namespace string, fn opdb.LoadFunc) error {
	s.mu.RLock()
	ns := s.data[namespace]
	keys := make([]string, 0, len(ns))
	for k := range ns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = append([]byte(nil), ns[k]...)
	}
	s.mu.RUnlock()

	for i, k := range keys {
		if err := fn(k, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, namespace)
	return nil
}

func (s *Store) Replace(ctx context.Context, namespace string, entries map[string][]byte) error {
	ns := make(map[string][]byte, len(entries))
	for k, v := range entries {
		ns[k] = append([]byte(nil), v...)
	}

	s.mu.Lock()
	s.data[namespace] = ns
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error {
	return nil
}

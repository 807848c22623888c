package configmgr

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/veesix-networks/dhcpagent/pkg/logger"
	"github.com/veesix-networks/dhcpagent/pkg/opdb"
)

const checkpointTimeout = 5 * time.Second

// Store holds the active interface snapshot. Readers call Snapshot without
// locking; Load compiles a complete replacement and swaps it in, or rejects
// it and leaves the active snapshot untouched.
type Store struct {
	current atomic.Pointer[Snapshot]
	// serializes writers
	mu sync.Mutex

	opdb      opdb.Store
	logger    *slog.Logger
	listeners []func(*Snapshot)
	onResult  func(ok bool, generation uint64)
}

type StoreOption func(*Store)

// WithCheckpoint persists every applied snapshot to the operational database.
func WithCheckpoint(db opdb.Store) StoreOption {
	return func(s *Store) { s.opdb = db }
}

// WithLoadHook is called after every load attempt.
func WithLoadHook(fn func(ok bool, generation uint64)) StoreOption {
	return func(s *Store) { s.onResult = fn }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{logger: logger.Get(logger.Config)}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&Snapshot{
		ID:         uuid.New(),
		LoadedAt:   time.Now(),
		Interfaces: map[string]*InterfaceConfig{},
	})
	return s
}

func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Subscribe registers fn to run after each applied snapshot. It must be
// called before the store is shared.
func (s *Store) Subscribe(fn func(*Snapshot)) {
	s.listeners = append(s.listeners, fn)
}

// Load replaces the active snapshot with one compiled from records. On any
// problem a *ConfigurationError is returned and nothing changes.
func (s *Store) Load(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	compiled, err := compile(records, prev)
	if err != nil {
		s.logger.Warn("Rejected interface configuration", "error", err)
		if s.onResult != nil {
			s.onResult(false, prev.Generation)
		}
		return err
	}

	snap := &Snapshot{
		Generation: prev.Generation + 1,
		ID:         uuid.New(),
		LoadedAt:   time.Now(),
		Interfaces: compiled,
		records:    append([]Record(nil), records...),
	}
	s.current.Store(snap)

	s.logger.Info("Applied interface configuration",
		"generation", snap.Generation,
		"snapshot", snap.ID.String(),
		"interfaces", len(compiled))

	if s.opdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
		if err := s.checkpoint(ctx, snap); err != nil {
			s.logger.Warn("Failed to checkpoint interface configuration", "error", err)
		}
		cancel()
	}

	if s.onResult != nil {
		s.onResult(true, snap.Generation)
	}
	for _, fn := range s.listeners {
		fn(snap)
	}
	return nil
}

// Problems extracts the problem list from a Load error.
func Problems(err error) []Problem {
	var cerr *ConfigurationError
	if errors.As(err, &cerr) {
		return cerr.Problems
	}
	return nil
}

package configmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/veesix-networks/dhcpagent/pkg/opdb"
)

var ErrNoCheckpoint = fmt.Errorf("no checkpointed configuration: %w", opdb.ErrEmpty)

type snapshotMeta struct {
	Generation uint64 `json:"generation"`
	ID         string `json:"id"`
	LoadedAt   string `json:"loaded_at"`
}

func (s *Store) checkpoint(ctx context.Context, snap *Snapshot) error {
	entries := make(map[string][]byte, len(snap.records))
	for _, rec := range snap.records {
		data, err := yaml.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", rec.Name, err)
		}
		entries[rec.Name] = data
	}
	if err := s.opdb.Replace(ctx, opdb.NamespaceInterfaceRecords, entries); err != nil {
		return fmt.Errorf("store records: %w", err)
	}

	meta, err := json.Marshal(snapshotMeta{
		Generation: snap.Generation,
		ID:         snap.ID.String(),
		LoadedAt:   snap.LoadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return err
	}
	return s.opdb.Put(ctx, opdb.NamespaceSnapshot, "current", meta)
}

// Namespaces and Restore make the store an opdb.Provider.
func (s *Store) Namespaces() []string {
	return []string{opdb.NamespaceInterfaceRecords, opdb.NamespaceSnapshot}
}

// Restore loads the last checkpointed records. It returns ErrNoCheckpoint
// when the database holds none.
func (s *Store) Restore(ctx context.Context, db opdb.Store) error {
	var records []Record
	err := db.Load(ctx, opdb.NamespaceInterfaceRecords, func(key string, value []byte) error {
		var rec Record
		if err := yaml.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode record %s: %w", key, err)
		}
		rec.Name = key
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return ErrNoCheckpoint
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	s.logger.Info("Restoring checkpointed interface configuration", "interfaces", len(records))
	return s.Load(records)
}

var _ opdb.Provider = (*Store)(nil)

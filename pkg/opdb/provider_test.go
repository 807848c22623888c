package opdb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/opdb"
	"github.com/veesix-networks/dhcpagent/pkg/opdb/memory"
)

type countingProvider struct {
	namespace string
	keys      []string
}

func (p *countingProvider) Namespaces() []string { return []string{p.namespace} }

func (p *countingProvider) Restore(ctx context.Context, store opdb.Store) error {
	err := store.Load(ctx, p.namespace, func(key string, _ []byte) error {
		p.keys = append(p.keys, key)
		return nil
	})
	if err != nil {
		return err
	}
	if len(p.keys) == 0 {
		return opdb.ErrEmpty
	}
	return nil
}

type failingProvider struct{}

func (failingProvider) Namespaces() []string { return []string{"broken"} }

func (failingProvider) Restore(context.Context, opdb.Store) error {
	return errors.New("corrupt")
}

func TestRestoreAll(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	require.NoError(t, db.Put(ctx, "a", "k1", []byte("v")))

	full := &countingProvider{namespace: "a"}
	empty := &countingProvider{namespace: "b"}

	reg := opdb.NewProviderRegistry()
	reg.Register(empty)
	reg.Register(full)

	require.NoError(t, reg.RestoreAll(ctx, db))
	assert.Equal(t, []string{"k1"}, full.keys)
	assert.Empty(t, empty.keys)
}

func TestRestoreAllNothingStored(t *testing.T) {
	reg := opdb.NewProviderRegistry()
	reg.Register(&countingProvider{namespace: "a"})

	err := reg.RestoreAll(context.Background(), memory.New())
	assert.ErrorIs(t, err, opdb.ErrEmpty)
}

func TestRestoreAllStopsOnFailure(t *testing.T) {
	reg := opdb.NewProviderRegistry()
	reg.Register(failingProvider{})

	err := reg.RestoreAll(context.Background(), memory.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, opdb.ErrEmpty)
	assert.Contains(t, err.Error(), "broken")
}

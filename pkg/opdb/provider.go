package opdb

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmpty is returned by a provider whose namespaces hold nothing to restore.
var ErrEmpty = errors.New("opdb: nothing to restore")

// Provider owns one or more namespaces and rebuilds its state from them.
type Provider interface {
	Namespaces() []string
	Restore(ctx context.Context, store Store) error
}

type ProviderRegistry struct {
	providers []Provider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{}
}

func (r *ProviderRegistry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// RestoreAll restores every provider. Providers with nothing stored are
// skipped; the error is ErrEmpty only when none restored anything.
func (r *ProviderRegistry) RestoreAll(ctx context.Context, store Store) error {
	restored := 0
	for _, p := range r.providers {
		err := p.Restore(ctx, store)
		switch {
		case err == nil:
			restored++
		case errors.Is(err, ErrEmpty):
		default:
			return fmt.Errorf("restore %v: %w", p.Namespaces(), err)
		}
	}
	if restored == 0 {
		return ErrEmpty
	}
	return nil
}

package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found")

type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Take returns the value and removes the key.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Len() int
	Close() error
}

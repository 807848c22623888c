package opdb

import "context"

type Store interface {
	Put(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
	Load(ctx context.Context, namespace string, fn LoadFunc) error
	Clear(ctx context.Context, namespace string) error
	// Replace swaps the whole content of a namespace in one transaction.
	Replace(ctx context.Context, namespace string, entries map[string][]byte) error
	Close() error
}

type LoadFunc func(key string, value []byte) error

const (
	NamespaceInterfaceRecords = "interface_records"
	NamespaceSnapshot         = "snapshot"
)

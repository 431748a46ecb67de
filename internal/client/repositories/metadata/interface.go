// Package metadata stores the client's small key/value metadata, most
// importantly the persisted Session Record. Backends: SQLite (default,
// single workstation) and Redis (shared kiosk deployments).
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store. Get returns (nil, nil) for
// an absent key. SetMany writes all pairs or none.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

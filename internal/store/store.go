// Package store is the durable key-value layer the progress store mirrors its
// collections into. Values are opaque text; callers own the encoding.
package store

import (
	"context"
	"errors"
)

var ErrEmptyKey = errors.New("store: empty key")

type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

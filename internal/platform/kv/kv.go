// Package kv provides the small key-value persistence used for session records.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: not found")

// Store persists opaque values under string keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Scoper hands out namespaced views of a backend.
type Scoper interface {
	Scoped(prefix string) Store
}

var (
	_ Scoper = (*Memory)(nil)
	_ Scoper = (*Redis)(nil)
)

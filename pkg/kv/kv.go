// Package kv defines the string-keyed storage surface shared by the local
// persistent store (client) and the backend's key-value table (server).
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by adapters used after Close.
var ErrClosed = errors.New("kv: store closed")

// Store is a namespaced string-keyed get/set/remove mechanism.
type Store interface {
	// Get returns ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove is a no-op for absent keys.
	Remove(ctx context.Context, key string) error
}

// Entry is one key/value pair returned by a prefix scan.
type Entry struct {
	Key   string
	Value string
}

// PrefixStore adds the prefix scan the backend needs to list per-user rows.
type PrefixStore interface {
	Store
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}

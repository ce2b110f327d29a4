// Package kvstore implements the backend repositories over a single
// prefix-scannable key-value table.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/pkg/kv"
)

// Key namespaces.
const (
	PrefixMedication   = "medication"
	PrefixAdherence    = "adherence"
	PrefixHealth       = "health"
	PrefixDocument     = "document"
	PrefixNotification = "notification"
	PrefixFamily       = "family"
	PrefixUser         = "user"
	PrefixUserEmail    = "user-email"
	PrefixRevoked      = "revoked"
)

func ownedKey(prefix, ownerID, id string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, ownerID, id)
}

func getJSON(ctx context.Context, store kv.Store, key string, dst interface{}) error {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return repository.ErrNotFound
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, store kv.Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Owned stores one entity kind under "<prefix>:<ownerID>:<id>".
type Owned[T model.Entity] struct {
	store  kv.PrefixStore
	prefix string
}

func NewOwned[T model.Entity](store kv.PrefixStore, prefix string) *Owned[T] {
	return &Owned[T]{store: store, prefix: prefix}
}

var _ repository.OwnedRepository[model.Medication] = (*Owned[model.Medication])(nil)

func (r *Owned[T]) Get(ctx context.Context, ownerID, id string) (*T, error) {
	var item T
	if err := getJSON(ctx, r.store, ownedKey(r.prefix, ownerID, id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Owned[T]) Put(ctx context.Context, ownerID string, item T) error {
	return setJSON(ctx, r.store, ownedKey(r.prefix, ownerID, item.GetID()), item)
}

// Delete reports ErrNotFound for an absent id.
func (r *Owned[T]) Delete(ctx context.Context, ownerID, id string) error {
	key := ownedKey(r.prefix, ownerID, id)
	_, found, err := r.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found {
		return repository.ErrNotFound
	}
	return r.store.Remove(ctx, key)
}

// List returns the owner's records in key order.
func (r *Owned[T]) List(ctx context.Context, ownerID string) ([]T, error) {
	entries, err := r.store.GetByPrefix(ctx, ownedKey(r.prefix, ownerID, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.prefix, err)
	}

	items := make([]T, 0, len(entries))
	for _, e := range entries {
		var item T
		if err := json.Unmarshal([]byte(e.Value), &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Key, err)
		}
		items = append(items, item)
	}
	return items, nil
}

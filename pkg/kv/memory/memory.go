package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/healthplus/pkg/kv"
)

// Store keeps entries in process memory. Entries never expire.
type Store struct {
	cache *cache.Cache
}

var _ kv.PrefixStore = (*Store)(nil)

func New() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	v, found := s.cache.Get(key)
	if !found {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// GetByPrefix returns matching entries ordered by key.
func (s *Store) GetByPrefix(_ context.Context, prefix string) ([]kv.Entry, error) {
	var entries []kv.Entry
	for key, item := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			entries = append(entries, kv.Entry{Key: key, Value: item.Object.(string)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Len reports how many keys are held.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}

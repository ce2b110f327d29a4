package app

import (
	"context"
	"fmt"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/pkg/kv"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
	"github.com/jwalitptl/healthplus/pkg/kv/postgres"
	"github.com/jwalitptl/healthplus/pkg/kv/redis"
)

// OpenStore opens the kv adapter named by cfg.Store.Driver. The returned
// close func is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (kv.PrefixStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.New(), noop, nil

	case config.DriverRedis:
		store, err := redis.NewStore(ctx, cfg.Redis.ToStoreConfig(cfg.Store.KeyPrefix))
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.Database.ToStoreConfig())
		if err != nil {
			return nil, noop, err
		}
		store := postgres.NewStore(db, cfg.Database.Table)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Package service holds what every entity service shares: the dependency set
// and the remote-then-local call pattern.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/session"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

// Source says where a result came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Executor is satisfied by *executor.Executor.
type Executor interface {
	Execute(ctx context.Context, req executor.Request) executor.Result
}

type Deps struct {
	Executor  Executor
	Session   *session.Context
	Validator validator.Validator
	Logger    *logger.Logger
	Now       func() time.Time
}

// Named fills unset dependencies and scopes the logger to one service.
func (d Deps) Named(name string) Deps {
	if d.Session == nil {
		d.Session = session.NewContext()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Logger = d.Logger.Named(name)
	return d
}

// Call runs req remotely and decodes the envelope field key into dst.
// handled=false means the caller must serve the request from the local store;
// err is only ever a domain error.
func (d Deps) Call(ctx context.Context, req executor.Request, key string, dst interface{}) (handled bool, err error) {
	res := d.Executor.Execute(ctx, req)
	switch res.Kind {
	case executor.KindOK:
		if dst == nil {
			return true, nil
		}
		if err := executor.Decode(res, key, dst); err != nil {
			d.Logger.Warn("unexpected response shape, using local store",
				"endpoint", req.Endpoint,
				"error", err.Error(),
			)
			return false, nil
		}
		return true, nil
	case executor.KindDomainError:
		return false, res.Err
	default:
		return false, nil
	}
}

// LoadOrSeed returns the collection, first writing seed() when it was never
// written. A nil seed writes an empty collection.
func LoadOrSeed[T model.Entity](ctx context.Context, repo repository.Collection[T], seed func() []T) ([]T, error) {
	items, found, err := repo.Load(ctx)
	if err != nil {
		return nil, Storage(err)
	}
	if found {
		return items, nil
	}
	items, err = repo.Mutate(ctx, func(current []T, found bool) ([]T, error) {
		return Seeded(current, found, seed), nil
	})
	if err != nil {
		return nil, Storage(err)
	}
	return items, nil
}

// Seeded is the Mutate-side half of LoadOrSeed.
func Seeded[T model.Entity](items []T, found bool, seed func() []T) []T {
	if found {
		return items
	}
	if seed == nil {
		return []T{}
	}
	return seed()
}

// IndexOf returns the position of id in items, or -1.
func IndexOf[T model.Entity](items []T, id string) int {
	for i, item := range items {
		if item.GetID() == id {
			return i
		}
	}
	return -1
}

// Without returns items minus id. Removing an absent id is a no-op.
func Without[T model.Entity](items []T, id string) []T {
	out := items[:0:0]
	for _, item := range items {
		if item.GetID() != id {
			out = append(out, item)
		}
	}
	return out
}

// Storage wraps a local store failure. Domain errors pass through untouched.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if code := apperrors.CodeOf(err); code != 0 {
		return err
	}
	return apperrors.Internal(fmt.Errorf("local store: %w", err))
}

func NotFound(resource, id string) error {
	return apperrors.NotFound(resource, fmt.Errorf("id %s", id))
}

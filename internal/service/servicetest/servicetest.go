// Package servicetest provides fakes for exercising entity services without a
// backend.
package servicetest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository/local"
	"github.com/jwalitptl/healthplus/internal/service"
	"github.com/jwalitptl/healthplus/internal/session"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

// Now is the fixed clock used by Deps.
var Now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// Executor answers every request with Respond, or a local_only fallback.
type Executor struct {
	Respond func(req executor.Request) executor.Result

	mu       sync.Mutex
	requests []executor.Request
}

func (e *Executor) Execute(_ context.Context, req executor.Request) executor.Result {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	if e.Respond == nil {
		return executor.Fallback(executor.ReasonLocalOnly, nil)
	}
	return e.Respond(req)
}

func (e *Executor) Requests() []executor.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]executor.Request(nil), e.requests...)
}

// Always answers every request with res.
func Always(res executor.Result) *Executor {
	return &Executor{Respond: func(executor.Request) executor.Result { return res }}
}

// JSON builds an Ok result carrying v.
func JSON(v interface{}) executor.Result {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return executor.Ok(http.StatusOK, body)
}

// Env holds the pieces of a service under test.
type Env struct {
	Deps     service.Deps
	Store    *local.Store
	Session  *session.Context
	Executor *Executor
}

// NewEnv returns a local-only demo session over an in-memory store.
func NewEnv(ex *Executor) *Env {
	if ex == nil {
		ex = &Executor{}
	}
	sc := session.NewContext()
	sc.Set(&model.Session{
		AccessToken: model.LocalSessionToken,
		Identity:    model.Identity{ID: "demo-user", Email: "demo@healthcare.plus", Role: model.RolePatient},
		LocalOnly:   true,
	})
	return &Env{
		Deps: service.Deps{
			Executor:  ex,
			Session:   sc,
			Validator: validator.New(),
			Now:       func() time.Time { return Now },
		},
		Store:    local.NewStore(memory.New(), nil),
		Session:  sc,
		Executor: ex,
	}
}

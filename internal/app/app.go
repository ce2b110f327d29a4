// Package app wires the data-access layer together and exposes the auth
// actions that sit above the entity services.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/internal/bootstrap"
	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository/local"
	"github.com/jwalitptl/healthplus/internal/service"
	"github.com/jwalitptl/healthplus/internal/service/document"
	"github.com/jwalitptl/healthplus/internal/service/family"
	"github.com/jwalitptl/healthplus/internal/service/healthdata"
	"github.com/jwalitptl/healthplus/internal/service/medication"
	"github.com/jwalitptl/healthplus/internal/service/notification"
	"github.com/jwalitptl/healthplus/internal/service/profile"
	"github.com/jwalitptl/healthplus/internal/session"
	"github.com/jwalitptl/healthplus/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/kv"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/metrics"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

type App struct {
	Store      *local.Store
	Session    *session.Context
	Executor   *executor.Executor
	Reconciler *bootstrap.Reconciler

	Medications   *medication.Service
	Notifications *notification.Service
	HealthData    *healthdata.Service
	Documents     *document.Service
	Family        *family.Service
	Profile       *profile.Service

	auth      session.AuthProvider
	validator validator.Validator
	log       *logger.Logger
	now       func() time.Time
	closeFn   func() error
}

// Open builds an App from configuration: the configured kv adapter and the
// HTTP auth client.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, reg prometheus.Registerer) (*App, error) {
	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	auth := session.NewAuthClient(session.AuthClientConfig{
		BaseURL: cfg.Remote.BaseURL,
		AnonKey: cfg.Remote.AnonKey,
		Timeout: cfg.Remote.Timeout,
	}, log)

	a := New(cfg, store, auth, log, reg)
	a.closeFn = closeStore
	return a, nil
}

// New wires an App over an already opened store and auth provider.
func New(cfg *config.Config, store kv.Store, auth session.AuthProvider, log *logger.Logger, reg prometheus.Registerer) *App {
	if log == nil {
		log = logger.Nop()
	}
	m := metrics.NewMetrics(reg, "healthplus", "client")

	ls := local.NewStore(store, m)
	sc := session.NewContext()

	opts := []executor.Option{executor.WithLogger(log), executor.WithMetrics(m)}
	if cfg.Remote.Breaker.Enabled {
		opts = append(opts, executor.WithBreaker(circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "remote",
			MaxFailures: cfg.Remote.Breaker.MaxFailures,
			Cooldown:    cfg.Remote.Breaker.Cooldown,
		})))
	}
	ex := executor.New(executor.Config{
		BaseURL: cfg.Remote.BaseURL,
		AnonKey: cfg.Remote.AnonKey,
		Timeout: cfg.Remote.Timeout,
	}, sc, opts...)

	v := validator.New()
	deps := service.Deps{Executor: ex, Session: sc, Validator: v, Logger: log}

	a := &App{
		Store:         ls,
		Session:       sc,
		Executor:      ex,
		Medications:   medication.NewService(deps, ls.Medications(), ls.DoseEvents()),
		Notifications: notification.NewService(deps, ls.Notifications()),
		HealthData:    healthdata.NewService(deps, ls.HealthRecords()),
		Documents:     document.NewService(deps, ls.Documents()),
		Family:        family.NewService(deps, ls.FamilyLinks()),
		Profile:       profile.NewService(deps, ls.Identity()),
		auth:          auth,
		validator:     v,
		log:           log.Named("app"),
		now:           time.Now,
		closeFn:       func() error { return nil },
	}

	a.Reconciler = bootstrap.New(
		bootstrap.Config{LoadTimeout: cfg.Bootstrap.LoadTimeout},
		ls,
		session.NewResolver(ls.Identity(), auth, log),
		auth,
		sc,
		bootstrap.Loaders{
			Medications:   a.Medications,
			Notifications: a.Notifications,
			HealthData:    a.HealthData,
			Documents:     a.Documents,
			FamilyLinks:   a.Family,
		},
		bootstrap.WithLogger(log),
		bootstrap.WithMetrics(m),
	)
	return a
}

func (a *App) Close() error {
	return a.closeFn()
}

// Bootstrap resolves the session and loads every entity.
func (a *App) Bootstrap(ctx context.Context) bootstrap.Snapshot {
	return a.Reconciler.Run(ctx)
}

// SignUp registers with the backend and signs in. When the backend cannot be
// reached the account is created as a local-only identity instead.
func (a *App) SignUp(ctx context.Context, input model.SignUpInput) (*model.Session, error) {
	if err := a.validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Language == "" {
		input.Language = "en"
	}

	// Signing up replaces whatever identity is active, so the call must not
	// be short-circuited by a local-only session.
	previous := a.Session.Current()
	a.Session.Clear()

	res := a.Executor.Execute(ctx, executor.Post(executor.EndpointSignup, input))
	switch res.Kind {
	case executor.KindDomainError:
		a.Session.Set(previous)
		return nil, res.Err

	case executor.KindOK:
		if err := a.Store.Clear(ctx); err != nil {
			a.log.Warn("failed to clear local identity", "error", err.Error())
		}
		s, err := a.auth.SignInWithPassword(ctx, input.Email, input.Password)
		if err != nil {
			return nil, apperrors.Unauthorized(err)
		}
		a.Reconciler.Refresh(ctx)
		return s, nil
	}

	a.log.Info("backend unavailable, creating local-only account", "reason", string(res.Reason))
	now := a.now()
	identity := model.Identity{
		ID:        fmt.Sprintf("demo-%d", now.UnixMilli()),
		Email:     input.Email,
		Name:      input.Name,
		Role:      input.Role,
		Phone:     input.Phone,
		Age:       input.Age,
		Language:  input.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s, err := a.startLocal(ctx, identity)
	if err != nil {
		return nil, err
	}
	a.Reconciler.Refresh(ctx)
	return s, nil
}

// SignIn prefers an existing local identity; otherwise it signs in against
// the auth provider.
func (a *App) SignIn(ctx context.Context, input model.SignInInput) (*model.Session, error) {
	if err := a.validator.Validate(input); err != nil {
		return nil, err
	}

	identity, err := a.Store.Identity().GetIdentity(ctx)
	if err != nil {
		return nil, service.Storage(err)
	}
	if identity != nil {
		s, err := a.startLocal(ctx, *identity)
		if err != nil {
			return nil, err
		}
		a.Reconciler.Refresh(ctx)
		return s, nil
	}

	s, err := a.auth.SignInWithPassword(ctx, input.Email, input.Password)
	if err != nil {
		a.log.Info("sign-in rejected", "email", input.Email, "error", err.Error())
		return nil, apperrors.Unauthorized(err)
	}
	a.Reconciler.Refresh(ctx)
	return s, nil
}

func (a *App) SignOut(ctx context.Context) error {
	return a.Reconciler.SignOut(ctx)
}

// HealthCheck reports the backend status, or "demo" when it cannot be reached.
func (a *App) HealthCheck(ctx context.Context) model.HealthStatus {
	var status model.HealthStatus
	res := a.Executor.Execute(ctx, executor.Get(executor.EndpointHealth))
	if res.IsOK() && executor.Decode(res, "", &status) == nil {
		return status
	}
	return model.HealthStatus{Status: "demo", Message: "Running in demo mode"}
}

func (a *App) startLocal(ctx context.Context, identity model.Identity) (*model.Session, error) {
	s := &model.Session{AccessToken: model.LocalSessionToken, Identity: identity, LocalOnly: true}
	if err := a.Store.Identity().SaveIdentity(ctx, &identity); err != nil {
		return nil, service.Storage(err)
	}
	if err := a.Store.Identity().SaveSession(ctx, s); err != nil {
		return nil, service.Storage(err)
	}
	a.Session.Set(s)
	return s, nil
}

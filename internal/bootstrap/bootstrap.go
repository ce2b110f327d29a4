// Package bootstrap resolves the session at startup and reconciles every
// entity collection into one held snapshot.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
	"github.com/jwalitptl/healthplus/internal/session"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/metrics"
)

type Phase string

const (
	PhaseInit            Phase = "INIT"
	PhaseSessionResolved Phase = "SESSION_RESOLVED"
	PhaseDataLoaded      Phase = "DATA_LOADED"
	PhaseDataLoadFailed  Phase = "DATA_LOAD_FAILED"
	PhaseReady           Phase = "READY"
)

type Entity string

const (
	EntityMedications   Entity = "medications"
	EntityNotifications Entity = "notifications"
	EntityHealthData    Entity = "health_data"
	EntityDocuments     Entity = "documents"
	EntityFamilyLinks   Entity = "family_links"
)

const DefaultLoadTimeout = 10 * time.Second

// ErrFellBack marks an entity that a remote session could only load from the
// local store.
var ErrFellBack = errors.New("remote load fell back to local store")

// DemoUserID identifies the local-only identity created when nobody is signed in.
const DemoUserID = "demo-user"

func DemoIdentity(now time.Time) model.Identity {
	return model.Identity{
		ID:        DemoUserID,
		Email:     "demo@healthcare.plus",
		Name:      "Demo Patient",
		Role:      model.RolePatient,
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type Fetcher[T any] interface {
	Fetch(ctx context.Context) ([]T, service.Source, error)
}

// Loaders are the entity services the reconciler pulls from.
type Loaders struct {
	Medications   Fetcher[model.Medication]
	Notifications Fetcher[model.Notification]
	HealthData    Fetcher[model.HealthRecord]
	Documents     Fetcher[model.Document]
	FamilyLinks   Fetcher[model.FamilyLink]
}

type Config struct {
	// LoadTimeout bounds each entity load.
	LoadTimeout time.Duration
}

// LoadStatus is the outcome of the last load of one entity.
type LoadStatus struct {
	Source service.Source `json:"source,omitempty"`
	// Kept is set when a remote session fell back and the previously held
	// data was kept instead of the local copy.
	Kept  bool   `json:"kept,omitempty"`
	Error string `json:"error,omitempty"`
}

type Snapshot struct {
	Phase         Phase                 `json:"phase"`
	DataPhase     Phase                 `json:"dataPhase,omitempty"`
	Session       *model.Session        `json:"session,omitempty"`
	Medications   []model.Medication    `json:"medications"`
	Notifications []model.Notification  `json:"notifications"`
	HealthData    []model.HealthRecord  `json:"healthData"`
	Documents     []model.Document      `json:"documents"`
	FamilyLinks   []model.FamilyLink    `json:"familyLinks"`
	Status        map[Entity]LoadStatus `json:"status"`
}

type Reconciler struct {
	cfg      Config
	store    repository.LocalStore
	resolver *session.Resolver
	auth     session.AuthProvider
	session  *session.Context
	loaders  Loaders
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
	onPhase  func(Phase)

	mu   sync.RWMutex
	held Snapshot
}

type Option func(*Reconciler)

func WithLogger(l *logger.Logger) Option {
	return func(r *Reconciler) { r.log = l.Named("bootstrap") }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithPhaseHook is called on every phase transition.
func WithPhaseHook(fn func(Phase)) Option {
	return func(r *Reconciler) { r.onPhase = fn }
}

func New(cfg Config, store repository.LocalStore, resolver *session.Resolver, auth session.AuthProvider, sc *session.Context, loaders Loaders, opts ...Option) *Reconciler {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultLoadTimeout
	}
	r := &Reconciler{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		auth:     auth,
		session:  sc,
		loaders:  loaders,
		metrics:  metrics.Nop(),
		log:      logger.Nop(),
		now:      time.Now,
		held:     Snapshot{Phase: PhaseInit, Status: map[Entity]LoadStatus{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves the session and loads every entity. It never fails: a failed
// load leaves DataPhase at DATA_LOAD_FAILED and the previous data in place.
// Under a remote session a load that fell back counts as failed. Held data
// belongs to one identity and is dropped when the resolved identity changes.
func (r *Reconciler) Run(ctx context.Context) Snapshot {
	r.setPhase(PhaseInit)

	s := r.resolver.Resolve(ctx, r.session)
	if s == nil {
		s = r.startLocalSession(ctx)
	}
	r.mu.Lock()
	if prev := r.held.Session; prev != nil && prev.Identity.ID != s.Identity.ID {
		r.log.Info("identity changed, dropping held data", "from", prev.Identity.ID, "to", s.Identity.ID)
		r.held = Snapshot{Phase: r.held.Phase, Status: map[Entity]LoadStatus{}}
	}
	r.held.Session = s
	r.mu.Unlock()
	r.setPhase(PhaseSessionResolved)

	dataPhase := PhaseDataLoaded
	if err := r.loadAll(ctx, !s.LocalOnly); err != nil {
		r.log.Error(err, "entity load failed", "user_id", s.Identity.ID)
		dataPhase = PhaseDataLoadFailed
	}
	r.mu.Lock()
	r.held.DataPhase = dataPhase
	r.mu.Unlock()
	r.setPhase(dataPhase)
	r.setPhase(PhaseReady)

	return r.Snapshot()
}

// Refresh reloads after an auth action or on demand.
func (r *Reconciler) Refresh(ctx context.Context) Snapshot {
	return r.Run(ctx)
}

// SignOut ends the remote session, clears every local namespace and the held
// snapshot, and returns to INIT. Provider errors are logged only.
func (r *Reconciler) SignOut(ctx context.Context) error {
	if r.auth != nil {
		if err := r.auth.SignOut(ctx); err != nil {
			r.log.Warn("remote sign-out failed", "error", err.Error())
		}
	}
	err := r.store.Clear(ctx)
	r.session.Clear()

	r.mu.Lock()
	r.held = Snapshot{Status: map[Entity]LoadStatus{}}
	r.mu.Unlock()
	r.setPhase(PhaseInit)

	if err != nil {
		return fmt.Errorf("failed to clear local store: %w", err)
	}
	return nil
}

func (r *Reconciler) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.held.Phase
}

// Snapshot returns a copy of the held data.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.held
	if r.held.Session != nil {
		s := *r.held.Session
		out.Session = &s
	}
	out.Medications = clone(r.held.Medications)
	out.Notifications = clone(r.held.Notifications)
	out.HealthData = clone(r.held.HealthData)
	out.Documents = clone(r.held.Documents)
	out.FamilyLinks = clone(r.held.FamilyLinks)
	out.Status = make(map[Entity]LoadStatus, len(r.held.Status))
	for k, v := range r.held.Status {
		out.Status[k] = v
	}
	return out
}

func (r *Reconciler) setPhase(p Phase) {
	r.mu.Lock()
	r.held.Phase = p
	r.mu.Unlock()

	r.log.Debug("bootstrap phase", "phase", string(p))
	if r.onPhase != nil {
		r.onPhase(p)
	}
}

// startLocalSession creates the demo identity and its local-only session.
// Repeated calls reuse the stored identity.
func (r *Reconciler) startLocalSession(ctx context.Context) *model.Session {
	identities := r.store.Identity()

	identity, err := identities.GetIdentity(ctx)
	if err != nil {
		r.log.Warn("stored identity unreadable", "error", err.Error())
	}
	if identity == nil {
		demo := DemoIdentity(r.now())
		identity = &demo
		if err := identities.SaveIdentity(ctx, identity); err != nil {
			r.log.Error(err, "failed to persist demo identity")
		}
	}

	s := &model.Session{AccessToken: model.LocalSessionToken, Identity: *identity, LocalOnly: true}
	if err := identities.SaveSession(ctx, s); err != nil {
		r.log.Error(err, "failed to persist local session")
	}
	r.session.Set(s)
	r.log.Info("started local-only session", "user_id", identity.ID)
	return s
}

func (r *Reconciler) loadAll(ctx context.Context, remote bool) error {
	var g errgroup.Group
	g.Go(func() error {
		return load(ctx, r, EntityMedications, remote, r.loaders.Medications, &r.held.Medications)
	})
	g.Go(func() error {
		return load(ctx, r, EntityNotifications, remote, r.loaders.Notifications, &r.held.Notifications)
	})
	g.Go(func() error {
		return load(ctx, r, EntityHealthData, remote, r.loaders.HealthData, &r.held.HealthData)
	})
	g.Go(func() error {
		return load(ctx, r, EntityDocuments, remote, r.loaders.Documents, &r.held.Documents)
	})
	g.Go(func() error {
		return load(ctx, r, EntityFamilyLinks, remote, r.loaders.FamilyLinks, &r.held.FamilyLinks)
	})
	return g.Wait()
}

// load fetches one entity into *held. held is only touched under r.mu.
func load[T any](ctx context.Context, r *Reconciler, entity Entity, remote bool, fetcher Fetcher[T], held *[]T) error {
	if fetcher == nil {
		return nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, r.cfg.LoadTimeout)
	defer cancel()
	items, source, err := fetcher.Fetch(loadCtx)

	r.mu.Lock()
	defer r.mu.Unlock()

	status := LoadStatus{Source: source}
	switch {
	case err != nil:
		status.Error = err.Error()
	case !remote || source == service.SourceRemote || *held == nil:
		*held = items
	default:
		status.Kept = true
	}
	r.held.Status[entity] = status

	outcome := string(source)
	if err != nil {
		outcome = "error"
	}
	r.metrics.EntityLoads.WithLabelValues(string(entity), outcome).Inc()

	if err != nil {
		return fmt.Errorf("load %s: %w", entity, err)
	}
	if remote && source != service.SourceRemote {
		return fmt.Errorf("load %s: %w", entity, ErrFellBack)
	}
	return nil
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	return append(make([]T, 0, len(items)), items...)
}

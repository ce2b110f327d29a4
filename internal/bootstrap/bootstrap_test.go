package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository/local"
	"github.com/jwalitptl/healthplus/internal/service"
	"github.com/jwalitptl/healthplus/internal/service/document"
	"github.com/jwalitptl/healthplus/internal/service/family"
	"github.com/jwalitptl/healthplus/internal/service/healthdata"
	"github.com/jwalitptl/healthplus/internal/service/medication"
	"github.com/jwalitptl/healthplus/internal/service/notification"
	"github.com/jwalitptl/healthplus/internal/service/servicetest"
	"github.com/jwalitptl/healthplus/internal/session"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
)

type fakeAuth struct {
	session  *model.Session
	signOuts int
}

func (f *fakeAuth) GetSession(context.Context) (*model.Session, error) { return f.session, nil }

func (f *fakeAuth) SignInWithPassword(context.Context, string, string) (*model.Session, error) {
	return nil, model.ErrInvalidCredentials
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.signOuts++
	f.session = nil
	return errors.New("backend unreachable")
}

type harness struct {
	store      *local.Store
	sc         *session.Context
	auth       *fakeAuth
	reconciler *Reconciler
	phases     []Phase
}

// newLocalHarness wires the real services over a local store with no backend.
func newLocalHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: local.NewStore(memory.New(), nil),
		sc:    session.NewContext(),
		auth:  &fakeAuth{},
	}
	deps := service.Deps{Executor: &servicetest.Executor{}, Session: h.sc, Now: func() time.Time { return servicetest.Now }}
	loaders := Loaders{
		Medications:   medication.NewService(deps, h.store.Medications(), h.store.DoseEvents()),
		Notifications: notification.NewService(deps, h.store.Notifications()),
		HealthData:    healthdata.NewService(deps, h.store.HealthRecords()),
		Documents:     document.NewService(deps, h.store.Documents()),
		FamilyLinks:   family.NewService(deps, h.store.FamilyLinks()),
	}
	var mu sync.Mutex
	h.reconciler = New(Config{}, h.store, session.NewResolver(h.store.Identity(), h.auth, nil), h.auth, h.sc, loaders,
		WithClock(func() time.Time { return servicetest.Now }),
		WithPhaseHook(func(p Phase) {
			mu.Lock()
			h.phases = append(h.phases, p)
			mu.Unlock()
		}),
	)
	return h
}

func TestRun_NoSessionStartsDemo(t *testing.T) {
	h := newLocalHarness(t)

	snap := h.reconciler.Run(context.Background())

	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Equal(t, PhaseDataLoaded, snap.DataPhase)
	require.NotNil(t, snap.Session)
	assert.True(t, snap.Session.LocalOnly)
	assert.Equal(t, DemoUserID, snap.Session.Identity.ID)
	assert.Equal(t, DemoUserID, h.sc.OwnerID())
	assert.Len(t, snap.Medications, 2)
	assert.Len(t, snap.Notifications, 2)
	assert.NotNil(t, snap.HealthData)
	assert.Empty(t, snap.HealthData)
	assert.Equal(t, service.SourceLocal, snap.Status[EntityMedications].Source)
	assert.Equal(t, []Phase{PhaseInit, PhaseSessionResolved, PhaseDataLoaded, PhaseReady}, h.phases)
}

func TestRun_TwiceDoesNotDuplicateSeeds(t *testing.T) {
	h := newLocalHarness(t)
	ctx := context.Background()

	h.reconciler.Run(ctx)
	snap := h.reconciler.Run(ctx)

	assert.Len(t, snap.Medications, 2)
	assert.Len(t, snap.Notifications, 2)

	stored, _, err := h.store.Medications().Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestSignOut_ClearsAndReseeds(t *testing.T) {
	h := newLocalHarness(t)
	ctx := context.Background()

	snap := h.reconciler.Run(ctx)
	require.Len(t, snap.Medications, 2)
	require.NoError(t, h.store.Medications().Save(ctx, snap.Medications[:1]))

	require.NoError(t, h.reconciler.SignOut(ctx))
	assert.Equal(t, 1, h.auth.signOuts)
	assert.Equal(t, PhaseInit, h.reconciler.Phase())
	assert.Nil(t, h.sc.Current())
	assert.Empty(t, h.reconciler.Snapshot().Medications)
	_, found, err := h.store.Medications().Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	snap = h.reconciler.Run(ctx)
	assert.Len(t, snap.Medications, 2)
}

type scripted[T any] struct {
	items  []T
	source service.Source
	err    error
}

func (s *scripted[T]) Fetch(context.Context) ([]T, service.Source, error) {
	return s.items, s.source, s.err
}

func TestRun_RemoteFallbackKeepsHeldData(t *testing.T) {
	store := local.NewStore(memory.New(), nil)
	sc := session.NewContext()
	auth := &fakeAuth{session: &model.Session{AccessToken: "jwt-1", Identity: model.Identity{ID: "u1"}}}

	meds := &scripted[model.Medication]{items: []model.Medication{{ID: "remote-1"}}, source: service.SourceRemote}
	notes := &scripted[model.Notification]{items: []model.Notification{{ID: "local-1"}}, source: service.SourceLocal}
	docs := &scripted[model.Document]{err: errors.New("disk full")}

	r := New(Config{}, store, session.NewResolver(store.Identity(), auth, nil), auth, sc, Loaders{
		Medications:   meds,
		Notifications: notes,
		Documents:     docs,
	})
	ctx := context.Background()

	snap := r.Run(ctx)
	assert.False(t, snap.Session.LocalOnly)
	assert.Equal(t, "jwt-1", sc.AccessToken())
	assert.Equal(t, PhaseDataLoadFailed, snap.DataPhase)
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Equal(t, "remote-1", snap.Medications[0].ID)
	// nothing held yet, so the local copy is taken
	assert.Equal(t, "local-1", snap.Notifications[0].ID)
	assert.Contains(t, snap.Status[EntityDocuments].Error, "disk full")

	meds.items, meds.source = []model.Medication{{ID: "local-stale"}}, service.SourceLocal
	notes.items = []model.Notification{{ID: "local-2"}}
	docs.err = nil
	docs.source = service.SourceRemote
	docs.items = []model.Document{{ID: "d1"}}

	snap = r.Refresh(ctx)
	// the kept medications and local notifications still count as failed loads
	assert.Equal(t, PhaseDataLoadFailed, snap.DataPhase)
	assert.Equal(t, PhaseReady, snap.Phase)
	assert.Empty(t, snap.Status[EntityMedications].Error)
	assert.Equal(t, "remote-1", snap.Medications[0].ID)
	assert.True(t, snap.Status[EntityMedications].Kept)
	assert.Equal(t, "local-1", snap.Notifications[0].ID)
	assert.Equal(t, "d1", snap.Documents[0].ID)
}

func TestRun_AllRemoteIsLoaded(t *testing.T) {
	store := local.NewStore(memory.New(), nil)
	auth := &fakeAuth{session: &model.Session{AccessToken: "jwt-1", Identity: model.Identity{ID: "u1"}}}
	meds := &scripted[model.Medication]{items: []model.Medication{{ID: "remote-1"}}, source: service.SourceRemote}
	notes := &scripted[model.Notification]{source: service.SourceRemote}

	r := New(Config{}, store, session.NewResolver(store.Identity(), auth, nil), auth, session.NewContext(), Loaders{
		Medications:   meds,
		Notifications: notes,
	})

	snap := r.Run(context.Background())
	assert.Equal(t, PhaseDataLoaded, snap.DataPhase)
}

func TestRun_IdentityChangeDropsHeldData(t *testing.T) {
	store := local.NewStore(memory.New(), nil)
	sc := session.NewContext()
	auth := &fakeAuth{session: &model.Session{AccessToken: "jwt-1", Identity: model.Identity{ID: "u1"}}}
	meds := &scripted[model.Medication]{
		items:  []model.Medication{{ID: "m1", OwnerID: "u1"}},
		source: service.SourceRemote,
	}

	r := New(Config{}, store, session.NewResolver(store.Identity(), auth, nil), auth, sc, Loaders{Medications: meds})
	ctx := context.Background()

	snap := r.Run(ctx)
	require.Len(t, snap.Medications, 1)
	assert.Equal(t, "u1", snap.Medications[0].OwnerID)

	auth.session = &model.Session{AccessToken: "jwt-2", Identity: model.Identity{ID: "u2"}}
	meds.items, meds.source = []model.Medication{}, service.SourceLocal

	snap = r.Refresh(ctx)
	assert.Equal(t, "u2", snap.Session.Identity.ID)
	assert.Empty(t, snap.Medications)
	assert.False(t, snap.Status[EntityMedications].Kept)
	assert.Equal(t, PhaseDataLoadFailed, snap.DataPhase)
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newLocalHarness(t)
	snap := h.reconciler.Run(context.Background())

	snap.Medications[0].Name = "changed"
	snap.Status[EntityMedications] = LoadStatus{Error: "x"}

	again := h.reconciler.Snapshot()
	assert.NotEqual(t, "changed", again.Medications[0].Name)
	assert.Empty(t, again.Status[EntityMedications].Error)
}

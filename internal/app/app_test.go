package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/internal/bootstrap"
	"github.com/jwalitptl/healthplus/internal/model"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
)

type fakeAuth struct {
	session *model.Session
	accept  string
}

func (f *fakeAuth) GetSession(context.Context) (*model.Session, error) { return f.session, nil }

func (f *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*model.Session, error) {
	if password != f.accept {
		return nil, model.ErrInvalidCredentials
	}
	f.session = &model.Session{AccessToken: "jwt-1", Identity: model.Identity{ID: "u1", Email: email}}
	cp := *f.session
	return &cp, nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.session = nil
	return nil
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Remote: config.RemoteConfig{
			BaseURL: baseURL,
			AnonKey: "anon",
			Timeout: time.Second,
		},
		Bootstrap: config.BootstrapConfig{LoadTimeout: 2 * time.Second},
	}
}

// unreachable returns a base URL nothing listens on.
func unreachable(t *testing.T) string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func signUpInput() model.SignUpInput {
	return model.SignUpInput{
		Email:    "priya@example.com",
		Password: "correct-horse",
		Name:     "Priya",
		Role:     model.RolePatient,
		Age:      54,
	}
}

func TestBootstrapOffline(t *testing.T) {
	a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{}, nil, nil)
	ctx := context.Background()

	snap := a.Bootstrap(ctx)
	assert.Equal(t, bootstrap.PhaseReady, snap.Phase)
	assert.Len(t, snap.Medications, 2)
	assert.True(t, a.Session.LocalOnly())

	assert.Equal(t, "demo", a.HealthCheck(ctx).Status)
}

func TestSignUp_OfflineCreatesLocalAccount(t *testing.T) {
	a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{}, nil, nil)
	ctx := context.Background()
	a.Bootstrap(ctx)

	s, err := a.SignUp(ctx, signUpInput())
	require.NoError(t, err)
	assert.True(t, s.LocalOnly)
	assert.Equal(t, "Priya", s.Identity.Name)
	assert.Equal(t, "en", s.Identity.Language)
	assert.Contains(t, s.Identity.ID, "demo-")

	assert.Equal(t, s.Identity.ID, a.Session.OwnerID())
	stored, err := a.Store.Identity().GetIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", stored.Email)
}

func TestSignUp_Validation(t *testing.T) {
	a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{}, nil, nil)

	in := signUpInput()
	in.Role = "admin"
	_, err := a.SignUp(context.Background(), in)
	assert.True(t, apperrors.IsValidation(err))
}

func newBackend(t *testing.T, signupStatus int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(model.HealthStatus{Status: "healthy"})
		case "/auth/signup":
			w.WriteHeader(signupStatus)
			if signupStatus == http.StatusOK {
				_ = json.NewEncoder(w).Encode(model.UserEnvelope{User: model.Identity{ID: "u1"}})
				return
			}
			_, _ = w.Write([]byte(`{"error":"email already registered"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSignUp_RemoteSignsIn(t *testing.T) {
	srv := newBackend(t, http.StatusOK)
	auth := &fakeAuth{accept: "correct-horse"}
	a := New(testConfig(srv.URL), memory.New(), auth, nil, nil)
	ctx := context.Background()
	a.Bootstrap(ctx)

	s, err := a.SignUp(ctx, signUpInput())
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", s.AccessToken)
	assert.False(t, a.Session.LocalOnly())
	assert.Equal(t, "jwt-1", a.Session.AccessToken())

	identity, err := a.Store.Identity().GetIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	snap := a.Reconciler.Snapshot()
	assert.Equal(t, bootstrap.PhaseReady, snap.Phase)
	assert.Equal(t, bootstrap.PhaseDataLoadFailed, snap.DataPhase)
	require.NotEmpty(t, snap.Medications)
	for _, med := range snap.Medications {
		assert.Equal(t, "u1", med.OwnerID, med.Name)
	}
	assert.Equal(t, "healthy", a.HealthCheck(ctx).Status)
}

func TestRemoteSessionFallsBackOnMissingRoutes(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	auth := &fakeAuth{session: &model.Session{AccessToken: "jwt-1", Identity: model.Identity{ID: "u1"}}}
	a := New(testConfig(srv.URL), memory.New(), auth, nil, nil)
	ctx := context.Background()

	snap := a.Bootstrap(ctx)
	assert.False(t, snap.Session.LocalOnly)
	assert.Len(t, snap.Medications, 2)
	for entity, status := range snap.Status {
		assert.Empty(t, status.Error, "entity %s", entity)
	}

	meds, err := a.Medications.List(ctx)
	require.NoError(t, err)
	assert.Len(t, meds, 2)
}

func TestSignUp_RemoteRejectionRestoresSession(t *testing.T) {
	srv := newBackend(t, http.StatusBadRequest)
	a := New(testConfig(srv.URL), memory.New(), &fakeAuth{}, nil, nil)
	ctx := context.Background()
	a.Bootstrap(ctx)

	_, err := a.SignUp(ctx, signUpInput())
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, bootstrap.DemoUserID, a.Session.OwnerID())
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("local identity wins", func(t *testing.T) {
		a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{}, nil, nil)
		a.Bootstrap(ctx)

		s, err := a.SignIn(ctx, model.SignInInput{Email: "anyone@example.com", Password: "x"})
		require.NoError(t, err)
		assert.True(t, s.LocalOnly)
		assert.Equal(t, bootstrap.DemoUserID, s.Identity.ID)
	})

	t.Run("provider rejects", func(t *testing.T) {
		a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{accept: "right"}, nil, nil)

		_, err := a.SignIn(ctx, model.SignInInput{Email: "priya@example.com", Password: "wrong"})
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("provider accepts", func(t *testing.T) {
		a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{accept: "right"}, nil, nil)

		s, err := a.SignIn(ctx, model.SignInInput{Email: "priya@example.com", Password: "right"})
		require.NoError(t, err)
		assert.Equal(t, "jwt-1", s.AccessToken)
		assert.Equal(t, "jwt-1", a.Session.AccessToken())
	})
}

func TestSignOutReturnsToDemo(t *testing.T) {
	a := New(testConfig(unreachable(t)), memory.New(), &fakeAuth{}, nil, nil)
	ctx := context.Background()
	a.Bootstrap(ctx)

	require.NoError(t, a.SignOut(ctx))
	assert.Equal(t, bootstrap.PhaseInit, a.Reconciler.Phase())
	assert.Nil(t, a.Session.Current())

	snap := a.Bootstrap(ctx)
	assert.Len(t, snap.Medications, 2)
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := testConfig("")
	cfg.Store.Driver = config.DriverMemory

	store, closeFn, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, closeFn())
}

package api_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/internal/app"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/router"
	"github.com/jwalitptl/healthplus/internal/session"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
)

const (
	basePath = "/make-server-05eeb3cf"
	anonKey  = "public-anon-key"
)

// env is a running backend plus a client pointed at it.
type env struct {
	server *httptest.Server
	client *app.App
	ctx    context.Context
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := router.NewBackend(memory.New(), &config.Config{
		Server:   config.ServerConfig{BasePath: basePath, AnonKey: anonKey},
		JWT:      config.JWTConfig{Secret: "integration-secret", ExpiryHours: 1},
		Security: config.SecurityConfig{AllowedOrigins: []string{"*"}},
	}, nil, router.Options{BcryptCost: bcrypt.MinCost})
	srv := httptest.NewServer(backend.Engine())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Remote: config.RemoteConfig{
			BaseURL: srv.URL + basePath,
			AnonKey: anonKey,
			Timeout: 2 * time.Second,
		},
		Bootstrap: config.BootstrapConfig{LoadTimeout: 3 * time.Second},
	}
	auth := session.NewAuthClient(session.AuthClientConfig{
		BaseURL: cfg.Remote.BaseURL,
		AnonKey: cfg.Remote.AnonKey,
		Timeout: cfg.Remote.Timeout,
	}, nil)

	client := app.New(cfg, memory.New(), auth, nil, nil)
	t.Cleanup(func() { _ = client.Close() })

	return &env{server: srv, client: client, ctx: context.Background()}
}

func uniqueEmail(prefix string) string {
	return prefix + "-" + time.Now().Format("150405.000000000") + "@example.com"
}

func (e *env) signUp(t *testing.T, email string) *model.Session {
	t.Helper()
	s, err := e.client.SignUp(e.ctx, model.SignUpInput{
		Email:    email,
		Password: "correct-horse",
		Name:     "Priya",
		Role:     model.RolePatient,
		Age:      54,
	})
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func nextDose() time.Time {
	return time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
}

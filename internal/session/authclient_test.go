package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/internal/model"
)

func newAuthServer(t *testing.T, logouts *int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		var req model.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.TokenResponse{
			AccessToken: "jwt-1",
			ExpiresIn:   3600,
			User:        model.Identity{ID: "u1", Email: req.Email, Role: model.RolePatient},
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
		*logouts++
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthClient_SignInHoldsSession(t *testing.T) {
	var logouts int
	srv := newAuthServer(t, &logouts)
	ctx := context.Background()
	client := NewAuthClient(AuthClientConfig{BaseURL: srv.URL, AnonKey: "anon"}, nil)

	s, err := client.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = client.SignInWithPassword(ctx, "p@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", s.AccessToken)
	assert.Equal(t, "u1", s.Identity.ID)

	held, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, held)
	assert.Equal(t, "jwt-1", held.AccessToken)

	require.NoError(t, client.SignOut(ctx))
	assert.Equal(t, 1, logouts)
	held, _ = client.GetSession(ctx)
	assert.Nil(t, held)
}

func TestAuthClient_BadPassword(t *testing.T) {
	var logouts int
	srv := newAuthServer(t, &logouts)

	_, err := NewAuthClient(AuthClientConfig{BaseURL: srv.URL, AnonKey: "anon"}, nil).
		SignInWithPassword(context.Background(), "p@example.com", "wrong")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuthClient_ExpiredSessionDropped(t *testing.T) {
	var logouts int
	srv := newAuthServer(t, &logouts)
	client := NewAuthClient(AuthClientConfig{BaseURL: srv.URL, AnonKey: "anon"}, nil)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	_, err := client.SignInWithPassword(context.Background(), "p@example.com", "correct-horse")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	s, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestAuthClient_Unreachable(t *testing.T) {
	client := NewAuthClient(AuthClientConfig{BaseURL: "http://127.0.0.1:1", AnonKey: "anon", Timeout: time.Second}, nil)

	_, err := client.SignInWithPassword(context.Background(), "p@example.com", "correct-horse")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrInvalidCredentials)
}

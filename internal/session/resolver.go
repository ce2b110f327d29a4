package session

import (
	"context"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

// AuthProvider is the remote identity provider.
type AuthProvider interface {
	// GetSession returns nil when no remote session is held.
	GetSession(ctx context.Context) (*model.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignOut(ctx context.Context) error
}

// Resolver decides whether the actor is local-only or remote-authenticated.
type Resolver struct {
	local repository.IdentityRepository
	auth  AuthProvider
	log   *logger.Logger
}

func NewResolver(local repository.IdentityRepository, auth AuthProvider, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{local: local, auth: auth, log: log.Named("session")}
}

// GetSession never fails: a nil session means no identity.
// A stored local-only session wins without consulting the provider.
func (r *Resolver) GetSession(ctx context.Context) *model.Session {
	local, err := r.local.GetSession(ctx)
	if err != nil {
		r.log.Warn("local session unreadable", "error", err.Error())
	}
	if local != nil {
		local.LocalOnly = true
		return local
	}

	if r.auth == nil {
		return nil
	}
	remote, err := r.auth.GetSession(ctx)
	if err != nil {
		r.log.Debug("auth provider returned no session", "error", err.Error())
		return nil
	}
	if remote == nil || remote.AccessToken == "" {
		return nil
	}
	remote.LocalOnly = false
	return remote
}

// Resolve stores the resolved session into sc and returns it.
func (r *Resolver) Resolve(ctx context.Context, sc *Context) *model.Session {
	s := r.GetSession(ctx)
	sc.Set(s)
	return s
}

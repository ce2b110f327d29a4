package profile

import (
	"context"
	"errors"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

const basePath = "/user/profile"

var errNoProfile = errors.New("no identity stored")

type Service struct {
	deps service.Deps
	repo repository.IdentityRepository
}

func NewService(deps service.Deps, repo repository.IdentityRepository) *Service {
	return &Service{
		deps: deps.Named("profile"),
		repo: repo,
	}
}

func (s *Service) Get(ctx context.Context) (*model.Identity, error) {
	var profile model.Identity
	handled, err := s.deps.Call(ctx, executor.Get(basePath), "profile", &profile)
	if err != nil {
		return nil, err
	}
	if handled {
		return &profile, nil
	}

	stored, err := s.repo.GetIdentity(ctx)
	if err != nil {
		return nil, service.Storage(err)
	}
	if stored != nil {
		return stored, nil
	}
	if current := s.deps.Session.Current(); current != nil {
		return &current.Identity, nil
	}
	return nil, apperrors.NotFound("profile", errNoProfile)
}

// Update changes the editable profile fields and keeps the active session's
// copy of the identity in step.
func (s *Service) Update(ctx context.Context, patch model.ProfilePatch) (*model.Identity, error) {
	if err := s.deps.Validator.Validate(patch); err != nil {
		return nil, err
	}

	var profile model.Identity
	handled, err := s.deps.Call(ctx, executor.Put(basePath, patch), "profile", &profile)
	if err != nil {
		return nil, err
	}
	if handled {
		s.deps.Session.UpdateIdentity(profile)
		return &profile, nil
	}

	stored, err := s.repo.GetIdentity(ctx)
	if err != nil {
		return nil, service.Storage(err)
	}
	if stored == nil {
		return nil, apperrors.NotFound("profile", errNoProfile)
	}
	patch.Apply(stored, s.deps.Now())
	if err := s.repo.SaveIdentity(ctx, stored); err != nil {
		return nil, service.Storage(err)
	}

	sess, err := s.repo.GetSession(ctx)
	if err != nil {
		return nil, service.Storage(err)
	}
	if sess != nil {
		sess.Identity = *stored
		if err := s.repo.SaveSession(ctx, sess); err != nil {
			return nil, service.Storage(err)
		}
	}
	s.deps.Session.UpdateIdentity(*stored)
	return stored, nil
}

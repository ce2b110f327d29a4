package family

import (
	"context"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

const basePath = "/family"

// Service manages links to caregivers and family members.
type Service struct {
	deps service.Deps
	repo repository.FamilyLinkRepository
}

func NewService(deps service.Deps, repo repository.FamilyLinkRepository) *Service {
	return &Service{
		deps: deps.Named("family"),
		repo: repo,
	}
}

func (s *Service) List(ctx context.Context) ([]model.FamilyLink, error) {
	links, _, err := s.Fetch(ctx)
	return links, err
}

func (s *Service) Fetch(ctx context.Context) ([]model.FamilyLink, service.Source, error) {
	var links []model.FamilyLink
	handled, err := s.deps.Call(ctx, executor.Get(basePath+"/links"), "familyLinks", &links)
	if err != nil {
		return nil, "", err
	}
	if handled {
		return links, service.SourceRemote, nil
	}
	links, err = service.LoadOrSeed[model.FamilyLink](ctx, s.repo, nil)
	if err != nil {
		return nil, "", err
	}
	return links, service.SourceLocal, nil
}

// Link invites a member. New links start pending.
func (s *Service) Link(ctx context.Context, input model.FamilyLinkInput) (*model.FamilyLink, error) {
	if err := s.deps.Validator.Validate(input); err != nil {
		return nil, err
	}

	var link model.FamilyLink
	handled, err := s.deps.Call(ctx, executor.Post(basePath+"/link", input), "familyLink", &link)
	if err != nil {
		return nil, err
	}
	if handled {
		return &link, nil
	}

	now := s.deps.Now()
	link = model.FamilyLink{
		ID:           model.NewID(now),
		OwnerID:      s.deps.Session.OwnerID(),
		MemberEmail:  input.MemberEmail,
		Relationship: input.Relationship,
		Permissions:  input.PermissionsOrDefault(),
		Status:       model.FamilyLinkPending,
		CreatedAt:    now,
	}
	_, err = s.repo.Mutate(ctx, func(items []model.FamilyLink, _ bool) ([]model.FamilyLink, error) {
		return append(items, link), nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	return &link, nil
}

func (s *Service) Unlink(ctx context.Context, id string) error {
	handled, err := s.deps.Call(ctx, executor.Delete(basePath+"/links/"+id).OnTarget(), "", nil)
	if handled || apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.repo.Mutate(ctx, func(items []model.FamilyLink, _ bool) ([]model.FamilyLink, error) {
		return service.Without(items, id), nil
	})
	return service.Storage(err)
}

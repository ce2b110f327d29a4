package document

import (
	"context"
	"sort"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

const basePath = "/documents"

// Service keeps document metadata. File contents are out of scope.
type Service struct {
	deps service.Deps
	repo repository.DocumentRepository
}

func NewService(deps service.Deps, repo repository.DocumentRepository) *Service {
	return &Service{
		deps: deps.Named("document"),
		repo: repo,
	}
}

func (s *Service) List(ctx context.Context) ([]model.Document, error) {
	docs, _, err := s.Fetch(ctx)
	return docs, err
}

func (s *Service) Fetch(ctx context.Context) ([]model.Document, service.Source, error) {
	var docs []model.Document
	handled, err := s.deps.Call(ctx, executor.Get(basePath), "documents", &docs)
	if err != nil {
		return nil, "", err
	}
	source := service.SourceRemote
	if !handled {
		source = service.SourceLocal
		if docs, err = service.LoadOrSeed[model.Document](ctx, s.repo, nil); err != nil {
			return nil, "", err
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
	return docs, source, nil
}

func (s *Service) Upload(ctx context.Context, input model.DocumentInput) (*model.Document, error) {
	if err := s.deps.Validator.Validate(input); err != nil {
		return nil, err
	}

	var uploaded model.Document
	handled, err := s.deps.Call(ctx, executor.Post(basePath+"/upload", input), "document", &uploaded)
	if err != nil {
		return nil, err
	}
	if handled {
		return &uploaded, nil
	}

	now := s.deps.Now()
	uploaded = model.Document{
		ID:          model.NewID(now),
		OwnerID:     s.deps.Session.OwnerID(),
		FileName:    input.FileName,
		FileType:    input.FileType,
		Category:    input.Category,
		Description: input.Description,
		Status:      model.DocumentStatusUploaded,
		UploadedAt:  now,
		CreatedAt:   now,
	}
	_, err = s.repo.Mutate(ctx, func(items []model.Document, _ bool) ([]model.Document, error) {
		return append(items, uploaded), nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	return &uploaded, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	handled, err := s.deps.Call(ctx, executor.Delete(basePath+"/"+id).OnTarget(), "", nil)
	if handled || apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.repo.Mutate(ctx, func(items []model.Document, _ bool) ([]model.Document, error) {
		return service.Without(items, id), nil
	})
	return service.Storage(err)
}

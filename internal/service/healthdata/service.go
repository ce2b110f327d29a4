package healthdata

import (
	"context"
	"sort"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

const basePath = "/health-data"

// Service keeps vitals readings.
type Service struct {
	deps service.Deps
	repo repository.HealthRecordRepository
}

func NewService(deps service.Deps, repo repository.HealthRecordRepository) *Service {
	return &Service{
		deps: deps.Named("healthdata"),
		repo: repo,
	}
}

func (s *Service) List(ctx context.Context) ([]model.HealthRecord, error) {
	records, _, err := s.Fetch(ctx)
	return records, err
}

// Fetch returns readings with the most recent recordedAt first.
func (s *Service) Fetch(ctx context.Context) ([]model.HealthRecord, service.Source, error) {
	var records []model.HealthRecord
	handled, err := s.deps.Call(ctx, executor.Get(basePath), "healthData", &records)
	if err != nil {
		return nil, "", err
	}
	source := service.SourceRemote
	if !handled {
		source = service.SourceLocal
		if records, err = service.LoadOrSeed[model.HealthRecord](ctx, s.repo, nil); err != nil {
			return nil, "", err
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.After(records[j].RecordedAt)
	})
	return records, source, nil
}

func (s *Service) Create(ctx context.Context, input model.HealthRecordInput) (*model.HealthRecord, error) {
	if err := s.deps.Validator.Validate(input); err != nil {
		return nil, err
	}

	var created model.HealthRecord
	handled, err := s.deps.Call(ctx, executor.Post(basePath, input), "healthRecord", &created)
	if err != nil {
		return nil, err
	}
	if handled {
		return &created, nil
	}

	now := s.deps.Now()
	recordedAt := now
	if input.RecordedAt != nil {
		recordedAt = *input.RecordedAt
	}
	created = model.HealthRecord{
		ID:         model.NewID(now),
		OwnerID:    s.deps.Session.OwnerID(),
		Type:       input.Type,
		Value:      input.Value,
		Unit:       input.Unit,
		Notes:      input.Notes,
		RecordedAt: recordedAt,
		CreatedAt:  now,
	}
	_, err = s.repo.Mutate(ctx, func(items []model.HealthRecord, _ bool) ([]model.HealthRecord, error) {
		return append(items, created), nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	return &created, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	handled, err := s.deps.Call(ctx, executor.Delete(basePath+"/"+id).OnTarget(), "", nil)
	if handled || apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.repo.Mutate(ctx, func(items []model.HealthRecord, _ bool) ([]model.HealthRecord, error) {
		return service.Without(items, id), nil
	})
	return service.Storage(err)
}

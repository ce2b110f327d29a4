package medication

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/healthplus/internal/adherence"
	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
	apperrors "github.com/jwalitptl/healthplus/pkg/errors"
)

const basePath = "/medications"

type Service struct {
	deps   service.Deps
	repo   repository.MedicationRepository
	events repository.DoseEventRepository
}

func NewService(deps service.Deps, repo repository.MedicationRepository, events repository.DoseEventRepository) *Service {
	return &Service{
		deps:   deps.Named("medication"),
		repo:   repo,
		events: events,
	}
}

// DemoMedications is the set a fresh local collection starts with.
func DemoMedications(now time.Time, ownerID string) []model.Medication {
	return []model.Medication{
		{
			ID:         "1",
			Name:       "Metformin",
			Dosage:     "500mg",
			Frequency:  "Twice daily",
			NextDoseAt: now.Add(2 * time.Hour),
			Adherence:  85,
			PillCount:  28,
			OwnerID:    ownerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:         "2",
			Name:       "Lisinopril",
			Dosage:     "10mg",
			Frequency:  "Once daily",
			NextDoseAt: now.Add(8 * time.Hour),
			Adherence:  92,
			PillCount:  25,
			OwnerID:    ownerID,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

func (s *Service) seed() []model.Medication {
	return DemoMedications(s.deps.Now(), s.deps.Session.OwnerID())
}

func (s *Service) List(ctx context.Context) ([]model.Medication, error) {
	meds, _, err := s.Fetch(ctx)
	return meds, err
}

// Fetch is List plus where the data came from.
func (s *Service) Fetch(ctx context.Context) ([]model.Medication, service.Source, error) {
	var meds []model.Medication
	handled, err := s.deps.Call(ctx, executor.Get(basePath), "medications", &meds)
	if err != nil {
		return nil, "", err
	}
	source := service.SourceRemote
	if !handled {
		source = service.SourceLocal
		if meds, err = service.LoadOrSeed(ctx, s.repo, s.seed); err != nil {
			return nil, "", err
		}
	}

	sort.SliceStable(meds, func(i, j int) bool {
		return meds[i].NextDoseAt.Before(meds[j].NextDoseAt)
	})
	return meds, source, nil
}

func (s *Service) Create(ctx context.Context, input model.MedicationInput) (*model.Medication, error) {
	if err := s.deps.Validator.Validate(input); err != nil {
		return nil, err
	}

	var created model.Medication
	handled, err := s.deps.Call(ctx, executor.Post(basePath, input), "medication", &created)
	if err != nil {
		return nil, err
	}
	if handled {
		return &created, nil
	}

	now := s.deps.Now()
	created = model.Medication{
		ID:         model.NewID(now),
		Name:       input.Name,
		Dosage:     input.Dosage,
		Frequency:  input.Frequency,
		NextDoseAt: input.NextDoseAt,
		Adherence:  adherence.Max,
		PillCount:  input.PillCount,
		Notes:      input.Notes,
		OwnerID:    s.deps.Session.OwnerID(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.repo.Mutate(ctx, func(items []model.Medication, found bool) ([]model.Medication, error) {
		return append(service.Seeded(items, found, s.seed), created), nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	s.deps.Logger.Debug("medication created locally", "id", created.ID)
	return &created, nil
}

func (s *Service) Update(ctx context.Context, id string, patch model.MedicationPatch) (*model.Medication, error) {
	if err := s.deps.Validator.Validate(patch); err != nil {
		return nil, err
	}

	var updated model.Medication
	handled, err := s.deps.Call(ctx, executor.Put(basePath+"/"+id, patch).OnTarget(), "medication", &updated)
	if err != nil {
		return nil, err
	}
	if handled {
		return &updated, nil
	}

	_, err = s.repo.Mutate(ctx, func(items []model.Medication, found bool) ([]model.Medication, error) {
		items = service.Seeded(items, found, s.seed)
		i := service.IndexOf(items, id)
		if i < 0 {
			return nil, service.NotFound("medication", id)
		}
		patch.Apply(&items[i], s.deps.Now())
		updated = items[i]
		return items, nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	return &updated, nil
}

// Delete succeeds whether or not id exists.
func (s *Service) Delete(ctx context.Context, id string) error {
	handled, err := s.deps.Call(ctx, executor.Delete(basePath+"/"+id).OnTarget(), "", nil)
	if handled || apperrors.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.repo.Mutate(ctx, func(items []model.Medication, found bool) ([]model.Medication, error) {
		return service.Without(service.Seeded(items, found, s.seed), id), nil
	})
	return service.Storage(err)
}

// RecordTaken logs one dose and returns the new adherence score.
func (s *Service) RecordTaken(ctx context.Context, id string, verification model.JSONMap) (*model.TakenResult, error) {
	now := s.deps.Now()
	req := model.TakeRequest{VerificationData: verification, Timestamp: now}

	var env model.TakeEnvelope
	handled, err := s.deps.Call(ctx, executor.Post(basePath+"/"+id+"/take", req).OnTarget(), "", &env)
	if err != nil {
		return nil, err
	}
	if handled {
		return &model.TakenResult{Adherence: env.NewAdherence, Event: env.AdherenceRecord}, nil
	}

	var result model.TakenResult
	_, err = s.repo.Mutate(ctx, func(items []model.Medication, found bool) ([]model.Medication, error) {
		items = service.Seeded(items, found, s.seed)
		i := service.IndexOf(items, id)
		if i < 0 {
			return nil, service.NotFound("medication", id)
		}

		event := model.DoseEvent{
			ID:               model.NewID(now),
			MedicationID:     id,
			OwnerID:          s.deps.Session.OwnerID(),
			TakenAt:          now,
			Verified:         len(verification) > 0,
			VerificationData: verification,
		}
		history, _, err := s.events.Load(ctx)
		if err != nil {
			return nil, err
		}
		count := adherence.Summarize(append(history, event), id).Count

		med := &items[i]
		med.Adherence = adherence.Next(med.Adherence, count)
		if med.PillCount > 0 {
			med.PillCount--
		}
		med.LastTakenAt = &now
		if now.After(med.UpdatedAt) {
			med.UpdatedAt = now
		}

		result = model.TakenResult{Adherence: med.Adherence, Event: event}
		return items, nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}

	// The event is appended only once the score it produced is stored.
	_, err = s.events.Mutate(ctx, func(events []model.DoseEvent, _ bool) ([]model.DoseEvent, error) {
		return append(events, result.Event), nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	s.deps.Logger.Debug("dose recorded locally", "medication_id", id, "adherence", result.Adherence)
	return &result, nil
}

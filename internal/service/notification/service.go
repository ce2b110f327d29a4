package notification

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/healthplus/internal/executor"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/internal/service"
)

const (
	basePath = "/notifications"

	// MaxLocal is how many notifications the local store keeps.
	MaxLocal = 100
)

type Service struct {
	deps service.Deps
	repo repository.NotificationRepository
}

func NewService(deps service.Deps, repo repository.NotificationRepository) *Service {
	return &Service{
		deps: deps.Named("notification"),
		repo: repo,
	}
}

func DemoNotifications(now time.Time) []model.Notification {
	return []model.Notification{
		{
			ID:        "1",
			Type:      "medication_reminder",
			Title:     "Medication Due",
			Message:   "Time to take your Metformin 500mg",
			Priority:  model.PriorityHigh,
			CreatedAt: now,
		},
		{
			ID:        "2",
			Type:      "info",
			Title:     "Welcome to HealthCare+",
			Message:   "Your health companion is ready. Start by reviewing your medications.",
			Priority:  model.PriorityLow,
			CreatedAt: now.Add(-time.Hour),
		},
	}
}

func (s *Service) seed() []model.Notification {
	return DemoNotifications(s.deps.Now())
}

func (s *Service) List(ctx context.Context) ([]model.Notification, error) {
	items, _, err := s.Fetch(ctx)
	return items, err
}

// Fetch returns notifications newest first.
func (s *Service) Fetch(ctx context.Context) ([]model.Notification, service.Source, error) {
	var items []model.Notification
	handled, err := s.deps.Call(ctx, executor.Get(basePath), "notifications", &items)
	if err != nil {
		return nil, "", err
	}
	source := service.SourceRemote
	if !handled {
		source = service.SourceLocal
		if items, err = service.LoadOrSeed(ctx, s.repo, s.seed); err != nil {
			return nil, "", err
		}
	}
	newestFirst(items)
	return items, source, nil
}

func (s *Service) Create(ctx context.Context, input model.NotificationInput) (*model.Notification, error) {
	if err := s.deps.Validator.Validate(input); err != nil {
		return nil, err
	}
	if input.Priority == "" {
		input.Priority = model.PriorityMedium
	}

	var created model.Notification
	handled, err := s.deps.Call(ctx, executor.Post(basePath, input), "notification", &created)
	if err != nil {
		return nil, err
	}
	if handled {
		return &created, nil
	}

	now := s.deps.Now()
	created = model.Notification{
		ID:        model.NewID(now),
		Type:      input.Type,
		Title:     input.Title,
		Message:   input.Message,
		Priority:  input.Priority,
		CreatedAt: now,
	}
	_, err = s.repo.Mutate(ctx, func(items []model.Notification, found bool) ([]model.Notification, error) {
		items = append(service.Seeded(items, found, s.seed), created)
		return prune(items), nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	return &created, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) (*model.Notification, error) {
	var updated model.Notification
	handled, err := s.deps.Call(ctx, executor.Put(basePath+"/"+id+"/read", nil).OnTarget(), "notification", &updated)
	if err != nil {
		return nil, err
	}
	if handled {
		return &updated, nil
	}

	_, err = s.repo.Mutate(ctx, func(items []model.Notification, found bool) ([]model.Notification, error) {
		items = service.Seeded(items, found, s.seed)
		i := service.IndexOf(items, id)
		if i < 0 {
			return nil, service.NotFound("notification", id)
		}
		items[i].Read = true
		updated = items[i]
		return items, nil
	})
	if err != nil {
		return nil, service.Storage(err)
	}
	return &updated, nil
}

func newestFirst(items []model.Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// prune keeps the MaxLocal newest notifications.
func prune(items []model.Notification) []model.Notification {
	newestFirst(items)
	if len(items) > MaxLocal {
		items = items[:MaxLocal]
	}
	return items
}

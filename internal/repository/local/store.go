// Package local implements the local persistent store: typed repositories over
// fixed key namespaces of an injectable kv.Store.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/pkg/kv"
	"github.com/jwalitptl/healthplus/pkg/metrics"
)

// Namespaces, one key per collection.
const (
	KeyUser          = "healthcare_demo_user"
	KeySession       = "healthcare_demo_session"
	KeyMedications   = "healthcare_demo_medications"
	KeyNotifications = "healthcare_demo_notifications"
	KeyDoseEvents    = "healthcare_demo_dose_events"
	KeyHealthData    = "healthcare_demo_health_data"
	KeyDocuments     = "healthcare_demo_documents"
	KeyFamilyLinks   = "healthcare_demo_family_links"
)

// AllKeys lists every namespace cleared on sign-out.
var AllKeys = []string{
	KeyUser,
	KeySession,
	KeyMedications,
	KeyNotifications,
	KeyDoseEvents,
	KeyHealthData,
	KeyDocuments,
	KeyFamilyLinks,
}

type Store struct {
	kv      kv.Store
	metrics *metrics.Metrics

	identity      *identityRepository
	medications   *Collection[model.Medication]
	doseEvents    *Collection[model.DoseEvent]
	notifications *Collection[model.Notification]
	healthRecords *Collection[model.HealthRecord]
	documents     *Collection[model.Document]
	familyLinks   *Collection[model.FamilyLink]
}

var _ repository.LocalStore = (*Store)(nil)

func NewStore(store kv.Store, m *metrics.Metrics) *Store {
	if m == nil {
		m = metrics.Nop()
	}
	s := &Store{kv: store, metrics: m}
	s.identity = &identityRepository{store: s}
	s.medications = newCollection[model.Medication](s, KeyMedications)
	s.doseEvents = newCollection[model.DoseEvent](s, KeyDoseEvents)
	s.notifications = newCollection[model.Notification](s, KeyNotifications)
	s.healthRecords = newCollection[model.HealthRecord](s, KeyHealthData)
	s.documents = newCollection[model.Document](s, KeyDocuments)
	s.familyLinks = newCollection[model.FamilyLink](s, KeyFamilyLinks)
	return s
}

func (s *Store) Identity() repository.IdentityRepository { return s.identity }
func (s *Store) Medications() repository.MedicationRepository { return s.medications }
func (s *Store) DoseEvents() repository.DoseEventRepository { return s.doseEvents }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }
func (s *Store) HealthRecords() repository.HealthRecordRepository { return s.healthRecords }
func (s *Store) Documents() repository.DocumentRepository { return s.documents }
func (s *Store) FamilyLinks() repository.FamilyLinkRepository { return s.familyLinks }

// Clear removes every namespace. It keeps going after a failed removal and
// reports the first error.
func (s *Store) Clear(ctx context.Context) error {
	var first error
	for _, key := range AllKeys {
		if err := s.kv.Remove(ctx, key); err != nil {
			s.observe("remove", err)
			if first == nil {
				first = fmt.Errorf("failed to clear %s: %w", key, err)
			}
			continue
		}
		s.observe("remove", nil)
	}
	return first
}

func (s *Store) read(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	s.observe("get", err)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) write(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	err = s.kv.Set(ctx, key, string(raw))
	s.observe("set", err)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(op, status).Inc()
}

// Collection stores a JSON array under one key. The mutex serializes
// read-modify-write cycles on that key.
type Collection[T model.Entity] struct {
	store *Store
	key   string
	mu    sync.Mutex
}

func newCollection[T model.Entity](store *Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

func (c *Collection[T]) Load(ctx context.Context) ([]T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, items)
}

func (c *Collection[T]) Mutate(ctx context.Context, fn func(items []T, found bool) ([]T, error)) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, found, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(items, found)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (c *Collection[T]) load(ctx context.Context) ([]T, bool, error) {
	var items []T
	found, err := c.store.read(ctx, c.key, &items)
	if err != nil {
		return nil, false, err
	}
	return items, found, nil
}

func (c *Collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.store.write(ctx, c.key, items)
}

type identityRepository struct {
	store *Store
}

func (r *identityRepository) GetIdentity(ctx context.Context) (*model.Identity, error) {
	var identity model.Identity
	found, err := r.store.read(ctx, KeyUser, &identity)
	if err != nil || !found {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepository) SaveIdentity(ctx context.Context, identity *model.Identity) error {
	return r.store.write(ctx, KeyUser, identity)
}

func (r *identityRepository) GetSession(ctx context.Context) (*model.Session, error) {
	var session model.Session
	found, err := r.store.read(ctx, KeySession, &session)
	if err != nil || !found {
		return nil, err
	}
	session.LocalOnly = true
	return &session, nil
}

func (r *identityRepository) SaveSession(ctx context.Context, session *model.Session) error {
	return r.store.write(ctx, KeySession, session)
}

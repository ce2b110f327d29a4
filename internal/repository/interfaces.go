package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/healthplus/internal/model"
)

// ErrNotFound is returned by the backend repositories for a missing record.
var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// Collection is one owned entity list in the local persistent store.
	Collection[T model.Entity] interface {
		// Load returns found=false when the collection was never written.
		Load(ctx context.Context) (items []T, found bool, err error)
		Save(ctx context.Context, items []T) error
		// Mutate runs fn as one read-modify-write. Nothing is written when fn fails.
		Mutate(ctx context.Context, fn func(items []T, found bool) ([]T, error)) ([]T, error)
	}

	MedicationRepository   = Collection[model.Medication]
	DoseEventRepository    = Collection[model.DoseEvent]
	NotificationRepository = Collection[model.Notification]
	HealthRecordRepository = Collection[model.HealthRecord]
	DocumentRepository     = Collection[model.Document]
	FamilyLinkRepository   = Collection[model.FamilyLink]

	// IdentityRepository holds the single local-only identity and its session.
	IdentityRepository interface {
		GetIdentity(ctx context.Context) (*model.Identity, error)
		SaveIdentity(ctx context.Context, identity *model.Identity) error
		GetSession(ctx context.Context) (*model.Session, error)
		SaveSession(ctx context.Context, session *model.Session) error
	}

	// LocalStore groups every namespace of the local persistent store.
	LocalStore interface {
		Identity() IdentityRepository
		Medications() MedicationRepository
		DoseEvents() DoseEventRepository
		Notifications() NotificationRepository
		HealthRecords() HealthRecordRepository
		Documents() DocumentRepository
		FamilyLinks() FamilyLinkRepository
		// Clear removes every namespace.
		Clear(ctx context.Context) error
	}

	// OwnedRepository is the backend's per-user storage for one entity kind.
	OwnedRepository[T model.Entity] interface {
		Get(ctx context.Context, ownerID, id string) (*T, error)
		Put(ctx context.Context, ownerID string, item T) error
		Delete(ctx context.Context, ownerID, id string) error
		List(ctx context.Context, ownerID string) ([]T, error)
	}

	// UserRepository is the backend's identity storage.
	UserRepository interface {
		GetByID(ctx context.Context, id string) (*model.Identity, error)
		GetByEmail(ctx context.Context, email string) (*UserRecord, error)
		Create(ctx context.Context, record UserRecord) error
		UpdateProfile(ctx context.Context, identity model.Identity) error
	}

	// TokenRepository remembers revoked access tokens until they expire.
	TokenRepository interface {
		Revoke(ctx context.Context, tokenID string) error
		IsRevoked(ctx context.Context, tokenID string) (bool, error)
	}
)

// UserRecord is an identity plus its credential.
type UserRecord struct {
	Identity     model.Identity `json:"identity"`
	PasswordHash string         `json:"passwordHash"`
}

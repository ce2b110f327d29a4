package kvstore

import (
	"context"
	"errors"
	"strings"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/pkg/kv"
)

type userRepository struct {
	store kv.Store
}

// NewUserRepository keeps each user at "user:<id>" plus an email index at
// "user-email:<lowercased email>".
func NewUserRepository(store kv.Store) repository.UserRepository {
	return &userRepository{store: store}
}

func emailKey(email string) string {
	return PrefixUserEmail + ":" + strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.Identity, error) {
	var record repository.UserRecord
	if err := getJSON(ctx, r.store, PrefixUser+":"+id, &record); err != nil {
		return nil, err
	}
	return &record.Identity, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*repository.UserRecord, error) {
	id, found, err := r.store.Get(ctx, emailKey(email))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repository.ErrNotFound
	}

	var record repository.UserRecord
	if err := getJSON(ctx, r.store, PrefixUser+":"+id, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create fails with model.ErrEmailTaken when the email is already indexed.
func (r *userRepository) Create(ctx context.Context, record repository.UserRecord) error {
	_, err := r.GetByEmail(ctx, record.Identity.Email)
	switch {
	case err == nil:
		return model.ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return err
	}

	if err := setJSON(ctx, r.store, PrefixUser+":"+record.Identity.ID, record); err != nil {
		return err
	}
	return r.store.Set(ctx, emailKey(record.Identity.Email), record.Identity.ID)
}

// UpdateProfile replaces the stored identity, keeping the credential.
func (r *userRepository) UpdateProfile(ctx context.Context, identity model.Identity) error {
	key := PrefixUser + ":" + identity.ID
	var record repository.UserRecord
	if err := getJSON(ctx, r.store, key, &record); err != nil {
		return err
	}
	identity.Email = record.Identity.Email
	record.Identity = identity
	return setJSON(ctx, r.store, key, record)
}

type tokenRepository struct {
	store kv.Store
}

// NewTokenRepository records revoked token ids at "revoked:<jti>".
func NewTokenRepository(store kv.Store) repository.TokenRepository {
	return &tokenRepository{store: store}
}

func (r *tokenRepository) Revoke(ctx context.Context, tokenID string) error {
	return r.store.Set(ctx, PrefixRevoked+":"+tokenID, "1")
}

func (r *tokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, found, err := r.store.Get(ctx, PrefixRevoked+":"+tokenID)
	return found, err
}

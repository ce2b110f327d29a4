package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository"
	"github.com/jwalitptl/healthplus/pkg/kv/memory"
)

func TestOwned_ScopedByOwner(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	meds := NewOwned[model.Medication](store, PrefixMedication)

	require.NoError(t, meds.Put(ctx, "u1", model.Medication{ID: "a", Name: "Metformin"}))
	require.NoError(t, meds.Put(ctx, "u1", model.Medication{ID: "b", Name: "Lisinopril"}))
	require.NoError(t, meds.Put(ctx, "u2", model.Medication{ID: "c", Name: "Aspirin"}))

	items, err := meds.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)

	raw, found, err := store.Get(ctx, "medication:u1:a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, raw, "Metformin")

	_, err = meds.Get(ctx, "u2", "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, meds.Delete(ctx, "u1", "a"))
	assert.ErrorIs(t, meds.Delete(ctx, "u1", "a"), repository.ErrNotFound)
}

func TestOwned_EmptyList(t *testing.T) {
	items, err := NewOwned[model.Document](memory.New(), PrefixDocument).List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestUsers_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(memory.New())
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	record := repository.UserRecord{
		Identity:     model.Identity{ID: "u1", Email: "Priya@Example.com", Name: "Priya", CreatedAt: now},
		PasswordHash: "hash",
	}
	require.NoError(t, users.Create(ctx, record))
	assert.ErrorIs(t, users.Create(ctx, record), model.ErrEmailTaken)

	got, err := users.GetByEmail(ctx, "priya@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	identity, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Priya", identity.Name)

	identity.Name = "Priya P"
	identity.Email = "attacker@example.com"
	require.NoError(t, users.UpdateProfile(ctx, *identity))

	got, err = users.GetByEmail(ctx, "priya@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Priya P", got.Identity.Name)
	assert.Equal(t, "Priya@Example.com", got.Identity.Email)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTokens_Revoke(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenRepository(memory.New())

	revoked, err := tokens.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, tokens.Revoke(ctx, "jti-1"))
	revoked, err = tokens.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

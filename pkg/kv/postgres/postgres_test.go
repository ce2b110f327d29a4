package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthplus/pkg/kv"
)

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return mock, NewStore(sqlx.NewDb(db, "postgres"), "")
}

func TestStore_GetFound(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT value FROM kv_store_05eeb3cf WHERE key = \$1`).
		WithArgs("user:u1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"id":"u1"}`))

	v, ok, err := store.Get(context.Background(), "user:u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"u1"}`, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMissing(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT value FROM kv_store_05eeb3cf`).
		WithArgs("user:missing").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := store.Get(context.Background(), "user:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SetUpserts(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`INSERT INTO kv_store_05eeb3cf \(key, value\) VALUES \(\$1, \$2\)\s+ON CONFLICT`).
		WithArgs("medication:u1:1", `{"id":"1"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "medication:u1:1", `{"id":"1"}`))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Remove(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectExec(`DELETE FROM kv_store_05eeb3cf WHERE key = \$1`).
		WithArgs("medication:u1:1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Remove(context.Background(), "medication:u1:1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetByPrefixEscapesWildcards(t *testing.T) {
	mock, store := setupMockDB(t)

	mock.ExpectQuery(`SELECT key, value FROM kv_store_05eeb3cf WHERE key LIKE \$1 ORDER BY key`).
		WithArgs(`health:user\_1:%`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("health:user_1:a", `{"id":"a"}`).
			AddRow("health:user_1:b", `{"id":"b"}`))

	entries, err := store.GetByPrefix(context.Background(), "health:user_1:")
	require.NoError(t, err)
	assert.Equal(t, []kv.Entry{
		{Key: "health:user_1:a", Value: `{"id":"a"}`},
		{Key: "health:user_1:b", Value: `{"id":"b"}`},
	}, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

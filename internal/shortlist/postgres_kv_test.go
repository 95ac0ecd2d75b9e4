package shortlist

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selectForUpdate = regexp.QuoteMeta(`SELECT value FROM "kv_store" WHERE key = $1 FOR UPDATE`)
	selectValue     = regexp.QuoteMeta(`SELECT value FROM "kv_store" WHERE key = $1`)
	upsertValue     = regexp.QuoteMeta(`INSERT INTO "kv_store" (key, value, updated_at) VALUES ($1, $2, NOW())`)
)

func TestPostgresKV_AddInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).
		WithArgs(DefaultStorageKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectExec(upsertValue).
		WithArgs(DefaultStorageKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := newTestStore(t, NewPostgresKV(db, ""))
	res, err := store.Add(context.Background(), ada())
	require.NoError(t, err)
	assert.True(t, res.Added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_DuplicateRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).
		WithArgs(DefaultStorageKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).
			AddRow(`[{"id":"id-9","name":"Ada Lovelace","email":"ada@x.com"}]`))
	mock.ExpectRollback()

	store := newTestStore(t, NewPostgresKV(db, "kv_store"))
	res, err := store.Add(context.Background(), ada())
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.Equal(t, "id-9", res.Entry.ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_WriteFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(selectForUpdate).
		WithArgs(DefaultStorageKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[]`))
	mock.ExpectExec(upsertValue).
		WillReturnError(errors.New("pq: could not extend file"))
	mock.ExpectRollback()

	store := newTestStore(t, NewPostgresKV(db, ""))
	_, err = store.Add(context.Background(), ada())
	assert.ErrorIs(t, err, ErrWriteFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_BeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	kv := NewPostgresKV(db, "")
	err = kv.Update(context.Background(), "k", func([]byte) ([]byte, error) { return []byte("x"), nil })
	assert.ErrorIs(t, err, ErrReadFailed)
}

func TestPostgresKV_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	kv := NewPostgresKV(db, "")
	ctx := context.Background()

	mock.ExpectQuery(selectValue).WithArgs("k").WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	mock.ExpectQuery(selectValue).WithArgs("k").WillReturnError(errors.New("timeout"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrReadFailed)

	mock.ExpectQuery(selectValue).WithArgs("k").WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("[]"))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(v))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresKV_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "shortlist_kv"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgresKV(db, "shortlist_kv").EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

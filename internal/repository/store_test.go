package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWithinTxCommits(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(int64(7)).WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(ctx context.Context, st Stores) error {
		return st.Appointments.LockExpert(ctx, 7)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWithinTxRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(context.Context, Stores) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWithinTxCommitExclusionIsConflict(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "23P01"})

	err := store.WithinTx(context.Background(), func(context.Context, Stores) error { return nil })
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestStoreWithinTxBeginFails(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin().WillReturnError(errors.New("pool closed"))

	called := false
	err := store.WithinTx(context.Background(), func(context.Context, Stores) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryFindBookableExpertsByName(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tg := int64(5001)

	mock.ExpectQuery("WHERE u.role = 'EXPERT'").
		WithArgs("Dr. Anna Tran").
		WillReturnRows(pgxmock.NewRows([]string{"id", "telegram_id", "username", "display_name", "role", "created_at"}).
			AddRow(int64(1), &tg, "anna", "Dr. Anna Tran", "EXPERT", at))

	experts, err := repo.FindBookableExpertsByName(context.Background(), "Dr. Anna Tran")
	require.NoError(t, err)
	require.Len(t, experts, 1)
	assert.Equal(t, model.RoleExpert, experts[0].Role)
	require.NotNil(t, experts[0].TelegramID)
	assert.Equal(t, tg, *experts[0].TelegramID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdateMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectExec("UPDATE users").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), &model.User{ID: 9, Role: model.RoleStudent})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

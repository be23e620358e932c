package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appointmentRowColumns = []string{
	"id", "student_id", "expert_id", "start_at", "duration_minutes", "status", "consultation_mode",
	"meeting_link", "location", "notes", "expert_notes", "cancellation_reason", "cancelled_by", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestAppointmentRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	a := &model.Appointment{
		StudentID:        2,
		ExpertID:         1,
		StartAt:          start,
		DurationMinutes:  60,
		Status:           model.AppointmentStatusPending,
		ConsultationMode: model.ConsultationOnline,
	}

	mock.ExpectQuery("INSERT INTO appointments").
		WithArgs(int64(2), int64(1), start, start.Add(time.Hour), 60, "PENDING", "ONLINE", "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), created, created))

	require.NoError(t, repo.Create(context.Background(), a))
	assert.Equal(t, int64(11), a.ID)
	assert.Equal(t, created, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryCreateExclusionViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)

	mock.ExpectQuery("INSERT INTO appointments").
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})

	err := repo.Create(context.Background(), &model.Appointment{
		StudentID: 2, ExpertID: 1, StartAt: time.Now(), DurationMinutes: 60,
		Status: model.AppointmentStatusPending, ConsultationMode: model.ConsultationOnline,
	})
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryGetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	cancelledBy := "STUDENT"

	mock.ExpectQuery("FROM appointments WHERE id = \\$1$").
		WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns).AddRow(
			int64(11), int64(2), int64(1), start, 60, "CANCELLED", "PHONE",
			"", "", "first visit", "", "schedule conflict", &cancelledBy, start, start,
		))

	a, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, model.AppointmentStatusCancelled, a.Status)
	assert.Equal(t, model.ConsultationPhone, a.ConsultationMode)
	assert.Equal(t, model.CancelledByStudent, a.CancelledBy)
	assert.Equal(t, "first visit", a.Notes)

	mock.ExpectQuery("FROM appointments WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(12)).
		WillReturnError(pgx.ErrNoRows)

	missing, err := repo.GetByIDForUpdate(context.Background(), 12)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryUpdateStatus(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	updated := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	a := &model.Appointment{ID: 11, Status: model.AppointmentStatusConfirmed, MeetingLink: "https://meet.example/x"}
	mock.ExpectQuery("UPDATE appointments").
		WithArgs(int64(11), "CONFIRMED", "https://meet.example/x", "", "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))

	require.NoError(t, repo.UpdateStatus(context.Background(), a))
	assert.Equal(t, updated, a.UpdatedAt)

	mock.ExpectQuery("UPDATE appointments").WillReturnError(pgx.ErrNoRows)
	err := repo.UpdateStatus(context.Background(), &model.Appointment{ID: 99, Status: model.AppointmentStatusCancelled})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListActiveOverlapping(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery("status IN \\('PENDING', 'CONFIRMED'\\)").
		WithArgs(int64(1), from, to).
		WillReturnRows(pgxmock.NewRows(appointmentRowColumns).
			AddRow(int64(1), int64(2), int64(1), from.Add(9*time.Hour), 60, "PENDING", "ONLINE", "", "", "", "", "", nil, from, from).
			AddRow(int64(2), int64(3), int64(1), from.Add(11*time.Hour), 45, "CONFIRMED", "IN_PERSON", "", "Room 4", "", "", "", nil, from, from))

	got, err := repo.ListActiveOverlapping(context.Background(), 1, from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Room 4", got[1].Location)
	assert.Equal(t, model.CancelledBy(""), got[0].CancelledBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryLockExpert(t *testing.T) {
	mock := newMock(t)
	repo := NewAppointmentRepository(mock)

	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	require.NoError(t, repo.LockExpert(context.Background(), 1))

	mock.ExpectExec("SELECT pg_advisory_xact_lock").WillReturnError(errors.New("connection reset"))
	assert.Error(t, repo.LockExpert(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

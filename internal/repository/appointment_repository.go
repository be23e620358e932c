package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, student_id, expert_id, start_at, duration_minutes, status, consultation_mode,
	meeting_link, location, notes, expert_notes, cancellation_reason, cancelled_by, created_at, updated_at`

// AppointmentRepository stores committed bookings. Rows are never deleted.
type AppointmentRepository struct {
	q base.Querier
}

func NewAppointmentRepository(q base.Querier) *AppointmentRepository {
	return &AppointmentRepository{q: q}
}

// LockExpert serialises writers for one expert until the surrounding
// transaction ends. Must run inside a transaction.
func (r *AppointmentRepository) LockExpert(ctx context.Context, expertID int64) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, expertID); err != nil {
		return fmt.Errorf("lock expert: %w", err)
	}
	return nil
}

// Create inserts a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (student_id, expert_id, start_at, end_at, duration_minutes, status,
			consultation_mode, meeting_link, location, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(
		ctx, query,
		a.StudentID,
		a.ExpertID,
		a.StartAt,
		a.EndAt(),
		a.DurationMinutes,
		string(a.Status),
		string(a.ConsultationMode),
		a.MeetingLink,
		a.Location,
		a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		if base.IsExclusionViolation(err) {
			return fmt.Errorf("%w: expert already has an appointment in this window", model.ErrConflict)
		}
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

// GetByID returns the appointment or nil
func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.get(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
}

// GetByIDForUpdate row-locks the appointment for the current transaction
func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Appointment, error) {
	return r.get(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
}

func (r *AppointmentRepository) get(ctx context.Context, query string, id int64) (*model.Appointment, error) {
	a, err := scanAppointment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return a, nil
}

// UpdateStatus persists a transition and its side fields
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $2, meeting_link = $3, expert_notes = $4,
			cancellation_reason = $5, cancelled_by = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(
		ctx, query,
		a.ID,
		string(a.Status),
		a.MeetingLink,
		a.ExpertNotes,
		a.CancellationReason,
		cancelledByArg(a.CancelledBy),
	).Scan(&a.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("%w: appointment %d", model.ErrNotFound, a.ID)
		}
		return fmt.Errorf("update appointment status: %w", err)
	}

	return nil
}

// ListActiveOverlapping returns PENDING/CONFIRMED appointments of the expert
// whose range intersects [from, to)
func (r *AppointmentRepository) ListActiveOverlapping(ctx context.Context, expertID int64, from, to time.Time) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE expert_id = $1
		  AND status IN ('PENDING', 'CONFIRMED')
		  AND start_at < $3
		  AND end_at > $2
		ORDER BY start_at
	`
	return r.list(ctx, "list overlapping appointments", query, expertID, from, to)
}

// ListByStudent returns the student's appointments, optionally filtered by status
func (r *AppointmentRepository) ListByStudent(ctx context.Context, studentID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE student_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY start_at DESC
	`
	return r.list(ctx, "list appointments by student", query, studentID, string(status))
}

// ListByExpert returns the expert's appointments, optionally filtered by status
func (r *AppointmentRepository) ListByExpert(ctx context.Context, expertID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE expert_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY start_at DESC
	`
	return r.list(ctx, "list appointments by expert", query, expertID, string(status))
}

// ListConfirmedStartingBetween feeds the reminder scheduler
func (r *AppointmentRepository) ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE status = 'CONFIRMED' AND start_at >= $1 AND start_at < $2
		ORDER BY start_at
	`
	return r.list(ctx, "list upcoming appointments", query, from, to)
}

func (r *AppointmentRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Appointment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var appointments []*model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}

	return appointments, rows.Err()
}

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	var (
		a           model.Appointment
		status      string
		mode        string
		cancelledBy *string
	)
	err := row.Scan(
		&a.ID,
		&a.StudentID,
		&a.ExpertID,
		&a.StartAt,
		&a.DurationMinutes,
		&status,
		&mode,
		&a.MeetingLink,
		&a.Location,
		&a.Notes,
		&a.ExpertNotes,
		&a.CancellationReason,
		&cancelledBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = model.AppointmentStatus(status)
	a.ConsultationMode = model.ConsultationMode(mode)
	if cancelledBy != nil {
		a.CancelledBy = model.CancelledBy(*cancelledBy)
	}
	return &a, nil
}

func cancelledByArg(c model.CancelledBy) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

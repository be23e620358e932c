package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const templateColumns = `id, expert_id, weekday, start_minute, end_minute, is_available,
	max_appointments_per_day, appointment_duration, break_duration, created_at, updated_at`

// AvailabilityRepository stores weekly availability templates
type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(q base.Querier) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: base.NewRepository(q)}
}

// Upsert creates or replaces the template for (expert, weekday)
func (r *AvailabilityRepository) Upsert(ctx context.Context, t *model.AvailabilityTemplate) error {
	query := `
		INSERT INTO availability_templates (expert_id, weekday, start_minute, end_minute, is_available,
			max_appointments_per_day, appointment_duration, break_duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (expert_id, weekday) DO UPDATE SET
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			is_available = EXCLUDED.is_available,
			max_appointments_per_day = EXCLUDED.max_appointments_per_day,
			appointment_duration = EXCLUDED.appointment_duration,
			break_duration = EXCLUDED.break_duration,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.Q().QueryRow(
		ctx, query,
		t.ExpertID,
		int(t.Weekday),
		int(t.StartTime),
		int(t.EndTime),
		t.IsAvailable,
		t.MaxAppointmentsPerDay,
		t.AppointmentDuration,
		t.BreakDuration,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert availability template: %w", err)
	}

	return nil
}

// GetByWeekday returns the expert's template for weekday, or nil
func (r *AvailabilityRepository) GetByWeekday(ctx context.Context, expertID int64, weekday time.Weekday) (*model.AvailabilityTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM availability_templates
		WHERE expert_id = $1 AND weekday = $2
	`

	t, err := scanTemplate(r.Q().QueryRow(ctx, query, expertID, int(weekday)))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability template: %w", err)
	}

	return t, nil
}

// ListByExpert returns all templates of the expert ordered by weekday
func (r *AvailabilityRepository) ListByExpert(ctx context.Context, expertID int64) ([]*model.AvailabilityTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM availability_templates
		WHERE expert_id = $1
		ORDER BY weekday
	`

	rows, err := r.Q().Query(ctx, query, expertID)
	if err != nil {
		return nil, fmt.Errorf("list availability templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.AvailabilityTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// DeleteByWeekday removes the template, returning false if none existed
func (r *AvailabilityRepository) DeleteByWeekday(ctx context.Context, expertID int64, weekday time.Weekday) (bool, error) {
	query := `DELETE FROM availability_templates WHERE expert_id = $1 AND weekday = $2`

	affected, err := r.ExecAffected(ctx, query, expertID, int(weekday))
	if err != nil {
		return false, fmt.Errorf("delete availability template: %w", err)
	}

	return affected > 0, nil
}

func scanTemplate(row pgx.Row) (*model.AvailabilityTemplate, error) {
	var (
		t                model.AvailabilityTemplate
		weekday          int
		startMin, endMin int
	)
	err := row.Scan(
		&t.ID,
		&t.ExpertID,
		&weekday,
		&startMin,
		&endMin,
		&t.IsAvailable,
		&t.MaxAppointmentsPerDay,
		&t.AppointmentDuration,
		&t.BreakDuration,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Weekday = time.Weekday(weekday)
	t.StartTime = model.Clock(startMin)
	t.EndTime = model.Clock(endMin)
	return &t, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const breakColumns = `id, expert_id, break_date, start_minute, end_minute, reason,
	is_recurring, recurring_pattern, created_at, updated_at`

// BreakRepository stores date-scoped and recurring break exceptions
type BreakRepository struct {
	*base.Repository
}

func NewBreakRepository(q base.Querier) *BreakRepository {
	return &BreakRepository{Repository: base.NewRepository(q)}
}

// Create inserts a new break
func (r *BreakRepository) Create(ctx context.Context, b *model.BreakException) error {
	query := `
		INSERT INTO break_exceptions (expert_id, break_date, start_minute, end_minute, reason, is_recurring, recurring_pattern)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.Q().QueryRow(
		ctx, query,
		b.ExpertID,
		b.Date,
		int(b.StartTime),
		int(b.EndTime),
		b.Reason,
		b.IsRecurring,
		patternArg(b.RecurringPattern),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create break exception: %w", err)
	}

	return nil
}

// Update rewrites a break in place
func (r *BreakRepository) Update(ctx context.Context, b *model.BreakException) error {
	query := `
		UPDATE break_exceptions
		SET break_date = $2, start_minute = $3, end_minute = $4, reason = $5,
			is_recurring = $6, recurring_pattern = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.Q().QueryRow(
		ctx, query,
		b.ID,
		b.Date,
		int(b.StartTime),
		int(b.EndTime),
		b.Reason,
		b.IsRecurring,
		patternArg(b.RecurringPattern),
	).Scan(&b.UpdatedAt)

	if err != nil {
		return fmt.Errorf("update break exception: %w", err)
	}

	return nil
}

// GetByID returns the break or nil
func (r *BreakRepository) GetByID(ctx context.Context, id int64) (*model.BreakException, error) {
	query := `SELECT ` + breakColumns + ` FROM break_exceptions WHERE id = $1`

	b, err := scanBreak(r.Q().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get break exception: %w", err)
	}

	return b, nil
}

// ListByExpert returns breaks that may apply within [from, to]. Zero bounds
// are open. Recurring breaks anchored on or before to are always included.
func (r *BreakRepository) ListByExpert(ctx context.Context, expertID int64, from, to time.Time) ([]*model.BreakException, error) {
	query := `SELECT ` + breakColumns + `
		FROM break_exceptions
		WHERE expert_id = $1
		  AND ($3::date IS NULL OR break_date <= $3::date)
		  AND (is_recurring OR $2::date IS NULL OR break_date >= $2::date)
		ORDER BY break_date, start_minute, id
	`

	rows, err := r.Q().Query(ctx, query, expertID, dateArg(from), dateArg(to))
	if err != nil {
		return nil, fmt.Errorf("list break exceptions: %w", err)
	}
	defer rows.Close()

	var breaks []*model.BreakException
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, fmt.Errorf("scan break exception: %w", err)
		}
		breaks = append(breaks, b)
	}

	return breaks, rows.Err()
}

// Delete removes a break, returning false if none existed
func (r *BreakRepository) Delete(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM break_exceptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete break exception: %w", err)
	}

	return affected > 0, nil
}

func scanBreak(row pgx.Row) (*model.BreakException, error) {
	var (
		b                model.BreakException
		startMin, endMin int
		pattern          *string
	)
	err := row.Scan(
		&b.ID,
		&b.ExpertID,
		&b.Date,
		&startMin,
		&endMin,
		&b.Reason,
		&b.IsRecurring,
		&pattern,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartTime = model.Clock(startMin)
	b.EndTime = model.Clock(endMin)
	if pattern != nil {
		b.RecurringPattern = model.RecurringPattern(*pattern)
	}
	return &b, nil
}

func patternArg(p model.RecurringPattern) *string {
	if p == model.RecurringNone {
		return nil
	}
	s := string(p)
	return &s
}

func dateArg(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := model.DateOnly(t)
	return &d
}

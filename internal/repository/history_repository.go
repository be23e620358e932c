package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const historyColumns = `id, appointment_id, action, old_status, new_status, actor_id, actor_role, reason, created_at`

// HistoryRepository is the append-only audit ledger. It has no update or
// delete methods on purpose.
type HistoryRepository struct {
	q base.Querier
}

func NewHistoryRepository(q base.Querier) *HistoryRepository {
	return &HistoryRepository{q: q}
}

// Append writes one ledger row
func (r *HistoryRepository) Append(ctx context.Context, h *model.AppointmentHistory) error {
	query := `
		INSERT INTO appointment_history (appointment_id, action, old_status, new_status, actor_id, actor_role, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	var oldStatus *string
	if h.OldStatus != "" {
		s := string(h.OldStatus)
		oldStatus = &s
	}

	err := r.q.QueryRow(
		ctx, query,
		h.AppointmentID,
		string(h.Action),
		oldStatus,
		string(h.NewStatus),
		h.ActorID,
		string(h.ActorRole),
		h.Reason,
	).Scan(&h.ID, &h.CreatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate history row for appointment %d", model.ErrConflict, h.AppointmentID)
		}
		return fmt.Errorf("append appointment history: %w", err)
	}

	return nil
}

// ListByAppointment returns the ledger of one appointment, oldest first
func (r *HistoryRepository) ListByAppointment(ctx context.Context, appointmentID int64) ([]*model.AppointmentHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM appointment_history
		WHERE appointment_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, "list history by appointment", query, appointmentID)
}

// ListByActor returns every row written by the actor, oldest first
func (r *HistoryRepository) ListByActor(ctx context.Context, actorID int64) ([]*model.AppointmentHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM appointment_history
		WHERE actor_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, "list history by actor", query, actorID)
}

func (r *HistoryRepository) list(ctx context.Context, op, query string, arg int64) ([]*model.AppointmentHistory, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var entries []*model.AppointmentHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment history: %w", err)
		}
		entries = append(entries, h)
	}

	return entries, rows.Err()
}

func scanHistory(row pgx.Row) (*model.AppointmentHistory, error) {
	var (
		h         model.AppointmentHistory
		action    string
		oldStatus *string
		newStatus string
		role      string
	)
	err := row.Scan(
		&h.ID,
		&h.AppointmentID,
		&action,
		&oldStatus,
		&newStatus,
		&h.ActorID,
		&role,
		&h.Reason,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Action = model.HistoryAction(action)
	h.NewStatus = model.AppointmentStatus(newStatus)
	h.ActorRole = model.Role(role)
	if oldStatus != nil {
		h.OldStatus = model.AppointmentStatus(*oldStatus)
	}
	return &h, nil
}

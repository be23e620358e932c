package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository/base"
)

// TemplateStore persists weekly availability.
type TemplateStore interface {
	Upsert(ctx context.Context, t *model.AvailabilityTemplate) error
	GetByWeekday(ctx context.Context, expertID int64, weekday time.Weekday) (*model.AvailabilityTemplate, error)
	ListByExpert(ctx context.Context, expertID int64) ([]*model.AvailabilityTemplate, error)
	DeleteByWeekday(ctx context.Context, expertID int64, weekday time.Weekday) (bool, error)
}

// BreakStore persists break exceptions.
type BreakStore interface {
	Create(ctx context.Context, b *model.BreakException) error
	Update(ctx context.Context, b *model.BreakException) error
	GetByID(ctx context.Context, id int64) (*model.BreakException, error)
	ListByExpert(ctx context.Context, expertID int64, from, to time.Time) ([]*model.BreakException, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// AppointmentStore persists bookings.
type AppointmentStore interface {
	LockExpert(ctx context.Context, expertID int64) error
	Create(ctx context.Context, a *model.Appointment) error
	GetByID(ctx context.Context, id int64) (*model.Appointment, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Appointment, error)
	UpdateStatus(ctx context.Context, a *model.Appointment) error
	ListActiveOverlapping(ctx context.Context, expertID int64, from, to time.Time) ([]*model.Appointment, error)
	ListByStudent(ctx context.Context, studentID int64, status model.AppointmentStatus) ([]*model.Appointment, error)
	ListByExpert(ctx context.Context, expertID int64, status model.AppointmentStatus) ([]*model.Appointment, error)
	ListConfirmedStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
}

// HistoryStore is append-only.
type HistoryStore interface {
	Append(ctx context.Context, h *model.AppointmentHistory) error
	ListByAppointment(ctx context.Context, appointmentID int64) ([]*model.AppointmentHistory, error)
	ListByActor(ctx context.Context, actorID int64) ([]*model.AppointmentHistory, error)
}

// UserStore backs identity lookups and expert name resolution.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	FindBookableExpertsByName(ctx context.Context, name string) ([]*model.User, error)
}

// Stores groups repositories bound to one querier (pool or transaction).
type Stores struct {
	Templates    TemplateStore
	Breaks       BreakStore
	Appointments AppointmentStore
	History      HistoryStore
	Users        UserStore
}

// NewStores binds every repository to q.
func NewStores(q base.Querier) Stores {
	return Stores{
		Templates:    NewAvailabilityRepository(q),
		Breaks:       NewBreakRepository(q),
		Appointments: NewAppointmentRepository(q),
		History:      NewHistoryRepository(q),
		Users:        NewUserRepository(q),
	}
}

// TxRunner runs fn as one unit of work.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// Store hands out pool-bound repositories and runs transactions
type Store struct {
	db base.DB
	Stores
}

func NewStore(db base.DB) *Store {
	return &Store{db: db, Stores: NewStores(db)}
}

// WithinTx commits when fn returns nil and rolls back otherwise
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st Stores) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, NewStores(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if base.IsExclusionViolation(err) {
			return fmt.Errorf("%w: overlapping appointment committed concurrently", model.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
)

// HistoryService reads the appointment audit ledger. Writes happen only
// inside BookingService transitions.
type HistoryService struct {
	history      repository.HistoryStore
	appointments repository.AppointmentStore
}

func NewHistoryService(history repository.HistoryStore, appointments repository.AppointmentStore) *HistoryService {
	return &HistoryService{
		history:      history,
		appointments: appointments,
	}
}

// ByAppointment returns the ledger of one appointment, oldest first
func (s *HistoryService) ByAppointment(ctx context.Context, actor model.Actor, appointmentID int64) ([]*model.AppointmentHistory, error) {
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, notFoundError("appointment %d", appointmentID)
	}
	if !canView(actor, appointment) {
		return nil, permissionError("appointment %d is not visible to this user", appointmentID)
	}

	entries, err := s.history.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// ByActor returns every transition performed by actorID, oldest first
func (s *HistoryService) ByActor(ctx context.Context, actor model.Actor, actorID int64) ([]*model.AppointmentHistory, error) {
	if actor.UserID != actorID && actor.Role != model.RoleAdmin && !actor.IsSystem() {
		return nil, permissionError("cannot read another user's history")
	}

	entries, err := s.history.ListByActor(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"go.uber.org/zap"
)

// ReminderService emits reminder-due events for confirmed appointments.
// Delivery and de-duplication belong to the publisher.
type ReminderService struct {
	appointments repository.AppointmentStore
	publisher    EventPublisher
	lead         time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewReminderService(appointments repository.AppointmentStore, publisher EventPublisher, lead time.Duration, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		appointments: appointments,
		publisher:    publisher,
		lead:         lead,
		now:          time.Now,
		logger:       logger,
	}
}

// EmitDue publishes one event per confirmed appointment starting within the
// lead window and returns how many were handed over.
func (s *ReminderService) EmitDue(ctx context.Context) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}

	now := s.now()
	due, err := s.appointments.ListConfirmedStartingBetween(ctx, now, now.Add(s.lead))
	if err != nil {
		return 0, fmt.Errorf("list due appointments: %w", err)
	}

	published := 0
	for _, a := range due {
		if err := s.publisher.Publish(ctx, model.NewAppointmentEvent(model.EventReminderDue, a, now)); err != nil {
			s.logger.Error("Failed to publish reminder",
				zap.Int64("appointment_id", a.ID),
				zap.Error(err),
			)
			continue
		}
		published++
	}

	return published, nil
}

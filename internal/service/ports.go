package service

import (
	"context"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// EventPublisher is the notification dispatcher port. Delivery guarantees
// belong to the implementation; the core only hands events over.
type EventPublisher interface {
	Publish(ctx context.Context, evt model.AppointmentEvent) error
}

// MeetingProvider fills the meeting link of a confirmed appointment.
type MeetingProvider interface {
	MeetingLink(ctx context.Context, a *model.Appointment) (string, error)
}

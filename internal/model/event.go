package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAppointmentCreated   EventType = "appointment.created"
	EventAppointmentConfirmed EventType = "appointment.confirmed"
	EventAppointmentCancelled EventType = "appointment.cancelled"
	EventAppointmentCompleted EventType = "appointment.completed"
	EventAppointmentNoShow    EventType = "appointment.no_show"
	EventReminderDue          EventType = "appointment.reminder_due"
)

// AppointmentEvent is handed to the notification dispatcher.
type AppointmentEvent struct {
	ID            uuid.UUID         `json:"id"`
	Type          EventType         `json:"type"`
	AppointmentID int64             `json:"appointment_id"`
	StudentID     int64             `json:"student_id"`
	ExpertID      int64             `json:"expert_id"`
	Status        AppointmentStatus `json:"status"`
	StartAt       time.Time         `json:"start_at"`
	Reason        string            `json:"reason,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewAppointmentEvent snapshots a for the given event type.
func NewAppointmentEvent(t EventType, a *Appointment, at time.Time) AppointmentEvent {
	return AppointmentEvent{
		ID:            uuid.New(),
		Type:          t,
		AppointmentID: a.ID,
		StudentID:     a.StudentID,
		ExpertID:      a.ExpertID,
		Status:        a.Status,
		StartAt:       a.StartAt,
		Reason:        a.CancellationReason,
		OccurredAt:    at,
	}
}

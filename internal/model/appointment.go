package model

import "time"

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "PENDING"
	AppointmentStatusConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
)

// IsActive reports whether the status still holds the expert's time.
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusPending || s == AppointmentStatusConfirmed
}

// IsTerminal reports whether no further transition is allowed.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted || s == AppointmentStatusNoShow
}

// ParseAppointmentStatus returns false for unknown values.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	switch st := AppointmentStatus(s); st {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled,
		AppointmentStatusCompleted, AppointmentStatusNoShow:
		return st, true
	}
	return "", false
}

type ConsultationMode string

const (
	ConsultationOnline   ConsultationMode = "ONLINE"
	ConsultationPhone    ConsultationMode = "PHONE"
	ConsultationInPerson ConsultationMode = "IN_PERSON"
)

func (m ConsultationMode) Valid() bool {
	return m == ConsultationOnline || m == ConsultationPhone || m == ConsultationInPerson
}

type CancelledBy string

const (
	CancelledByStudent CancelledBy = "STUDENT"
	CancelledByExpert  CancelledBy = "EXPERT"
	CancelledBySystem  CancelledBy = "SYSTEM"
)

type Appointment struct {
	ID                 int64             `json:"id"`
	StudentID          int64             `json:"student_id"`
	ExpertID           int64             `json:"expert_id"`
	StartAt            time.Time         `json:"start_at"`
	DurationMinutes    int               `json:"duration_minutes"`
	Status             AppointmentStatus `json:"status"`
	ConsultationMode   ConsultationMode  `json:"consultation_mode"`
	MeetingLink        string            `json:"meeting_link,omitempty"`
	Location           string            `json:"location,omitempty"`
	Notes              string            `json:"notes,omitempty"`
	ExpertNotes        string            `json:"expert_notes,omitempty"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CancelledBy        CancelledBy       `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// EndAt is the exclusive end of the appointment.
func (a *Appointment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

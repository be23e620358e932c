package model

import "time"

// HistoryAction names the transition recorded in the audit ledger.
type HistoryAction string

const (
	HistoryActionCreated   HistoryAction = "CREATED"
	HistoryActionConfirmed HistoryAction = "CONFIRMED"
	HistoryActionCancelled HistoryAction = "CANCELLED"
	HistoryActionCompleted HistoryAction = "COMPLETED"
	HistoryActionNoShow    HistoryAction = "NO_SHOW"
)

// AppointmentHistory is one append-only ledger row. OldStatus is empty for
// CREATED rows; ActorID is nil when the system acted.
type AppointmentHistory struct {
	ID            int64             `json:"id"`
	AppointmentID int64             `json:"appointment_id"`
	Action        HistoryAction     `json:"action"`
	OldStatus     AppointmentStatus `json:"old_status,omitempty"`
	NewStatus     AppointmentStatus `json:"new_status"`
	ActorID       *int64            `json:"actor_id"`
	ActorRole     Role              `json:"actor_role"`
	Reason        string            `json:"reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

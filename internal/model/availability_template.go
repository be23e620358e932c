package model

import (
	"fmt"
	"time"
)

// AvailabilityTemplate is an expert's recurring working window for one weekday.
type AvailabilityTemplate struct {
	ID                    int64        `json:"id"`
	ExpertID              int64        `json:"expert_id"`
	Weekday               time.Weekday `json:"weekday"` // 0 = Sunday, 6 = Saturday
	StartTime             Clock        `json:"start_time"`
	EndTime               Clock        `json:"end_time"`
	IsAvailable           bool         `json:"is_available"`
	MaxAppointmentsPerDay int          `json:"max_appointments_per_day"`
	AppointmentDuration   int          `json:"appointment_duration"` // minutes
	BreakDuration         int          `json:"break_duration"`       // minutes between slots
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// Validate checks the window and durations.
func (t *AvailabilityTemplate) Validate() error {
	if t.Weekday < time.Sunday || t.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday must be 0..6", ErrValidation)
	}
	if !t.StartTime.Valid() || !t.EndTime.Valid() {
		return fmt.Errorf("%w: time of day out of range", ErrValidation)
	}
	if t.StartTime >= t.EndTime {
		return fmt.Errorf("%w: start time must be before end time", ErrValidation)
	}
	if t.AppointmentDuration <= 0 {
		return fmt.Errorf("%w: appointment duration must be positive", ErrValidation)
	}
	if t.BreakDuration <= 0 {
		return fmt.Errorf("%w: break duration must be positive", ErrValidation)
	}
	if t.MaxAppointmentsPerDay <= 0 {
		return fmt.Errorf("%w: max appointments per day must be positive", ErrValidation)
	}
	return nil
}

// Contains reports whether [start, end) lies inside the window on start's date.
func (t *AvailabilityTemplate) Contains(start, end time.Time) bool {
	if !t.IsAvailable || start.Weekday() != t.Weekday || !SameDate(start, end.Add(-time.Nanosecond)) {
		return false
	}
	windowStart := t.StartTime.On(start)
	windowEnd := t.EndTime.On(start)
	return !start.Before(windowStart) && !end.After(windowEnd)
}

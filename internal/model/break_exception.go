package model

import (
	"fmt"
	"time"
)

type RecurringPattern string

const (
	RecurringNone    RecurringPattern = ""
	RecurringWeekly  RecurringPattern = "WEEKLY"
	RecurringMonthly RecurringPattern = "MONTHLY"
	RecurringYearly  RecurringPattern = "YEARLY"
)

// BreakException blocks part of a day that the template would otherwise offer.
type BreakException struct {
	ID               int64            `json:"id"`
	ExpertID         int64            `json:"expert_id"`
	Date             time.Time        `json:"date"` // anchor date for recurring breaks
	StartTime        Clock            `json:"start_time"`
	EndTime          Clock            `json:"end_time"`
	Reason           string           `json:"reason"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurringPattern RecurringPattern `json:"recurring_pattern,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (b *BreakException) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("%w: break date is required", ErrValidation)
	}
	if !b.StartTime.Valid() || !b.EndTime.Valid() {
		return fmt.Errorf("%w: time of day out of range", ErrValidation)
	}
	if b.StartTime >= b.EndTime {
		return fmt.Errorf("%w: break start must be before end", ErrValidation)
	}
	if !b.IsRecurring {
		if b.RecurringPattern != RecurringNone {
			return fmt.Errorf("%w: recurring pattern set on a one-off break", ErrValidation)
		}
		return nil
	}
	switch b.RecurringPattern {
	case RecurringWeekly, RecurringMonthly, RecurringYearly:
		return nil
	default:
		return fmt.Errorf("%w: unknown recurring pattern %q", ErrValidation, b.RecurringPattern)
	}
}

// AppliesOn projects the break onto date: an exact date match, or a recurring
// pattern repeating on or after the anchor date.
func (b *BreakException) AppliesOn(date time.Time) bool {
	if SameDate(b.Date, date) {
		return true
	}
	if !b.IsRecurring {
		return false
	}
	anchor := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(anchor) {
		return false
	}
	switch b.RecurringPattern {
	case RecurringWeekly:
		return anchor.Weekday() == day.Weekday()
	case RecurringMonthly:
		return anchor.Day() == day.Day()
	case RecurringYearly:
		return anchor.Month() == day.Month() && anchor.Day() == day.Day()
	}
	return false
}

// Blocks reports whether [start, end) intersects the break on start's date.
func (b *BreakException) Blocks(start, end time.Time) bool {
	if !b.AppliesOn(start) {
		return false
	}
	return Overlaps(start, end, b.StartTime.On(start), b.EndTime.On(start))
}

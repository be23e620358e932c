package model

import "time"

// Slot is a bookable window; advisory only until a booking commits.
type Slot struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

// DaySlots groups slots of one date for range queries.
type DaySlots struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

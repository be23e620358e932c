package service

import (
	"sort"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
)

// ComputeSlots derives the open slots for one date from already loaded
// records. date must carry the platform location. duration <= 0 falls back
// to the template's appointment duration.
//
// Candidates start at the window start and advance by duration plus the
// template break; generation stops once a candidate would overrun the window
// or max-per-day candidates were produced. Candidates touching an applicable
// break or an active appointment are then dropped.
func ComputeSlots(
	template *model.AvailabilityTemplate,
	breaks []*model.BreakException,
	appointments []*model.Appointment,
	date time.Time,
	duration int,
) []model.Slot {
	slots := []model.Slot{}
	if template == nil || !template.IsAvailable || template.Weekday != date.Weekday() {
		return slots
	}
	if duration <= 0 {
		duration = template.AppointmentDuration
	}

	length := time.Duration(duration) * time.Minute
	step := time.Duration(duration+template.BreakDuration) * time.Minute
	windowStart := template.StartTime.On(date)
	windowEnd := template.EndTime.On(date)

	var dayBreaks []*model.BreakException
	for _, b := range breaks {
		if b.AppliesOn(date) {
			dayBreaks = append(dayBreaks, b)
		}
	}

	candidates := 0
	for start := windowStart; !start.Add(length).After(windowEnd); start = start.Add(step) {
		if candidates >= template.MaxAppointmentsPerDay {
			break
		}
		candidates++

		end := start.Add(length)
		if blockedByBreak(dayBreaks, start, end) || blockedByAppointment(appointments, template.ExpertID, start, end) {
			continue
		}
		slots = append(slots, model.Slot{StartAt: start, EndAt: end})
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartAt.Before(slots[j].StartAt) })
	return slots
}

// onSlotGrid reports whether start is one of the candidate starts ComputeSlots
// generates for the template on start's date, before exclusions.
func onSlotGrid(template *model.AvailabilityTemplate, start time.Time, duration int) bool {
	if duration <= 0 {
		duration = template.AppointmentDuration
	}
	step := time.Duration(duration+template.BreakDuration) * time.Minute
	if step <= 0 {
		return false
	}
	offset := start.Sub(template.StartTime.On(start))
	if offset < 0 || offset%step != 0 {
		return false
	}
	return int(offset/step) < template.MaxAppointmentsPerDay
}

func blockedByBreak(breaks []*model.BreakException, start, end time.Time) bool {
	for _, b := range breaks {
		if b.Blocks(start, end) {
			return true
		}
	}
	return false
}

func blockedByAppointment(appointments []*model.Appointment, expertID int64, start, end time.Time) bool {
	for _, a := range appointments {
		if a.ExpertID != expertID || !a.Status.IsActive() {
			continue
		}
		if model.Overlaps(start, end, a.StartAt, a.EndAt()) {
			return true
		}
	}
	return false
}

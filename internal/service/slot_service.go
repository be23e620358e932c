package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/metrics"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"go.uber.org/zap"
)

// MaxSlotRangeDays bounds range queries.
const MaxSlotRangeDays = 31

// SlotService answers "which windows are open" for an expert. Results are
// advisory: booking re-checks everything atomically.
type SlotService struct {
	templates    repository.TemplateStore
	breaks       repository.BreakStore
	appointments repository.AppointmentStore
	metrics      *metrics.BookingMetrics
	loc          *time.Location
	logger       *zap.Logger
}

func NewSlotService(
	templates repository.TemplateStore,
	breaks repository.BreakStore,
	appointments repository.AppointmentStore,
	m *metrics.BookingMetrics,
	loc *time.Location,
	logger *zap.Logger,
) *SlotService {
	if loc == nil {
		loc = time.UTC
	}
	return &SlotService{
		templates:    templates,
		breaks:       breaks,
		appointments: appointments,
		metrics:      m,
		loc:          loc,
		logger:       logger,
	}
}

// Location is the zone wall-clock times are interpreted in
func (s *SlotService) Location() *time.Location {
	return s.loc
}

// OpenSlots returns open slots for expert on date, ordered by start
func (s *SlotService) OpenSlots(ctx context.Context, expertID int64, date time.Time, duration int) ([]model.Slot, error) {
	started := time.Now()
	slots, err := s.openSlots(ctx, expertID, model.DateIn(date, s.loc), duration)
	s.metrics.ObserveSlotQuery(model.Kind(err), time.Since(started).Seconds())
	return slots, err
}

// OpenSlotsInRange returns open slots per date for [from, to], inclusive
func (s *SlotService) OpenSlotsInRange(ctx context.Context, expertID int64, from, to time.Time, duration int) ([]model.DaySlots, error) {
	from = model.DateIn(from, s.loc)
	to = model.DateIn(to, s.loc)
	if to.Before(from) {
		return nil, validationError("range end before start")
	}
	if days := calendarDays(from, to); days > MaxSlotRangeDays {
		return nil, validationError("range spans %d days, at most %d allowed", days, MaxSlotRangeDays)
	}

	var result []model.DaySlots
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		slots, err := s.OpenSlots(ctx, expertID, day, duration)
		if err != nil {
			return nil, err
		}
		result = append(result, model.DaySlots{
			Date:  day.Format(time.DateOnly),
			Slots: slots,
		})
	}

	return result, nil
}

// IsOpen reports whether a slot starting exactly at start is currently open
func (s *SlotService) IsOpen(ctx context.Context, expertID int64, start time.Time, duration int) (bool, error) {
	start = start.In(s.loc)
	slots, err := s.OpenSlots(ctx, expertID, start, duration)
	if err != nil {
		return false, err
	}
	for _, slot := range slots {
		if slot.StartAt.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *SlotService) openSlots(ctx context.Context, expertID int64, date time.Time, duration int) ([]model.Slot, error) {
	if duration < 0 {
		return nil, validationError("duration must be positive")
	}

	template, err := s.templates.GetByWeekday(ctx, expertID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if template == nil || !template.IsAvailable {
		return []model.Slot{}, nil
	}

	breaks, err := s.breaks.ListByExpert(ctx, expertID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}

	appointments, err := s.appointments.ListActiveOverlapping(ctx, expertID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	slots := ComputeSlots(template, breaks, appointments, date, duration)

	s.logger.Debug("Open slots computed",
		zap.Int64("expert_id", expertID),
		zap.String("date", date.Format(time.DateOnly)),
		zap.Int("duration", duration),
		zap.Int("slots", len(slots)),
	)

	return slots, nil
}

// calendarDays counts the dates in [from, to] independent of DST shifts.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start)/(24*time.Hour)) + 1
}

package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/counseling_scheduler/internal/metrics"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"go.uber.org/zap"
)

// AutoBookRequest is a loosely specified booking request
type AutoBookRequest struct {
	StudentID        int64
	ExpertName       string
	Date             string
	Time             string
	DurationMinutes  int
	ConsultationMode model.ConsultationMode
	Notes            string
}

// AutoBookingService resolves free-text requests into concrete bookings. It
// never writes directly: the booking gate re-checks everything.
type AutoBookingService struct {
	users    repository.UserStore
	slots    *SlotService
	bookings *BookingService
	metrics  *metrics.BookingMetrics
	logger   *zap.Logger
}

func NewAutoBookingService(
	users repository.UserStore,
	slots *SlotService,
	bookings *BookingService,
	m *metrics.BookingMetrics,
	logger *zap.Logger,
) *AutoBookingService {
	return &AutoBookingService{
		users:    users,
		slots:    slots,
		bookings: bookings,
		metrics:  m,
		logger:   logger,
	}
}

// AutoBook books on behalf of the requesting student
func (s *AutoBookingService) AutoBook(ctx context.Context, actor model.Actor, req AutoBookRequest) (*model.Appointment, error) {
	appointment, err := s.autoBook(ctx, actor, req)
	s.metrics.ObserveAutoBook(model.Kind(err))
	if err != nil {
		s.logger.Info("Auto-booking failed",
			zap.Int64("student_id", req.StudentID),
			zap.String("expert_name", req.ExpertName),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
			zap.String("kind", model.Kind(err)),
			zap.Error(err),
		)
		return nil, err
	}
	return appointment, nil
}

func (s *AutoBookingService) autoBook(ctx context.Context, actor model.Actor, req AutoBookRequest) (*model.Appointment, error) {
	if !(actor.Role == model.RoleStudent && actor.UserID == req.StudentID) && !actor.IsSystem() {
		return nil, permissionError("auto-booking is only available to the requesting student")
	}
	if req.DurationMinutes < 0 {
		return nil, validationError("duration must be positive")
	}

	expert, err := s.ResolveExpert(ctx, req.ExpertName)
	if err != nil {
		return nil, err
	}

	start, err := ParseAutoBookDateTime(req.Date, req.Time, s.slots.Location())
	if err != nil {
		return nil, err
	}

	open, err := s.slots.IsOpen(ctx, expert.ID, start, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, conflictError("%s has no open slot at %s", expert.DisplayName, start.Format("2006-01-02 15:04"))
	}

	return s.bookings.createOnBehalf(ctx, CreateAppointmentInput{
		StudentID:        req.StudentID,
		ExpertID:         expert.ID,
		StartAt:          start,
		DurationMinutes:  req.DurationMinutes,
		ConsultationMode: req.ConsultationMode,
		Notes:            req.Notes,
	}, fmt.Sprintf("auto-booked for student %d", req.StudentID))
}

// ResolveExpert finds exactly one bookable expert by display name
func (s *AutoBookingService) ResolveExpert(ctx context.Context, name string) (*model.User, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, notFoundError("expert name is empty")
	}

	experts, err := s.users.FindBookableExpertsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("find experts: %w", err)
	}

	switch len(experts) {
	case 0:
		return nil, notFoundError("no bookable expert named %q", name)
	case 1:
		return experts[0], nil
	default:
		return nil, notFoundError("%d experts match %q", len(experts), name)
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/metrics"
	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"go.uber.org/zap"
)

// Action is a requested appointment transition
type Action string

const (
	ActionCreate   Action = "create"
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
	ActionNoShow   Action = "no_show"
)

type transitionRule struct {
	from    []model.AppointmentStatus
	to      model.AppointmentStatus
	history model.HistoryAction
	event   model.EventType
}

var transitionRules = map[Action]transitionRule{
	ActionCreate: {
		to:      model.AppointmentStatusPending,
		history: model.HistoryActionCreated,
		event:   model.EventAppointmentCreated,
	},
	ActionConfirm: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending},
		to:      model.AppointmentStatusConfirmed,
		history: model.HistoryActionConfirmed,
		event:   model.EventAppointmentConfirmed,
	},
	ActionCancel: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusConfirmed},
		to:      model.AppointmentStatusCancelled,
		history: model.HistoryActionCancelled,
		event:   model.EventAppointmentCancelled,
	},
	ActionComplete: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusConfirmed},
		to:      model.AppointmentStatusCompleted,
		history: model.HistoryActionCompleted,
		event:   model.EventAppointmentCompleted,
	},
	ActionNoShow: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusConfirmed},
		to:      model.AppointmentStatusNoShow,
		history: model.HistoryActionNoShow,
		event:   model.EventAppointmentNoShow,
	},
}

// CreateAppointmentInput describes a booking request. DurationMinutes <= 0
// uses the template duration; an empty mode means ONLINE.
type CreateAppointmentInput struct {
	StudentID        int64
	ExpertID         int64
	StartAt          time.Time
	DurationMinutes  int
	ConsultationMode model.ConsultationMode
	Location         string
	Notes            string
}

type transitionRequest struct {
	action        Action
	appointmentID int64
	create        *CreateAppointmentInput
	reason        string
}

// BookingService is the only gate for appointment status changes. Every
// successful transition writes exactly one history row in the same
// transaction as the status change.
type BookingService struct {
	tx        repository.TxRunner
	stores    repository.Stores
	publisher EventPublisher
	meetings  MeetingProvider
	metrics   *metrics.BookingMetrics
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewBookingService(
	tx repository.TxRunner,
	stores repository.Stores,
	publisher EventPublisher,
	meetings MeetingProvider,
	m *metrics.BookingMetrics,
	loc *time.Location,
	logger *zap.Logger,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		tx:        tx,
		stores:    stores,
		publisher: publisher,
		meetings:  meetings,
		metrics:   m,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// SetClock replaces the time source
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// Create books a new PENDING appointment
func (s *BookingService) Create(ctx context.Context, actor model.Actor, in CreateAppointmentInput) (*model.Appointment, error) {
	return s.apply(ctx, actor, transitionRequest{action: ActionCreate, create: &in})
}

// createOnBehalf is used by auto-booking to record why the system acted
func (s *BookingService) createOnBehalf(ctx context.Context, in CreateAppointmentInput, reason string) (*model.Appointment, error) {
	return s.apply(ctx, model.SystemActor, transitionRequest{action: ActionCreate, create: &in, reason: reason})
}

// Confirm moves PENDING to CONFIRMED; owning expert only
func (s *BookingService) Confirm(ctx context.Context, actor model.Actor, appointmentID int64) (*model.Appointment, error) {
	return s.apply(ctx, actor, transitionRequest{action: ActionConfirm, appointmentID: appointmentID})
}

// Cancel moves an active appointment to CANCELLED; a reason is required
func (s *BookingService) Cancel(ctx context.Context, actor model.Actor, appointmentID int64, reason string) (*model.Appointment, error) {
	return s.apply(ctx, actor, transitionRequest{action: ActionCancel, appointmentID: appointmentID, reason: reason})
}

// Complete marks an active appointment as held
func (s *BookingService) Complete(ctx context.Context, actor model.Actor, appointmentID int64, reason string) (*model.Appointment, error) {
	return s.apply(ctx, actor, transitionRequest{action: ActionComplete, appointmentID: appointmentID, reason: reason})
}

// MarkNoShow marks an active appointment as missed by the student
func (s *BookingService) MarkNoShow(ctx context.Context, actor model.Actor, appointmentID int64, reason string) (*model.Appointment, error) {
	return s.apply(ctx, actor, transitionRequest{action: ActionNoShow, appointmentID: appointmentID, reason: reason})
}

func (s *BookingService) apply(ctx context.Context, actor model.Actor, req transitionRequest) (*model.Appointment, error) {
	rule, ok := transitionRules[req.action]
	if !ok {
		return nil, validationError("unknown action %q", req.action)
	}

	var result *model.Appointment
	err := s.validateRequest(actor, req)
	if err == nil {
		err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Stores) error {
			var (
				appointment *model.Appointment
				oldStatus   model.AppointmentStatus
				err         error
			)

			if req.action == ActionCreate {
				appointment, err = s.insert(ctx, st, req.create)
			} else {
				appointment, oldStatus, err = s.transition(ctx, st, actor, req, rule)
			}
			if err != nil {
				return err
			}

			entry := &model.AppointmentHistory{
				AppointmentID: appointment.ID,
				Action:        rule.history,
				OldStatus:     oldStatus,
				NewStatus:     appointment.Status,
				ActorID:       actor.ActorID(),
				ActorRole:     actor.Role,
				Reason:        req.reason,
			}
			if err := st.History.Append(ctx, entry); err != nil {
				return fmt.Errorf("append history: %w", err)
			}

			result = appointment
			return nil
		})
	}

	s.metrics.ObserveTransition(string(req.action), model.Kind(err))
	if err != nil {
		s.logger.Warn("Appointment transition rejected",
			zap.String("action", string(req.action)),
			zap.Int64("appointment_id", req.appointmentID),
			zap.Int64("actor_id", actor.UserID),
			zap.String("actor_role", string(actor.Role)),
			zap.String("kind", model.Kind(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Appointment transition applied",
		zap.String("action", string(req.action)),
		zap.Int64("appointment_id", result.ID),
		zap.Int64("expert_id", result.ExpertID),
		zap.Int64("student_id", result.StudentID),
		zap.String("status", string(result.Status)),
		zap.String("actor_role", string(actor.Role)),
	)

	s.publish(ctx, model.NewAppointmentEvent(rule.event, result, s.now()))

	return result, nil
}

// validateRequest checks input that does not need stored state
func (s *BookingService) validateRequest(actor model.Actor, req transitionRequest) error {
	switch req.action {
	case ActionCreate:
		in := req.create
		switch {
		case actor.IsSystem():
		case actor.Role == model.RoleStudent && actor.UserID != 0 && actor.UserID == in.StudentID:
		default:
			return permissionError("only the student or the system may book")
		}
		if in.StudentID == 0 || in.ExpertID == 0 {
			return validationError("student and expert are required")
		}
		if in.StartAt.IsZero() {
			return validationError("start time is required")
		}
		if in.DurationMinutes < 0 {
			return validationError("duration must be positive")
		}
		if in.ConsultationMode == "" {
			in.ConsultationMode = model.ConsultationOnline
		}
		if !in.ConsultationMode.Valid() {
			return validationError("unknown consultation mode %q", in.ConsultationMode)
		}
		if in.StartAt.Before(s.now()) {
			return validationError("start time is in the past")
		}
	case ActionCancel:
		if strings.TrimSpace(req.reason) == "" {
			return validationError("cancellation reason is required")
		}
	}
	return nil
}

// insert re-validates the window under the expert lock and inserts the row
func (s *BookingService) insert(ctx context.Context, st repository.Stores, in *CreateAppointmentInput) (*model.Appointment, error) {
	expert, err := st.Users.GetByID(ctx, in.ExpertID)
	if err != nil {
		return nil, fmt.Errorf("get expert: %w", err)
	}
	if expert == nil || expert.Role != model.RoleExpert {
		return nil, notFoundError("expert %d", in.ExpertID)
	}
	student, err := st.Users.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, notFoundError("student %d", in.StudentID)
	}

	if err := st.Appointments.LockExpert(ctx, in.ExpertID); err != nil {
		return nil, err
	}

	start := in.StartAt.In(s.loc)
	day := model.DateOnly(start)

	template, err := st.Templates.GetByWeekday(ctx, in.ExpertID, start.Weekday())
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if template == nil || !template.IsAvailable {
		return nil, validationError("expert is not available on %s", start.Weekday())
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = template.AppointmentDuration
	}

	appointment := &model.Appointment{
		StudentID:        in.StudentID,
		ExpertID:         in.ExpertID,
		StartAt:          start,
		DurationMinutes:  duration,
		Status:           model.AppointmentStatusPending,
		ConsultationMode: in.ConsultationMode,
		Location:         in.Location,
		Notes:            in.Notes,
	}
	end := appointment.EndAt()

	if !template.Contains(start, end) {
		return nil, validationError("requested time %s-%s is outside availability %s-%s",
			start.Format("15:04"), end.Format("15:04"), template.StartTime, template.EndTime)
	}

	breaks, err := st.Breaks.ListByExpert(ctx, in.ExpertID, day, day)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	if blockedByBreak(breaks, start, end) {
		return nil, conflictError("requested time overlaps a break")
	}

	sameDay, err := st.Appointments.ListActiveOverlapping(ctx, in.ExpertID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if blockedByAppointment(sameDay, in.ExpertID, start, end) {
		return nil, conflictError("expert already has an appointment at %s", start.Format(time.DateTime))
	}
	if len(sameDay) >= template.MaxAppointmentsPerDay {
		return nil, conflictError("expert is fully booked on %s", day.Format(time.DateOnly))
	}
	if !onSlotGrid(template, start, duration) {
		return nil, validationError("requested time %s is not a slot start", start.Format("15:04"))
	}

	if err := st.Appointments.Create(ctx, appointment); err != nil {
		return nil, err
	}

	return appointment, nil
}

// transition authorizes and applies a status change to a stored appointment
func (s *BookingService) transition(
	ctx context.Context,
	st repository.Stores,
	actor model.Actor,
	req transitionRequest,
	rule transitionRule,
) (*model.Appointment, model.AppointmentStatus, error) {
	appointment, err := st.Appointments.GetByIDForUpdate(ctx, req.appointmentID)
	if err != nil {
		return nil, "", fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, "", notFoundError("appointment %d", req.appointmentID)
	}

	if err := authorize(actor, appointment, req.action); err != nil {
		return nil, "", err
	}

	oldStatus := appointment.Status
	if !statusIn(oldStatus, rule.from) {
		return nil, "", invalidStateError("cannot %s an appointment in status %s", req.action, oldStatus)
	}

	appointment.Status = rule.to
	switch req.action {
	case ActionCancel:
		appointment.CancellationReason = strings.TrimSpace(req.reason)
		appointment.CancelledBy = cancelledBy(actor)
	case ActionConfirm:
		if appointment.ConsultationMode == model.ConsultationOnline && appointment.MeetingLink == "" && s.meetings != nil {
			link, err := s.meetings.MeetingLink(ctx, appointment)
			if err != nil {
				return nil, "", fmt.Errorf("meeting link: %w", err)
			}
			appointment.MeetingLink = link
		}
	case ActionComplete, ActionNoShow:
		if req.reason != "" && actor.Role == model.RoleExpert {
			appointment.ExpertNotes = req.reason
		}
	}

	if err := st.Appointments.UpdateStatus(ctx, appointment); err != nil {
		return nil, "", err
	}

	return appointment, oldStatus, nil
}

// authorize encodes who may perform which transition
func authorize(actor model.Actor, a *model.Appointment, action Action) error {
	isOwningExpert := actor.Role == model.RoleExpert && actor.UserID == a.ExpertID
	isStudent := actor.Role == model.RoleStudent && actor.UserID == a.StudentID

	var allowed bool
	switch action {
	case ActionConfirm:
		allowed = isOwningExpert
	case ActionCancel:
		allowed = isStudent || isOwningExpert || actor.IsSystem()
	case ActionComplete, ActionNoShow:
		allowed = isOwningExpert || actor.IsSystem()
	}
	if !allowed {
		return permissionError("%s may not %s appointment %d", actor.Role, action, a.ID)
	}
	return nil
}

func cancelledBy(actor model.Actor) model.CancelledBy {
	switch actor.Role {
	case model.RoleStudent:
		return model.CancelledByStudent
	case model.RoleExpert:
		return model.CancelledByExpert
	default:
		return model.CancelledBySystem
	}
}

func statusIn(status model.AppointmentStatus, set []model.AppointmentStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func (s *BookingService) publish(ctx context.Context, evt model.AppointmentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.ObserveEvent(string(evt.Type), "failed")
		s.logger.Error("Failed to publish appointment event",
			zap.String("event_id", evt.ID.String()),
			zap.String("type", string(evt.Type)),
			zap.Int64("appointment_id", evt.AppointmentID),
			zap.Error(err),
		)
		return
	}
	s.metrics.ObserveEvent(string(evt.Type), "published")
}

// GetAppointment returns an appointment visible to the actor
func (s *BookingService) GetAppointment(ctx context.Context, actor model.Actor, appointmentID int64) (*model.Appointment, error) {
	appointment, err := s.stores.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, notFoundError("appointment %d", appointmentID)
	}
	if !canView(actor, appointment) {
		return nil, permissionError("appointment %d is not visible to this user", appointmentID)
	}
	return appointment, nil
}

// ListForStudent lists a student's appointments; status "" means all
func (s *BookingService) ListForStudent(ctx context.Context, actor model.Actor, studentID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	if !(actor.Role == model.RoleStudent && actor.UserID == studentID) && actor.Role != model.RoleAdmin && !actor.IsSystem() {
		return nil, permissionError("cannot list another student's appointments")
	}
	appointments, err := s.stores.Appointments.ListByStudent(ctx, studentID, status)
	if err != nil {
		return nil, fmt.Errorf("list student appointments: %w", err)
	}
	return appointments, nil
}

// ListForExpert lists an expert's appointments; status "" means all
func (s *BookingService) ListForExpert(ctx context.Context, actor model.Actor, expertID int64, status model.AppointmentStatus) ([]*model.Appointment, error) {
	if !(actor.Role == model.RoleExpert && actor.UserID == expertID) && actor.Role != model.RoleAdmin && !actor.IsSystem() {
		return nil, permissionError("cannot list another expert's appointments")
	}
	appointments, err := s.stores.Appointments.ListByExpert(ctx, expertID, status)
	if err != nil {
		return nil, fmt.Errorf("list expert appointments: %w", err)
	}
	return appointments, nil
}

func canView(actor model.Actor, a *model.Appointment) bool {
	switch {
	case actor.IsSystem(), actor.Role == model.RoleAdmin:
		return true
	case actor.Role == model.RoleStudent:
		return actor.UserID == a.StudentID
	case actor.Role == model.RoleExpert:
		return actor.UserID == a.ExpertID
	}
	return false
}

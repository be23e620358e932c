package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/Freeeeeet/counseling_scheduler/internal/repository"
	"go.uber.org/zap"
)

// AvailabilityService manages an expert's weekly templates and break
// exceptions. Every mutation is scoped to the expert who owns the rows.
type AvailabilityService struct {
	templates repository.TemplateStore
	breaks    repository.BreakStore
	loc       *time.Location
	logger    *zap.Logger
}

func NewAvailabilityService(
	templates repository.TemplateStore,
	breaks repository.BreakStore,
	loc *time.Location,
	logger *zap.Logger,
) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{
		templates: templates,
		breaks:    breaks,
		loc:       loc,
		logger:    logger,
	}
}

// TemplateInput carries the editable template fields
type TemplateInput struct {
	Weekday               time.Weekday
	StartTime             model.Clock
	EndTime               model.Clock
	IsAvailable           bool
	MaxAppointmentsPerDay int
	AppointmentDuration   int
	BreakDuration         int
}

// UpsertTemplate creates or replaces the actor's template for a weekday
func (s *AvailabilityService) UpsertTemplate(ctx context.Context, actor model.Actor, in TemplateInput) (*model.AvailabilityTemplate, error) {
	if err := requireExpert(actor); err != nil {
		return nil, err
	}

	template := &model.AvailabilityTemplate{
		ExpertID:              actor.UserID,
		Weekday:               in.Weekday,
		StartTime:             in.StartTime,
		EndTime:               in.EndTime,
		IsAvailable:           in.IsAvailable,
		MaxAppointmentsPerDay: in.MaxAppointmentsPerDay,
		AppointmentDuration:   in.AppointmentDuration,
		BreakDuration:         in.BreakDuration,
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.templates.Upsert(ctx, template); err != nil {
		return nil, fmt.Errorf("upsert template: %w", err)
	}

	s.logger.Info("Availability template saved",
		zap.Int64("expert_id", actor.UserID),
		zap.String("weekday", in.Weekday.String()),
		zap.String("start", in.StartTime.String()),
		zap.String("end", in.EndTime.String()),
		zap.Bool("is_available", in.IsAvailable),
	)

	return template, nil
}

// ListTemplates returns an expert's weekly templates, public to any caller
func (s *AvailabilityService) ListTemplates(ctx context.Context, expertID int64) ([]*model.AvailabilityTemplate, error) {
	templates, err := s.templates.ListByExpert(ctx, expertID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes the actor's template for a weekday
func (s *AvailabilityService) DeleteTemplate(ctx context.Context, actor model.Actor, weekday time.Weekday) error {
	if err := requireExpert(actor); err != nil {
		return err
	}

	deleted, err := s.templates.DeleteByWeekday(ctx, actor.UserID, weekday)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if !deleted {
		return notFoundError("no template for %s", weekday)
	}

	s.logger.Info("Availability template deleted",
		zap.Int64("expert_id", actor.UserID),
		zap.String("weekday", weekday.String()),
	)

	return nil
}

// BreakInput carries the editable break fields
type BreakInput struct {
	Date             time.Time
	StartTime        model.Clock
	EndTime          model.Clock
	Reason           string
	IsRecurring      bool
	RecurringPattern model.RecurringPattern
}

// CreateBreak adds a break for the actor. Overlapping breaks are allowed and
// combined at query time.
func (s *AvailabilityService) CreateBreak(ctx context.Context, actor model.Actor, in BreakInput) (*model.BreakException, error) {
	if err := requireExpert(actor); err != nil {
		return nil, err
	}

	b := s.breakFromInput(actor.UserID, in)
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.breaks.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create break: %w", err)
	}

	s.logger.Info("Break exception created",
		zap.Int64("break_id", b.ID),
		zap.Int64("expert_id", actor.UserID),
		zap.Time("date", b.Date),
		zap.Bool("recurring", b.IsRecurring),
	)

	return b, nil
}

// UpdateBreak rewrites a break owned by the actor
func (s *AvailabilityService) UpdateBreak(ctx context.Context, actor model.Actor, breakID int64, in BreakInput) (*model.BreakException, error) {
	existing, err := s.ownedBreak(ctx, actor, breakID)
	if err != nil {
		return nil, err
	}

	b := s.breakFromInput(actor.UserID, in)
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.breaks.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update break: %w", err)
	}

	s.logger.Info("Break exception updated",
		zap.Int64("break_id", b.ID),
		zap.Int64("expert_id", actor.UserID),
	)

	return b, nil
}

// DeleteBreak removes a break owned by the actor
func (s *AvailabilityService) DeleteBreak(ctx context.Context, actor model.Actor, breakID int64) error {
	if _, err := s.ownedBreak(ctx, actor, breakID); err != nil {
		return err
	}

	deleted, err := s.breaks.Delete(ctx, breakID)
	if err != nil {
		return fmt.Errorf("delete break: %w", err)
	}
	if !deleted {
		return notFoundError("break %d", breakID)
	}

	s.logger.Info("Break exception deleted",
		zap.Int64("break_id", breakID),
		zap.Int64("expert_id", actor.UserID),
	)

	return nil
}

// ListBreaks returns an expert's breaks that may apply within [from, to].
// Zero bounds are open.
func (s *AvailabilityService) ListBreaks(ctx context.Context, expertID int64, from, to time.Time) ([]*model.BreakException, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, validationError("range end before start")
	}

	breaks, err := s.breaks.ListByExpert(ctx, expertID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	return breaks, nil
}

func (s *AvailabilityService) ownedBreak(ctx context.Context, actor model.Actor, breakID int64) (*model.BreakException, error) {
	if err := requireExpert(actor); err != nil {
		return nil, err
	}

	b, err := s.breaks.GetByID(ctx, breakID)
	if err != nil {
		return nil, fmt.Errorf("get break: %w", err)
	}
	if b == nil {
		return nil, notFoundError("break %d", breakID)
	}
	if b.ExpertID != actor.UserID {
		return nil, permissionError("break %d belongs to another expert", breakID)
	}
	return b, nil
}

func (s *AvailabilityService) breakFromInput(expertID int64, in BreakInput) *model.BreakException {
	date := in.Date
	if !date.IsZero() {
		date = model.DateIn(date, s.loc)
	}
	return &model.BreakException{
		ExpertID:         expertID,
		Date:             date,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		Reason:           in.Reason,
		IsRecurring:      in.IsRecurring,
		RecurringPattern: in.RecurringPattern,
	}
}

func requireExpert(actor model.Actor) error {
	if actor.Role != model.RoleExpert || actor.UserID == 0 {
		return permissionError("only experts manage availability")
	}
	return nil
}

package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/service"
	"go.uber.org/zap"
)

// Scheduler runs process-level background jobs. The scheduling core itself
// has no loops; this only feeds reminder-due events to the dispatcher.
type Scheduler struct {
	reminders *service.ReminderService
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

func NewScheduler(reminders *service.ReminderService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the jobs in the background
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runReminderTask(ctx)
}

// Stop stops the jobs
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

func (s *Scheduler) runReminderTask(ctx context.Context) {
	s.emitReminders(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.emitReminders(ctx)
		case <-s.stopChan:
			s.logger.Info("Reminder task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reminder task cancelled")
			return
		}
	}
}

func (s *Scheduler) emitReminders(ctx context.Context) {
	published, err := s.reminders.EmitDue(ctx)
	if err != nil {
		s.logger.Error("Failed to emit reminders", zap.Error(err))
		return
	}

	if published > 0 {
		s.logger.Info("Reminder events emitted", zap.Int("count", published))
	}
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/config"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
)

const sweepTimeout = 5 * time.Minute

// Sweeper sends the daily expiry reminders.
type Sweeper interface {
	Sweep(ctx context.Context) ([]models.ExpiryReminder, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.RemindersConfig
	sweeper Sweeper
	logger  *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(cfg config.RemindersConfig, sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard 5-field cron expressions, evaluated in the reminder timezone.
	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:    c,
		cfg:     cfg,
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start registers the reminder sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendReminders); err != nil {
		return fmt.Errorf("schedule expiry reminders: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendReminders() {
	s.logger.Info("running expiry reminder sweep")
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	sent, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error("expiry reminder sweep finished with errors", zap.Int("sent", len(sent)), zap.Error(err))
		return
	}
	s.logger.Info("expiry reminder sweep finished", zap.Int("sent", len(sent)))
}

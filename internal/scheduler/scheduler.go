package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/rigcost/internal/config"
	"github.com/mamadbah2/rigcost/internal/service/publishing"
)

const jobTimeout = 2 * time.Minute

// Publisher is the job run on every tick.
type Publisher interface {
	RunAll(ctx context.Context) (publishing.Result, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	publisher Publisher
	logger    *zap.Logger
}

// NewScheduler creates a scheduler firing in the configured time zone.
func NewScheduler(cfg config.ReportingConfig, publisher Publisher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(cron.WithLocation(cfg.Location()))

	return &Scheduler{
		cron:      c,
		schedule:  cfg.CronSchedule,
		publisher: publisher,
		logger:    logger,
	}
}

// Start registers the nightly publication and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.publish); err != nil {
		return fmt.Errorf("schedule publication %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("location", s.cron.Location().String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) publish() {
	s.logger.Info("publishing cost summary")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.publisher.RunAll(ctx)
	if err != nil {
		s.logger.Error("scheduled publication failed", zap.Error(err),
			zap.Bool("sheet", result.SheetSynced),
			zap.Bool("snapshot", result.SnapshotSaved),
			zap.Bool("notification", result.NotificationSent),
		)
		return
	}
	s.logger.Info("scheduled publication done")
}

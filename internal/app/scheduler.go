package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"sharkclean/internal/config"
	"sharkclean/internal/operations"
)

// jobRetention is how long finished jobs stay listed before pruning
const jobRetention = 24 * time.Hour

// Enqueuer accepts cleaning jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, job *operations.Job) (*operations.Job, error)
	Prune(maxAge time.Duration) int
}

// Scheduler re-cleans the configured workbook on a cron schedule and prunes
// old jobs every hour.
type Scheduler struct {
	cron   *cron.Cron
	queue  Enqueuer
	cfg    config.ScheduleConfig
	impute bool
	logger *slog.Logger
}

// NewScheduler registers the periodic jobs. The re-clean job is only added
// when cfg.Enabled is set.
func NewScheduler(cfg config.ScheduleConfig, impute bool, queue Enqueuer, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(),
		queue:  queue,
		cfg:    cfg,
		impute: impute,
		logger: logger.With(slog.String("component", "scheduler")),
	}

	if cfg.Enabled {
		if _, err := s.cron.AddFunc(cfg.Spec, s.RunClean); err != nil {
			return nil, err
		}
		s.logger.Info("Scheduled cleaning registered",
			slog.String("spec", cfg.Spec),
			slog.String("input", cfg.Input))
	}
	if _, err := s.cron.AddFunc("@hourly", s.RunPrune); err != nil {
		return nil, err
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", slog.Int("entries", len(s.cron.Entries())))
}

// Stop stops the scheduler and waits for running entries
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunClean enqueues a cleaning job for the scheduled input
func (s *Scheduler) RunClean() {
	job, err := s.queue.Enqueue(context.Background(), &operations.Job{
		Source: operations.SourceSchedule,
		Input:  s.cfg.Input,
		Options: operations.JobOptions{
			Impute:  s.impute,
			Summary: true,
		},
	})
	if err != nil {
		s.logger.Error("Scheduled cleaning not queued",
			slog.String("input", s.cfg.Input),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("Scheduled cleaning queued",
		slog.String("job_id", job.ID),
		slog.String("input", job.Input))
}

// RunPrune drops finished jobs older than the retention window
func (s *Scheduler) RunPrune() {
	if n := s.queue.Prune(jobRetention); n > 0 {
		s.logger.Info("Pruned finished jobs", slog.Int("count", n))
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/config"
	"secondhand-market/internal/database"
	"secondhand-market/internal/metrics"
	"secondhand-market/internal/models"
	"secondhand-market/internal/snapshot"
)

// Reindexer rebuilds the search index from the store.
type Reindexer interface {
	Reindex(ctx context.Context, each func(func([]models.Listing) error) error) (int, error)
}

// Report describes one run of the daily jobs.
type Report struct {
	StartedAt  time.Time             `json:"started_at"`
	Snapshot   *models.StatsSnapshot `json:"snapshot,omitempty"`
	Reindexed  int                   `json:"reindexed"`
	Errors     []string              `json:"errors,omitempty"`
	DurationMS int64                 `json:"duration_ms"`
}

// Scheduler runs the daily maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	store     *database.GormDB
	snapshot  *snapshot.Service
	reindexer Reindexer
	config    config.SchedulerConfig
	log       logrus.FieldLogger

	mu        sync.Mutex // serializes runs
	isRunning bool
}

// NewScheduler creates a new scheduler. reindexer may be nil.
func NewScheduler(store *database.GormDB, reindexer Reindexer, cfg config.SchedulerConfig, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		store:     store,
		snapshot:  snapshot.NewService(store),
		reindexer: reindexer,
		config:    cfg,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.DailyRunEnabled {
		s.log.Info("daily run is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		report := s.run(context.Background())
		if len(report.Errors) > 0 {
			s.log.WithField("errors", report.Errors).Warn("daily jobs finished with errors")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithFields(logrus.Fields{"time": s.config.DailyRunTime, "cron": cronSpec}).Info("scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.log.Info("scheduler stopped")
	}
}

// RunNow immediately executes the daily jobs (for manual trigger)
func (s *Scheduler) RunNow(ctx context.Context) *Report {
	s.log.Info("manual trigger")
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	report := &Report{StartedAt: s.store.Now()}

	snap, err := s.snapshot.CreateSnapshot(ctx, report.StartedAt)
	metrics.JobRun("snapshot", err == nil)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("snapshot: %v", err))
	} else {
		report.Snapshot = snap
	}

	if s.reindexer != nil {
		n, err := s.reindexer.Reindex(ctx, func(fn func([]models.Listing) error) error {
			return s.store.EachAvailable(ctx, 500, fn)
		})
		metrics.JobRun("reindex", err == nil)
		report.Reindexed = n
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("reindex: %v", err))
		}
	}

	report.DurationMS = time.Since(start).Milliseconds()
	s.log.WithFields(logrus.Fields{
		"reindexed":   report.Reindexed,
		"errors":      len(report.Errors),
		"duration_ms": report.DurationMS,
	}).Info("daily jobs completed")
	return report
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	s.log.WithField("value", timeStr).Warn("failed to parse daily run time, using 02:00")
	return "0 2 * * *"
}

package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/config"
	"secondhand-market/internal/database"
	"secondhand-market/internal/metrics"
	"secondhand-market/internal/models"
)

// Service physically deletes listings that have stayed removed past the retention window.
// Purges only run on an admin's request; nothing deletes listings on a timer.
type Service struct {
	store *database.GormDB
	cfg   config.CleanupConfig
	log   logrus.FieldLogger
}

// NewService creates a new cleanup service
func NewService(store *database.GormDB, cfg config.CleanupConfig, log logrus.FieldLogger) *Service {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	if cfg.MaxDeletionCount <= 0 {
		cfg.MaxDeletionCount = 1000
	}
	return &Service{
		store: store,
		cfg:   cfg,
		log:   log.WithField("component", "cleanup"),
	}
}

// Result holds the result of a cleanup operation
type Result struct {
	TargetCount     int       `json:"target_count"`
	DeletedCount    int       `json:"deleted_count"`
	ErrorCount      int       `json:"error_count"`
	DryRun          bool      `json:"dry_run"`
	ExecutedAt      time.Time `json:"executed_at"`
	DeletedListings []string  `json:"deleted_listings"`
	Errors          []string  `json:"errors,omitempty"`
}

func (s *Service) cutoff() time.Time {
	return s.store.Now().AddDate(0, 0, -s.cfg.RetentionDays)
}

// FindExpired returns removed listings older than the retention window. At most
// MaxDeletionCount+1 rows are loaded so the safety check can tell when the limit is exceeded.
func (s *Service) FindExpired(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.store.ExpiredRemoved(ctx, s.cutoff(), s.cfg.MaxDeletionCount+1)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired listings: %w", err)
	}
	return listings, nil
}

// Purge deletes expired removed listings on behalf of actorID, writing a delete log
// entry for each.
func (s *Service) Purge(ctx context.Context, actorID string) (result *Result, err error) {
	if actorID == "" {
		return nil, apperr.Forbidden("cleanup requires an acting admin")
	}
	defer func() { metrics.JobRun("cleanup", err == nil) }()

	result = &Result{
		DryRun:          s.cfg.DryRun,
		ExecutedAt:      s.store.Now(),
		DeletedListings: []string{},
	}

	expired, err := s.FindExpired(ctx)
	if err != nil {
		return nil, err
	}
	result.TargetCount = len(expired)
	if result.TargetCount == 0 {
		return result, nil
	}

	// Safety check: abort if too many listings would be deleted
	if result.TargetCount > s.cfg.MaxDeletionCount {
		return nil, apperr.InvalidState("safety check failed: more than %d listings eligible for deletion", s.cfg.MaxDeletionCount)
	}

	for _, l := range expired {
		if s.cfg.DryRun {
			s.log.WithFields(logrus.Fields{"listing_id": l.ID, "updated_at": l.UpdatedAt}).Info("dry run: would delete listing")
			result.DeletedListings = append(result.DeletedListings, l.ID)
			result.DeletedCount++
			continue
		}

		if _, err := s.store.DeleteListing(ctx, l.ID, actorID, models.DeleteReasonRetention); err != nil {
			s.log.WithField("listing_id", l.ID).WithError(err).Error("failed to delete expired listing")
			result.Errors = append(result.Errors, fmt.Sprintf("listing %s: %v", l.ID, err))
			result.ErrorCount++
			continue
		}
		result.DeletedListings = append(result.DeletedListings, l.ID)
		result.DeletedCount++
	}

	s.log.WithFields(logrus.Fields{
		"actor_id": actorID,
		"deleted":  result.DeletedCount,
		"target":   result.TargetCount,
		"errors":   result.ErrorCount,
		"dry_run":  result.DryRun,
	}).Info("cleanup completed")
	return result, nil
}

// DeleteStats summarizes the delete audit log.
type DeleteStats struct {
	TotalDeleted    int64            `json:"total_deleted"`
	ByReason        map[string]int64 `json:"by_reason"`
	ExpiredAwaiting int              `json:"expired_awaiting_deletion"`
	RetentionDays   int              `json:"retention_days"`
}

// GetDeleteStats returns statistics about deleted listings
func (s *Service) GetDeleteStats(ctx context.Context) (*DeleteStats, error) {
	byReason, err := s.store.DeleteLogCounts(ctx)
	if err != nil {
		return nil, err
	}
	expired, err := s.FindExpired(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DeleteStats{
		ByReason:        byReason,
		ExpiredAwaiting: len(expired),
		RetentionDays:   s.cfg.RetentionDays,
	}
	for _, n := range byReason {
		stats.TotalDeleted += n
	}
	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.RecentDeleteLogs(ctx, limit)
}

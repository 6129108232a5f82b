package snapshot

import (
	"context"
	"fmt"
	"time"

	"secondhand-market/internal/database"
	"secondhand-market/internal/models"
)

// Service records one statistics row per day
type Service struct {
	store *database.GormDB
}

// NewService creates a new snapshot service
func NewService(store *database.GormDB) *Service {
	return &Service{store: store}
}

// CreateSnapshot stores the current listing counts and the number of disclosures made on
// day (UTC). Running it again for the same day overwrites that day's row.
func (s *Service) CreateSnapshot(ctx context.Context, day time.Time) (*models.StatsSnapshot, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	contacts, err := s.store.CountContactRecords(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}

	snap := &models.StatsSnapshot{
		SnapshotOn: start.Format("2006-01-02"),
		Pending:    byStatus[string(models.StatusPending)],
		Available:  byStatus[string(models.StatusAvailable)],
		Sold:       byStatus[string(models.StatusSold)],
		Removed:    byStatus[string(models.StatusRemoved)],
		Contacts:   contacts,
	}
	if err := s.store.UpsertSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// Change is the day-over-day difference between two consecutive snapshots.
type Change struct {
	SnapshotOn string `json:"snapshot_on"`
	Available  int64  `json:"available_delta"`
	Sold       int64  `json:"sold_delta"`
	Contacts   int64  `json:"contacts"`
}

// History returns up to days snapshots, newest first.
func (s *Service) History(ctx context.Context, days int) ([]models.StatsSnapshot, error) {
	if days <= 0 {
		days = 30
	}
	return s.store.RecentSnapshots(ctx, days)
}

// DetectChanges derives deltas from snapshots ordered newest first. The oldest snapshot has
// no predecessor and yields no change.
func DetectChanges(snaps []models.StatsSnapshot) []Change {
	changes := []Change{}
	for i := 0; i+1 < len(snaps); i++ {
		cur, prev := snaps[i], snaps[i+1]
		changes = append(changes, Change{
			SnapshotOn: cur.SnapshotOn,
			Available:  cur.Available - prev.Available,
			Sold:       cur.Sold - prev.Sold,
			Contacts:   cur.Contacts,
		})
	}
	return changes
}

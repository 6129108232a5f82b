package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"secondhand-market/internal/models"
)

// PopularListing is a listing ranked by how many disclosures it has produced.
type PopularListing struct {
	ListingID    string  `json:"listing_id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Status       string  `json:"status"`
	ContactCount int64   `json:"contact_count"`
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func (gdb *GormDB) countBy(ctx context.Context, column string) (map[string]int64, error) {
	var rows []groupCount
	err := gdb.db.WithContext(ctx).Model(&models.Listing{}).
		Select(column + " AS group_key, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Total
	}
	return out, nil
}

// CountByStatus returns listing counts keyed by status. Statuses with no listings are absent.
func (gdb *GormDB) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return gdb.countBy(ctx, "status")
}

// CountByCategory returns listing counts keyed by category.
func (gdb *GormDB) CountByCategory(ctx context.Context) (map[string]int64, error) {
	return gdb.countBy(ctx, "category")
}

// CountContactRecords returns the number of disclosure events since the given time. A zero
// since counts every event.
func (gdb *GormDB) CountContactRecords(ctx context.Context, since, until time.Time) (int64, error) {
	q := gdb.db.WithContext(ctx).Model(&models.ContactRecord{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if !until.IsZero() {
		q = q.Where("created_at < ?", until)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// ContactCountsByDay returns disclosure counts at or after since keyed by day (YYYY-MM-DD)
// in the session time zone, which is UTC for every supported driver.
func (gdb *GormDB) ContactCountsByDay(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []groupCount
	err := gdb.db.WithContext(ctx).Model(&models.ContactRecord{}).
		Select("DATE(created_at) AS group_key, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		// MySQL and Postgres return DATE as a timestamp; keep only the day
		key := r.GroupKey
		if len(key) > 10 {
			key = key[:10]
		}
		out[key] += r.Total
	}
	return out, nil
}

// PopularListings returns up to limit listings ordered by disclosure count, highest first.
// Ties are broken by listing id.
func (gdb *GormDB) PopularListings(ctx context.Context, limit int) ([]PopularListing, error) {
	rows := []PopularListing{}
	err := gdb.db.WithContext(ctx).Table("listings").
		Select(`listings.id AS listing_id, listings.title, listings.price, listings.category,
			listings.status, COUNT(contact_records.id) AS contact_count`).
		Joins("LEFT JOIN contact_records ON contact_records.listing_id = listings.id").
		Group("listings.id, listings.title, listings.price, listings.category, listings.status").
		Order("contact_count DESC, listings.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// UpsertSnapshot writes s, replacing any existing snapshot for the same day.
func (gdb *GormDB) UpsertSnapshot(ctx context.Context, s *models.StatsSnapshot) error {
	now := gdb.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	return gdb.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "snapshot_on"}},
		DoUpdates: clause.AssignmentColumns([]string{"pending", "available", "sold", "removed", "contacts", "updated_at"}),
	}).Create(s).Error
}

// RecentSnapshots returns up to days snapshots, newest first.
func (gdb *GormDB) RecentSnapshots(ctx context.Context, days int) ([]models.StatsSnapshot, error) {
	snapshots := []models.StatsSnapshot{}
	err := gdb.db.WithContext(ctx).Order("snapshot_on DESC").Limit(days).Find(&snapshots).Error
	return snapshots, err
}

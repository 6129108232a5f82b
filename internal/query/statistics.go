package query

import (
	"context"
	"fmt"
	"time"

	"secondhand-market/internal/database"
	"secondhand-market/internal/models"
)

const (
	popularLimit       = 10
	defaultStatsWindow = 7 * 24 * time.Hour
	maxStatsWindowDays = 366
)

// DailyCount is the number of disclosures on one UTC day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Statistics is the operational summary shown to administrators.
type Statistics struct {
	TotalListings   int64                     `json:"total_listings"`
	ByStatus        map[string]int64          `json:"by_status"`
	ByCategory      map[string]int64          `json:"by_category"`
	TotalContacts   int64                     `json:"total_contacts"`
	ContactsSince   string                    `json:"contacts_since"`
	ContactsInRange int64                     `json:"contacts_in_range"`
	DailyContacts   []DailyCount              `json:"daily_contacts"`
	Popular         []database.PopularListing `json:"popular"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

// Statistics summarizes listings and disclosures. since bounds only the daily breakdown; a
// zero value means the last seven days, and the breakdown never reaches back more than
// maxStatsWindowDays.
func (e *Engine) Statistics(ctx context.Context, since time.Time) (*Statistics, error) {
	now := e.store.Now().UTC()
	if since.IsZero() || since.After(now) {
		since = now.Add(-defaultStatsWindow)
	}
	since = truncateDay(since.UTC())
	if earliest := truncateDay(now.AddDate(0, 0, -maxStatsWindowDays)); since.Before(earliest) {
		since = earliest
	}

	byStatus, err := e.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	byCategory, err := e.store.CountByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	totalContacts, err := e.store.CountContactRecords(ctx, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	perDay, err := e.store.ContactCountsByDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count contacts per day: %w", err)
	}
	popular, err := e.store.PopularListings(ctx, popularLimit)
	if err != nil {
		return nil, fmt.Errorf("popular listings: %w", err)
	}

	stats := &Statistics{
		ByStatus:        make(map[string]int64, len(models.AllStatuses)),
		ByCategory:      make(map[string]int64, len(models.AllCategories)),
		TotalContacts:   totalContacts,
		ContactsSince:   since.Format("2006-01-02"),
		DailyContacts:   dailyBuckets(since, now, perDay),
		Popular:         popular,
		GeneratedAt:     now,
	}
	for _, d := range stats.DailyContacts {
		stats.ContactsInRange += d.Count
	}
	for _, s := range models.AllStatuses {
		stats.ByStatus[string(s)] = byStatus[string(s)]
		stats.TotalListings += byStatus[string(s)]
	}
	for _, c := range models.AllCategories {
		stats.ByCategory[string(c)] = byCategory[string(c)]
	}
	return stats, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dailyBuckets lays counts out for every UTC day from since to now inclusive.
func dailyBuckets(since, now time.Time, counts map[string]int64) []DailyCount {
	var out []DailyCount
	for d := truncateDay(since); !d.After(now); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DailyCount{Date: key, Count: counts[key]})
	}
	return out
}

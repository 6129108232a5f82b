package models

import "time"

// StatsSnapshot is one day's marketplace counts, written by the daily scheduler job.
type StatsSnapshot struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotOn string `gorm:"type:varchar(10);not null;uniqueIndex" json:"snapshot_on"` // YYYY-MM-DD (UTC)

	Pending   int64 `gorm:"not null;default:0" json:"pending"`
	Available int64 `gorm:"not null;default:0" json:"available"`
	Sold      int64 `gorm:"not null;default:0" json:"sold"`
	Removed   int64 `gorm:"not null;default:0" json:"removed"`

	// Disclosures made on SnapshotOn
	Contacts int64 `gorm:"not null;default:0" json:"contacts"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name
func (StatsSnapshot) TableName() string {
	return "stats_snapshots"
}

// Total returns the number of listings across all statuses.
func (s *StatsSnapshot) Total() int64 {
	return s.Pending + s.Available + s.Sold + s.Removed
}

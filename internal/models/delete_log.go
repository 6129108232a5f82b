package models

import "time"

// DeleteLog represents a record of physically deleted listings
type DeleteLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID string    `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	SellerID  string    `gorm:"type:varchar(64);not null" json:"seller_id"`
	Title     string    `gorm:"type:text" json:"title"`
	Status    string    `gorm:"type:varchar(20)" json:"status"`
	ActorID   string    `gorm:"type:varchar(64)" json:"actor_id"`
	Reason    string    `gorm:"type:varchar(50);not null" json:"reason"`
	DeletedAt time.Time `gorm:"not null;index" json:"deleted_at"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonAdmin     = "admin_deletion"
	DeleteReasonRetention = "retention_expired"
)

package models

import "time"

// ListingImage is an opaque image reference owned by a listing.
type ListingImage struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ListingID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_listing_image_order" json:"-"`
	ImageURL     string    `gorm:"type:text;not null" json:"image_url"`
	DisplayOrder int       `gorm:"not null;default:0;uniqueIndex:idx_listing_image_order" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
}

// TableName specifies the table name for ListingImage
func (ListingImage) TableName() string {
	return "listing_images"
}

package models

import "time"

// ContactRecord is an immutable disclosure event: buyer BuyerID received the contact details
// of seller SellerID for listing ListingID at CreatedAt. The plaintext contact is never stored
// here. ListingID is deliberately not a foreign key so records survive listing deletion.
type ContactRecord struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	BuyerID   string    `gorm:"type:varchar(64);not null;index" json:"buyer_id"`
	SellerID  string    `gorm:"type:varchar(64);not null;index" json:"seller_id"`
	ListingID string    `gorm:"type:varchar(36);not null;index" json:"listing_id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name
func (ContactRecord) TableName() string {
	return "contact_records"
}

package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"secondhand-market/internal/models"
)

// ContactRecordRow is a disclosure event joined with a summary of its listing. Listing fields
// are empty when the listing has since been deleted.
type ContactRecordRow struct {
	ID            string    `json:"id"`
	BuyerID       string    `json:"buyer_id"`
	SellerID      string    `json:"seller_id"`
	ListingID     string    `json:"listing_id"`
	CreatedAt     time.Time `json:"created_at"`
	ListingTitle  string    `json:"listing_title"`
	ListingPrice  float64   `json:"listing_price"`
	ListingStatus string    `json:"listing_status"`
	ListingImage  string    `json:"listing_image"`
}

// InsertContactRecord appends a disclosure event.
func (gdb *GormDB) InsertContactRecord(ctx context.Context, rec *models.ContactRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = gdb.now()
	}
	return gdb.db.WithContext(ctx).Create(rec).Error
}

// ContactRecordsByBuyer returns the disclosures a buyer received, newest first.
func (gdb *GormDB) ContactRecordsByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]ContactRecordRow, int64, error) {
	return gdb.contactRecords(ctx, "contact_records.buyer_id = ?", buyerID, limit, offset)
}

// ContactRecordsBySeller returns the disclosures made for a seller's listings, newest first.
func (gdb *GormDB) ContactRecordsBySeller(ctx context.Context, sellerID string, limit, offset int) ([]ContactRecordRow, int64, error) {
	return gdb.contactRecords(ctx, "contact_records.seller_id = ?", sellerID, limit, offset)
}

func (gdb *GormDB) contactRecords(ctx context.Context, cond, id string, limit, offset int) ([]ContactRecordRow, int64, error) {
	var total int64
	if err := gdb.db.WithContext(ctx).Model(&models.ContactRecord{}).Where(cond, id).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []ContactRecordRow{}
	if total == 0 {
		return rows, 0, nil
	}

	q := gdb.db.WithContext(ctx).Table("contact_records").
		Select(`contact_records.id, contact_records.buyer_id, contact_records.seller_id,
			contact_records.listing_id, contact_records.created_at,
			COALESCE(listings.title, '') AS listing_title,
			COALESCE(listings.price, 0) AS listing_price,
			COALESCE(listings.status, '') AS listing_status,
			COALESCE(listing_images.image_url, '') AS listing_image`).
		Joins("LEFT JOIN listings ON listings.id = contact_records.listing_id").
		Joins("LEFT JOIN listing_images ON listing_images.listing_id = contact_records.listing_id AND listing_images.display_order = 0").
		Where(cond, id).
		Order("contact_records.created_at DESC, contact_records.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

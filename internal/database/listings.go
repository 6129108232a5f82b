package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/models"
)

// ListingFilter selects listings for ListListings. Zero values mean "no constraint".
type ListingFilter struct {
	Status   models.ListingStatus
	Category models.Category
	SellerID string
	Search   string

	Limit  int
	Offset int

	// OldestFirst reverses the default newest-first order (moderation queue).
	OldestFirst bool
}

func imagesByOrder(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}

// CreateListing inserts a listing and its images in one transaction.
func (gdb *GormDB) CreateListing(ctx context.Context, l *models.Listing) error {
	now := gdb.now()
	l.CreatedAt = now
	l.UpdatedAt = now

	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Create(l).Error; err != nil {
			return err
		}
		return saveListingImages(tx, l.ID, l.Images)
	})
}

// saveListingImages replaces the image set of a listing. Order follows the slice.
func saveListingImages(tx *gorm.DB, listingID string, images []models.ListingImage) error {
	if err := tx.Where("listing_id = ?", listingID).Delete(&models.ListingImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ID = 0
		images[i].ListingID = listingID
		images[i].DisplayOrder = i
	}
	return tx.Create(&images).Error
}

// GetListing loads a listing with its images ordered by display order.
func (gdb *GormDB) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	err := gdb.db.WithContext(ctx).
		Preload("Images", imagesByOrder).
		Where("id = ?", id).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("listing not found")
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateListingFields applies fields to a listing owned by sellerID that is not sold. When
// images is non-nil the image set is replaced in the same transaction. It returns false when
// no row matched the condition.
func (gdb *GormDB) UpdateListingFields(ctx context.Context, id, sellerID string, fields map[string]interface{}, images []models.ListingImage) (bool, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = gdb.now()

	matched := false
	err := gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Listing{}).
			Where("id = ? AND seller_id = ? AND status <> ?", id, sellerID, models.StatusSold).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		matched = true
		if images != nil {
			return saveListingImages(tx, id, images)
		}
		return nil
	})
	return matched, err
}

// TransitionStatus moves a listing from one status to another only if it is still in from.
// It returns false when another writer changed the status first or the listing is gone.
func (gdb *GormDB) TransitionStatus(ctx context.Context, id string, from, to models.ListingStatus) (bool, error) {
	res := gdb.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": gdb.now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteListing physically removes a listing and its images and writes a delete log entry.
// Contact records referencing the listing are kept.
func (gdb *GormDB) DeleteListing(ctx context.Context, id, actorID, reason string) (*models.DeleteLog, error) {
	var entry *models.DeleteLog
	err := gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := tx.Where("id = ?", id).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("listing not found")
			}
			return err
		}

		if err := tx.Where("listing_id = ?", id).Delete(&models.ListingImage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Listing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("listing not found")
		}

		entry = &models.DeleteLog{
			ListingID: l.ID,
			SellerID:  l.SellerID,
			Title:     l.Title,
			Status:    string(l.Status),
			ActorID:   actorID,
			Reason:    reason,
			DeletedAt: gdb.now(),
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// likeEscaper escapes LIKE metacharacters using '!' as the escape character, which behaves the
// same on MySQL, PostgreSQL and SQLite.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func (gdb *GormDB) filtered(ctx context.Context, f ListingFilter) *gorm.DB {
	q := gdb.db.WithContext(ctx).Model(&models.Listing{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := containsPattern(s)
		q = q.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", p, p)
	}
	return q
}

// ListListings returns one page of listings matching f and the total number of matches.
func (gdb *GormDB) ListListings(ctx context.Context, f ListingFilter) ([]models.Listing, int64, error) {
	var total int64
	if err := gdb.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	if f.OldestFirst {
		order = "created_at ASC, id ASC"
	}

	listings := []models.Listing{}
	if total == 0 {
		return listings, 0, nil
	}

	q := gdb.filtered(ctx, f).Preload("Images", imagesByOrder).Order(order)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&listings).Error; err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// EachAvailable calls fn with batches of available listings in id order.
func (gdb *GormDB) EachAvailable(ctx context.Context, batchSize int, fn func([]models.Listing) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	lastID := ""
	for {
		var batch []models.Listing
		err := gdb.db.WithContext(ctx).
			Preload("Images", imagesByOrder).
			Where("status = ? AND id > ?", models.StatusAvailable, lastID).
			Order("id ASC").
			Limit(batchSize).
			Find(&batch).Error
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		lastID = batch[len(batch)-1].ID
	}
}

// CountListings returns the total number of listings in any status.
func (gdb *GormDB) CountListings(ctx context.Context) (int64, error) {
	var n int64
	err := gdb.db.WithContext(ctx).Model(&models.Listing{}).Count(&n).Error
	return n, err
}

// RecentDeleteLogs returns the newest delete log entries first.
func (gdb *GormDB) RecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	logs := []models.DeleteLog{}
	err := gdb.db.WithContext(ctx).Order("deleted_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// ExpiredRemoved returns removed listings last changed before cutoff, oldest first.
func (gdb *GormDB) ExpiredRemoved(ctx context.Context, cutoff time.Time, limit int) ([]models.Listing, error) {
	listings := []models.Listing{}
	q := gdb.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.StatusRemoved, cutoff).
		Order("updated_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&listings).Error
	return listings, err
}

// DeleteLogCounts returns the number of delete log entries per reason.
func (gdb *GormDB) DeleteLogCounts(ctx context.Context) (map[string]int64, error) {
	var rows []groupCount
	err := gdb.db.WithContext(ctx).Model(&models.DeleteLog{}).
		Select("reason AS group_key, COUNT(*) AS total").
		Group("reason").
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

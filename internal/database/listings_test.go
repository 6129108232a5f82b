package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/database"
	"secondhand-market/internal/database/dbtest"
	"secondhand-market/internal/models"
)

func newListing(seller, title, desc string, status models.ListingStatus, images ...string) *models.Listing {
	l := &models.Listing{
		ID:            uuid.NewString(),
		SellerID:      seller,
		Title:         title,
		Description:   desc,
		Price:         10,
		Category:      models.CategoryBooks,
		ContactCipher: "00:00",
		Status:        status,
	}
	for _, u := range images {
		l.Images = append(l.Images, models.ListingImage{ImageURL: u})
	}
	return l
}

func TestCreateAndGetListing(t *testing.T) {
	gdb, _ := dbtest.New(t)
	ctx := context.Background()

	l := newListing("u1", "Bike", "red", models.StatusPending, "a.jpg", "b.jpg")
	require.NoError(t, gdb.CreateListing(ctx, l))

	got, err := gdb.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bike", got.Title)
	assert.Equal(t, models.StatusPending, got.Status)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "a.jpg", got.Images[0].ImageURL)
	assert.Equal(t, 1, got.Images[1].DisplayOrder)
	assert.Equal(t, "a.jpg", got.MainImage())

	_, err = gdb.GetListing(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestTransitionStatusIsConditional(t *testing.T) {
	gdb, _ := dbtest.New(t)
	ctx := context.Background()

	l := newListing("u1", "Lamp", "", models.StatusPending)
	require.NoError(t, gdb.CreateListing(ctx, l))
	before, err := gdb.GetListing(ctx, l.ID)
	require.NoError(t, err)

	ok, err := gdb.TransitionStatus(ctx, l.ID, models.StatusPending, models.StatusAvailable)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second writer that observed pending loses
	ok, err = gdb.TransitionStatus(ctx, l.ID, models.StatusPending, models.StatusRemoved)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := gdb.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAvailable, got.Status)
	assert.True(t, got.UpdatedAt.After(before.UpdatedAt))
}

func TestUpdateListingFieldsSkipsSoldAndForeign(t *testing.T) {
	gdb, _ := dbtest.New(t)
	ctx := context.Background()

	l := newListing("u1", "Desk", "", models.StatusAvailable, "old.jpg")
	require.NoError(t, gdb.CreateListing(ctx, l))

	ok, err := gdb.UpdateListingFields(ctx, l.ID, "u2", map[string]interface{}{"title": "Stolen"}, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = gdb.UpdateListingFields(ctx, l.ID, "u1", map[string]interface{}{"title": "Oak desk"},
		[]models.ListingImage{{ImageURL: "new1.jpg"}, {ImageURL: "new2.jpg"}})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := gdb.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Oak desk", got.Title)
	require.Len(t, got.Images, 2)
	assert.Equal(t, "new1.jpg", got.MainImage())

	_, err = gdb.TransitionStatus(ctx, l.ID, models.StatusAvailable, models.StatusSold)
	require.NoError(t, err)
	ok, err = gdb.UpdateListingFields(ctx, l.ID, "u1", map[string]interface{}{"title": "Late"}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteListingCascadesAndKeepsContactRecords(t *testing.T) {
	gdb, _ := dbtest.New(t)
	ctx := context.Background()

	l := newListing("u1", "Phone", "", models.StatusAvailable, "p.jpg")
	require.NoError(t, gdb.CreateListing(ctx, l))
	require.NoError(t, gdb.InsertContactRecord(ctx, &models.ContactRecord{BuyerID: "u2", SellerID: "u1", ListingID: l.ID}))

	entry, err := gdb.DeleteListing(ctx, l.ID, "admin-1", models.DeleteReasonAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Phone", entry.Title)
	assert.Equal(t, "available", entry.Status)

	_, err = gdb.GetListing(ctx, l.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	var images int64
	require.NoError(t, gdb.DB().Model(&models.ListingImage{}).Where("listing_id = ?", l.ID).Count(&images).Error)
	assert.Zero(t, images)

	rows, total, err := gdb.ContactRecordsByBuyer(ctx, "u2", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, l.ID, rows[0].ListingID)
	assert.Empty(t, rows[0].ListingTitle)

	logs, err := gdb.RecentDeleteLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "admin-1", logs[0].ActorID)

	_, err = gdb.DeleteListing(ctx, l.ID, "admin-1", models.DeleteReasonAdmin)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListListingsFiltersAndOrder(t *testing.T) {
	gdb, _ := dbtest.New(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"Old camera", "Green jacket", "100% cotton shirt", "Tablet"} {
		l := newListing("u1", title, "", models.StatusAvailable)
		require.NoError(t, gdb.CreateListing(ctx, l))
		ids = append(ids, l.ID)
	}
	hidden := newListing("u1", "Camera bag", "", models.StatusPending)
	require.NoError(t, gdb.CreateListing(ctx, hidden))

	listings, total, err := gdb.ListListings(ctx, database.ListingFilter{Status: models.StatusAvailable, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, listings, 4)
	assert.Equal(t, ids[3], listings[0].ID)
	assert.Equal(t, ids[0], listings[3].ID)

	listings, total, err = gdb.ListListings(ctx, database.ListingFilter{Search: "CAMERA", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, listings, 2)

	// % is matched literally
	listings, total, err = gdb.ListListings(ctx, database.ListingFilter{Search: "100%", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, listings, 1)
	assert.Equal(t, ids[2], listings[0].ID)

	listings, _, err = gdb.ListListings(ctx, database.ListingFilter{Status: models.StatusAvailable, Limit: 10, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, listings)

	listings, _, err = gdb.ListListings(ctx, database.ListingFilter{Status: models.StatusPending, OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, hidden.ID, listings[0].ID)
}

func TestEachAvailableVisitsAll(t *testing.T) {
	gdb, _ := dbtest.New(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, gdb.CreateListing(ctx, newListing("u1", "Item", "", models.StatusAvailable)))
	}
	require.NoError(t, gdb.CreateListing(ctx, newListing("u1", "Hidden", "", models.StatusRemoved)))

	seen := 0
	batches := 0
	err := gdb.EachAvailable(ctx, 2, func(batch []models.Listing) error {
		batches++
		seen += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)
}

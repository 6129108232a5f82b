package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/database"
	"secondhand-market/internal/database/dbtest"
	"secondhand-market/internal/models"
)

func add(t *testing.T, store *database.GormDB, title, desc string, status models.ListingStatus) string {
	t.Helper()
	l := &models.Listing{
		ID:            uuid.NewString(),
		SellerID:      "seller-1",
		Title:         title,
		Description:   desc,
		Price:         5,
		Category:      models.CategoryBooks,
		ContactCipher: "00:00",
		Status:        status,
		Images:        []models.ListingImage{{ImageURL: title + ".jpg"}},
	}
	require.NoError(t, store.CreateListing(context.Background(), l))
	return l.ID
}

func ids(p *Page) []string {
	out := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		out = append(out, it.ID)
	}
	return out
}

func TestListPagination(t *testing.T) {
	store, _ := dbtest.New(t)
	e := NewEngine(store, 20, 100)
	ctx := context.Background()

	var created []string
	for _, title := range []string{"one", "two", "three", "four", "five"} {
		created = append(created, add(t, store, title, "", models.StatusAvailable))
	}
	newestFirst := []string{created[4], created[3], created[2], created[1], created[0]}

	full, err := e.List(ctx, Filters{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, newestFirst, ids(full))
	assert.Equal(t, "five.jpg", full.Items[0].MainImage)

	p1, err := e.List(ctx, Filters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	p2, err := e.List(ctx, Filters{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, newestFirst[:2], ids(p1))
	assert.Equal(t, newestFirst[2:4], ids(p2))
	assert.EqualValues(t, 5, p1.Total)
	assert.Equal(t, 3, p1.TotalPages)

	far, err := e.List(ctx, Filters{Page: 100, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, far.Items)
	assert.NotNil(t, far.Items)
	assert.Equal(t, 3, far.TotalPages)
	assert.Equal(t, 100, far.Page)
}

func TestListStatusFilter(t *testing.T) {
	store, _ := dbtest.New(t)
	e := NewEngine(store, 20, 100)
	ctx := context.Background()

	for _, s := range models.AllStatuses {
		add(t, store, string(s), "", s)
	}

	for _, status := range []string{"", "all"} {
		p, err := e.List(ctx, Filters{Status: status})
		require.NoError(t, err)
		assert.EqualValues(t, 4, p.Total, "status %q", status)
	}

	p, err := e.List(ctx, Filters{Status: "available"})
	require.NoError(t, err)
	require.Len(t, p.Items, 1)
	assert.Equal(t, models.StatusAvailable, p.Items[0].Status)

	_, err = e.List(ctx, Filters{Status: "archived"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	_, err = e.List(ctx, Filters{Category: "cars"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestListSearchMatchesDescription(t *testing.T) {
	store, _ := dbtest.New(t)
	e := NewEngine(store, 20, 100)
	ctx := context.Background()

	target := add(t, store, "Paperback", "First edition with a Signed cover", models.StatusAvailable)
	add(t, store, "Hardcover", "plain", models.StatusAvailable)

	p, err := e.List(ctx, Filters{Search: "signed COVER"})
	require.NoError(t, err)
	assert.Equal(t, []string{target}, ids(p))

	p, err = e.List(ctx, Filters{Search: "vinyl"})
	require.NoError(t, err)
	assert.Empty(t, p.Items)
	assert.Zero(t, p.TotalPages)
}

func TestListPageSizeClamped(t *testing.T) {
	store, _ := dbtest.New(t)
	e := NewEngine(store, 20, 100)

	p, err := e.List(context.Background(), Filters{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, p.PageSize)

	p, err = e.List(context.Background(), Filters{Page: -2})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
}

func TestStatistics(t *testing.T) {
	store, clock := dbtest.New(t)
	e := NewEngine(store, 20, 100)
	ctx := context.Background()

	a := add(t, store, "a", "", models.StatusAvailable)
	b := add(t, store, "b", "", models.StatusAvailable)
	add(t, store, "c", "", models.StatusPending)

	clock.Set(time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertContactRecord(ctx, &models.ContactRecord{BuyerID: "x", SellerID: "seller-1", ListingID: b}))
	clock.Set(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertContactRecord(ctx, &models.ContactRecord{BuyerID: "y", SellerID: "seller-1", ListingID: b}))
	require.NoError(t, store.InsertContactRecord(ctx, &models.ContactRecord{BuyerID: "y", SellerID: "seller-1", ListingID: a}))

	stats, err := e.Statistics(ctx, time.Date(2024, 3, 8, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalListings)
	assert.EqualValues(t, 2, stats.ByStatus["available"])
	assert.EqualValues(t, 0, stats.ByStatus["sold"])
	assert.Contains(t, stats.ByStatus, "removed")
	assert.EqualValues(t, 3, stats.ByCategory["books"])
	assert.EqualValues(t, 3, stats.TotalContacts)
	assert.Equal(t, "2024-03-08", stats.ContactsSince)
	assert.EqualValues(t, 3, stats.ContactsInRange)
	assert.Equal(t, []DailyCount{
		{Date: "2024-03-08", Count: 1},
		{Date: "2024-03-09", Count: 0},
		{Date: "2024-03-10", Count: 2},
	}, stats.DailyContacts)

	require.Len(t, stats.Popular, 3)
	assert.Equal(t, b, stats.Popular[0].ListingID)
	assert.EqualValues(t, 2, stats.Popular[0].ContactCount)
	assert.Equal(t, a, stats.Popular[1].ListingID)
}

func TestStatisticsDefaultWindow(t *testing.T) {
	store, clock := dbtest.New(t)
	e := NewEngine(store, 20, 100)
	clock.Set(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	stats, err := e.Statistics(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", stats.ContactsSince)
	assert.Len(t, stats.DailyContacts, 8)
	assert.Empty(t, stats.Popular)
}

func TestStatisticsWindowIsCapped(t *testing.T) {
	store, clock := dbtest.New(t)
	e := NewEngine(store, 20, 100)
	ctx := context.Background()

	clock.Set(time.Date(2020, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertContactRecord(ctx, &models.ContactRecord{BuyerID: "x", SellerID: "s", ListingID: "l"}))
	clock.Set(time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.InsertContactRecord(ctx, &models.ContactRecord{BuyerID: "y", SellerID: "s", ListingID: "l"}))
	clock.Set(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	stats, err := e.Statistics(ctx, time.Date(1, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2023-03-10", stats.ContactsSince)
	assert.Len(t, stats.DailyContacts, maxStatsWindowDays+1)
	assert.EqualValues(t, 2, stats.TotalContacts)
	assert.EqualValues(t, 1, stats.ContactsInRange)
	assert.Equal(t, DailyCount{Date: "2024-03-09", Count: 1}, stats.DailyContacts[len(stats.DailyContacts)-2])
}

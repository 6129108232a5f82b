package listing

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/contactcrypt"
	"secondhand-market/internal/database"
	"secondhand-market/internal/database/dbtest"
	"secondhand-market/internal/identity"
	"secondhand-market/internal/logging"
	"secondhand-market/internal/models"
)

type recordingIndexer struct {
	mu       sync.Mutex
	upserted []string
	removed  []string
}

func (r *recordingIndexer) Upsert(_ context.Context, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, l.ID)
	return nil
}

func (r *recordingIndexer) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

type fixture struct {
	svc     *Service
	store   *database.GormDB
	cipher  *contactcrypt.Cipher
	indexer *recordingIndexer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, _ := dbtest.New(t)
	cipher, err := contactcrypt.New("test-passphrase")
	require.NoError(t, err)
	idx := &recordingIndexer{}
	return &fixture{
		svc:     NewService(store, cipher, idx, logging.Discard()),
		store:   store,
		cipher:  cipher,
		indexer: idx,
	}
}

func validInput() CreateInput {
	return CreateInput{
		Title:       "Road bike",
		Description: "Barely used, 54cm frame",
		Price:       320,
		Category:    "other",
		ContactInfo: "wechat: rider42",
		Images:      []string{"img/1.jpg", "img/2.jpg"},
	}
}

func (f *fixture) create(t *testing.T, seller string) string {
	t.Helper()
	id, err := f.svc.Create(context.Background(), seller, validInput())
	require.NoError(t, err)
	return id
}

func (f *fixture) approve(t *testing.T, id string) {
	t.Helper()
	ok, err := f.store.TransitionStatus(context.Background(), id, models.StatusPending, models.StatusAvailable)
	require.NoError(t, err)
	require.True(t, ok)
}

func strPtr(s string) *string { return &s }

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		modify func(in *CreateInput)
	}{
		{"blank title", func(in *CreateInput) { in.Title = "   " }},
		{"long title", func(in *CreateInput) { in.Title = strings.Repeat("x", MaxTitleLen+1) }},
		{"long description", func(in *CreateInput) { in.Description = strings.Repeat("d", MaxDescriptionLen+1) }},
		{"negative price", func(in *CreateInput) { in.Price = -1 }},
		{"nan price", func(in *CreateInput) { in.Price = math.NaN() }},
		{"infinite price", func(in *CreateInput) { in.Price = math.Inf(1) }},
		{"unknown category", func(in *CreateInput) { in.Category = "cars" }},
		{"blank contact", func(in *CreateInput) { in.ContactInfo = " " }},
		{"long contact", func(in *CreateInput) { in.ContactInfo = strings.Repeat("c", MaxContactLen+1) }},
		{"no images", func(in *CreateInput) { in.Images = nil }},
		{"too many images", func(in *CreateInput) { in.Images = make([]string, MaxImages+1) }},
		{"empty image", func(in *CreateInput) { in.Images = []string{"a.jpg", ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)
			_, err := f.svc.Create(context.Background(), "seller-1", in)
			assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
		})
	}

	n, err := f.store.CountListings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateAcceptsBoundaryValues(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Title = strings.Repeat("标", MaxTitleLen)
	in.Price = 0
	in.Images = make([]string, MaxImages)
	for i := range in.Images {
		in.Images[i] = "img.jpg"
	}
	_, err := f.svc.Create(context.Background(), "seller-1", in)
	assert.NoError(t, err)
}

func TestCreateStoresPendingWithEncryptedContact(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	id, err := f.svc.Create(context.Background(), "seller-1", in)
	require.NoError(t, err)

	l, err := f.store.GetListing(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, l.Status)
	assert.Equal(t, "Barely used, 54cm frame", l.Description)
	require.Len(t, l.Images, 2)
	assert.Equal(t, "img/1.jpg", l.Images[0].ImageURL)
	assert.Equal(t, "img/2.jpg", l.Images[1].ImageURL)

	assert.NotContains(t, l.ContactCipher, "rider42")
	plain, err := f.cipher.Decrypt(l.ContactCipher)
	require.NoError(t, err)
	assert.Equal(t, "wechat: rider42", plain)
}

func TestCreateStoresDescriptionVerbatim(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, desc := range []string{
		"fits if width<height, barely used",
		"literal &lt;tag&gt; text",
		"<b>bold</b> & <i>plain</i>",
		"Line one\n\n\n\nLine two & co",
		"",
	} {
		in := validInput()
		in.Description = desc
		id, err := f.svc.Create(ctx, "seller-1", in)
		require.NoError(t, err)

		l, err := f.store.GetListing(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, desc, l.Description)
	}

	in := validInput()
	in.Description = strings.Repeat("<", MaxDescriptionLen)
	_, err := f.svc.Create(ctx, "seller-1", in)
	assert.NoError(t, err, "length counts characters as submitted")
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "seller-1")
	before, err := f.store.GetListing(ctx, id)
	require.NoError(t, err)

	err = f.svc.Update(ctx, "missing", "seller-1", UpdateInput{Title: strPtr("x")})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = f.svc.Update(ctx, id, "intruder", UpdateInput{Title: strPtr("x")})
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	err = f.svc.Update(ctx, id, "seller-1", UpdateInput{Title: strPtr("")})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	price := 99.5
	require.NoError(t, f.svc.Update(ctx, id, "seller-1", UpdateInput{
		Title:       strPtr("Racing bike"),
		Price:       &price,
		ContactInfo: strPtr("phone: 555-0100"),
	}))

	after, err := f.store.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Racing bike", after.Title)
	assert.Equal(t, 99.5, after.Price)
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, models.StatusPending, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.NotEqual(t, before.ContactCipher, after.ContactCipher)
	plain, err := f.cipher.Decrypt(after.ContactCipher)
	require.NoError(t, err)
	assert.Equal(t, "phone: 555-0100", plain)
	assert.Contains(t, f.indexer.upserted, id)
}

func TestUpdateRefusedOnceSold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "seller-1")
	f.approve(t, id)
	require.NoError(t, f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusSold))

	err := f.svc.Update(ctx, id, "seller-1", UpdateInput{Title: strPtr("Again")})
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	assert.Equal(t, "this listing has already been sold", apperr.MessageOf(err, ""))
}

func TestSetSellerStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "seller-1")

	err := f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusAvailable)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	err = f.svc.SetSellerStatus(ctx, id, "seller-2", models.StatusSold)
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	// pending cannot be sold
	err = f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusSold)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	f.approve(t, id)
	require.NoError(t, f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusSold))
	require.NoError(t, f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusSold), "repeat is idempotent")

	err = f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusRemoved)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	l, err := f.store.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, l.Status)
	assert.Contains(t, f.indexer.removed, id)
}

func TestSellerCanWithdrawPendingListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "seller-1")

	require.NoError(t, f.svc.SetSellerStatus(ctx, id, "seller-1", models.StatusRemoved))
	l, err := f.store.GetListing(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRemoved, l.Status)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "seller-1")

	require.NoError(t, f.svc.Delete(ctx, id, "admin-1"))

	_, err := f.svc.Get(ctx, id, identity.Anonymous)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Contains(t, f.indexer.removed, id)

	err = f.svc.Delete(ctx, id, "admin-1")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestGetShowsContactOnlyToSeller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t, "seller-1")

	v, err := f.svc.Get(ctx, id, identity.Identity{UserID: "seller-1", Role: identity.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, "wechat: rider42", v.ContactInfo)
	assert.Equal(t, "img/1.jpg", v.MainImage)

	v, err = f.svc.Get(ctx, id, identity.Identity{UserID: "buyer-1", Role: identity.RoleUser})
	require.NoError(t, err)
	assert.Empty(t, v.ContactInfo)

	v, err = f.svc.Get(ctx, id, identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, v.ContactInfo)

	v, err = f.svc.Get(ctx, id, identity.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, v.ContactInfo)
}

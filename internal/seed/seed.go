// Package seed inserts demo listings into an empty store.
package seed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/contactcrypt"
	"secondhand-market/internal/database"
	"secondhand-market/internal/models"
)

type demoListing struct {
	title       string
	description string
	price       float64
	category    models.Category
	contact     string
	image       string
}

var demoListings = []demoListing{
	{
		title:       "MacBook Pro 16-inch M3",
		description: "Sealed in box, genuine, 16GB memory and 512GB SSD. Suits development and design work.",
		price:       18999,
		category:    models.CategoryElectronics,
		contact:     "wechat: tech_seller",
		image:       "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=500",
	},
	{
		title:       "iPhone 15 Pro 256GB",
		description: "Titanium body, A17 Pro, all original accessories. Used for two months, like new.",
		price:       7999,
		category:    models.CategoryElectronics,
		contact:     "phone: 13812345678",
		image:       "https://images.unsplash.com/photo-1510557880182-3d4d3cba35a5?w=500",
	},
	{
		title:       "Sony WH-1000XM5 headphones",
		description: "Flagship noise cancelling. Comes with the original case and charging cable.",
		price:       2299,
		category:    models.CategoryElectronics,
		contact:     "wechat: audio_lover",
		image:       "https://images.unsplash.com/photo-1618366712010-f4ae9c647dcb?w=500",
	},
	{
		title:       "Cashmere winter coat",
		description: "100% cashmere, classic cut, all sizes available.",
		price:       899,
		category:    models.CategoryClothing,
		contact:     "wechat: fashion_store",
		image:       "https://images.unsplash.com/photo-1539533113208-f6df8cc8b543?w=500",
	},
	{
		title:       "Computer Systems: A Programmer's Perspective (3rd ed.)",
		description: "Classic textbook, 90% new, no marks or notes.",
		price:       89,
		category:    models.CategoryBooks,
		contact:     "wechat: book_seller",
		image:       "https://images.unsplash.com/photo-1544947950-fa07a98d237f?w=500",
	},
}

// Run inserts the demo listings as available listings of sellerID when the store has no
// listings at all. It returns the number of listings inserted.
func Run(ctx context.Context, store *database.GormDB, cipher *contactcrypt.Cipher, sellerID string, log logrus.FieldLogger) (int, error) {
	n, err := store.CountListings(ctx)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	for i, d := range demoListings {
		sealed, err := cipher.Encrypt(d.contact)
		if err != nil {
			return i, fmt.Errorf("encrypt demo contact: %w", err)
		}
		l := &models.Listing{
			ID:            uuid.NewString(),
			SellerID:      sellerID,
			Title:         d.title,
			Description:   d.description,
			Price:         d.price,
			Category:      d.category,
			ContactCipher: sealed,
			Status:        models.StatusAvailable,
			Images:        []models.ListingImage{{ImageURL: d.image}},
		}
		if err := store.CreateListing(ctx, l); err != nil {
			return i, fmt.Errorf("insert demo listing: %w", err)
		}
	}

	log.WithField("count", len(demoListings)).Info("seeded demo listings")
	return len(demoListings), nil
}

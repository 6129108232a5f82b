// Package listing owns listing creation, seller edits, seller status changes and deletion.
package listing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/contactcrypt"
	"secondhand-market/internal/database"
	"secondhand-market/internal/identity"
	"secondhand-market/internal/metrics"
	"secondhand-market/internal/models"
	"secondhand-market/internal/search"
)

// CreateInput is a new listing as submitted by its seller.
type CreateInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
	ContactInfo string
	Images      []string
}

// UpdateInput carries the fields a seller wants to change. Nil fields are left alone.
type UpdateInput struct {
	Title       *string
	Description *string
	Price       *float64
	Category    *string
	ContactInfo *string
	Images      []string
}

// View is a listing as returned to a reader. ContactInfo is filled only for the seller.
type View struct {
	models.Listing
	MainImage   string `json:"main_image"`
	ContactInfo string `json:"contact_info,omitempty"`
}

type Service struct {
	store   *database.GormDB
	cipher  *contactcrypt.Cipher
	indexer search.Indexer
	log     logrus.FieldLogger
}

func NewService(store *database.GormDB, cipher *contactcrypt.Cipher, indexer search.Indexer, log logrus.FieldLogger) *Service {
	if indexer == nil {
		indexer = search.Nop{}
	}
	return &Service{
		store:   store,
		cipher:  cipher,
		indexer: indexer,
		log:     log.WithField("component", "listing"),
	}
}

// Create validates and stores a new listing in pending status and returns its id.
func (s *Service) Create(ctx context.Context, sellerID string, in CreateInput) (string, error) {
	if sellerID == "" {
		return "", apperr.Forbidden("sign in to create a listing")
	}

	title, err := cleanTitle(in.Title)
	if err != nil {
		return "", err
	}
	description, err := cleanDescription(in.Description)
	if err != nil {
		return "", err
	}
	if err := checkPrice(in.Price); err != nil {
		return "", err
	}
	category, err := checkCategory(in.Category)
	if err != nil {
		return "", err
	}
	contact, err := cleanContact(in.ContactInfo)
	if err != nil {
		return "", err
	}
	images, err := cleanImages(in.Images)
	if err != nil {
		return "", err
	}

	sealed, err := s.cipher.Encrypt(contact)
	if err != nil {
		return "", fmt.Errorf("encrypt contact: %w", err)
	}

	l := &models.Listing{
		ID:            uuid.NewString(),
		SellerID:      sellerID,
		Title:         title,
		Description:   description,
		Price:         in.Price,
		Category:      category,
		ContactCipher: sealed,
		Status:        models.StatusPending,
		Images:        images,
	}
	if err := s.store.CreateListing(ctx, l); err != nil {
		return "", fmt.Errorf("create listing: %w", err)
	}

	metrics.ListingCreated()
	s.log.WithFields(logrus.Fields{"listing_id": l.ID, "seller_id": sellerID}).Info("listing created")
	return l.ID, nil
}

// owned loads a listing and checks that requesterID is its seller.
func (s *Service) owned(ctx context.Context, listingID, requesterID string) (*models.Listing, error) {
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.SellerID != requesterID {
		return nil, apperr.Forbidden("only the seller can change this listing")
	}
	return l, nil
}

// Update applies a partial edit. Sold listings cannot be edited.
func (s *Service) Update(ctx context.Context, listingID, requesterID string, in UpdateInput) error {
	l, err := s.owned(ctx, listingID, requesterID)
	if err != nil {
		return err
	}
	if l.Status == models.StatusSold {
		return apperr.InvalidState(l.Status.UnavailableReason())
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title, err := cleanTitle(*in.Title)
		if err != nil {
			return err
		}
		fields["title"] = title
	}
	if in.Description != nil {
		description, err := cleanDescription(*in.Description)
		if err != nil {
			return err
		}
		fields["description"] = description
	}
	if in.Price != nil {
		if err := checkPrice(*in.Price); err != nil {
			return err
		}
		fields["price"] = *in.Price
	}
	if in.Category != nil {
		category, err := checkCategory(*in.Category)
		if err != nil {
			return err
		}
		fields["category"] = category
	}
	if in.ContactInfo != nil {
		contact, err := cleanContact(*in.ContactInfo)
		if err != nil {
			return err
		}
		sealed, err := s.cipher.Encrypt(contact)
		if err != nil {
			return fmt.Errorf("encrypt contact: %w", err)
		}
		fields["contact_cipher"] = sealed
	}
	var images []models.ListingImage
	if in.Images != nil {
		if images, err = cleanImages(in.Images); err != nil {
			return err
		}
	}

	matched, err := s.store.UpdateListingFields(ctx, listingID, requesterID, fields, images)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if !matched {
		// lost a race with a status change or delete; report what is there now
		current, err := s.store.GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		return apperr.InvalidState(current.Status.UnavailableReason())
	}

	s.syncIndex(ctx, listingID)
	return nil
}

// SetSellerStatus marks a listing sold or removed on behalf of its seller. Repeating the call
// with the listing's current status succeeds without change.
func (s *Service) SetSellerStatus(ctx context.Context, listingID, requesterID string, status models.ListingStatus) error {
	if status != models.StatusSold && status != models.StatusRemoved {
		return apperr.Validation("status must be sold or removed")
	}

	l, err := s.owned(ctx, listingID, requesterID)
	if err != nil {
		return err
	}
	if l.Status == status {
		return nil
	}
	if !models.CanTransition(l.Status, status) {
		return apperr.InvalidState(l.Status.UnavailableReason())
	}

	ok, err := s.store.TransitionStatus(ctx, listingID, l.Status, status)
	if err != nil {
		return fmt.Errorf("set listing status: %w", err)
	}
	if !ok {
		current, err := s.store.GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		if current.Status == status {
			return nil
		}
		return apperr.InvalidState(current.Status.UnavailableReason())
	}

	metrics.StatusTransition("seller", string(status))
	s.log.WithFields(logrus.Fields{"listing_id": listingID, "from": l.Status, "to": status}).Info("seller changed listing status")
	s.removeFromIndex(ctx, listingID)
	return nil
}

// Delete physically removes a listing and its images. Callers enforce the admin role.
func (s *Service) Delete(ctx context.Context, listingID, actorID string) error {
	entry, err := s.store.DeleteListing(ctx, listingID, actorID, models.DeleteReasonAdmin)
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": listingID,
		"seller_id":  entry.SellerID,
		"actor_id":   actorID,
	}).Info("listing deleted")
	s.removeFromIndex(ctx, listingID)
	return nil
}

// Get returns a listing with its images. The plaintext contact is included only when the
// viewer is the seller; everyone else goes through disclosure.
func (s *Service) Get(ctx context.Context, listingID string, viewer identity.Identity) (*View, error) {
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	v := &View{Listing: *l, MainImage: l.MainImage()}
	if !viewer.IsAnonymous() && viewer.UserID == l.SellerID {
		contact, err := s.cipher.Decrypt(l.ContactCipher)
		if err != nil {
			s.log.WithField("listing_id", listingID).WithError(err).Error("stored contact information is corrupt")
		} else {
			v.ContactInfo = contact
		}
	}
	return v, nil
}

func (s *Service) syncIndex(ctx context.Context, listingID string) {
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		s.log.WithField("listing_id", listingID).WithError(err).Warn("reload for search index failed")
		return
	}
	if err := s.indexer.Upsert(ctx, l); err != nil {
		s.log.WithField("listing_id", listingID).WithError(err).Warn("search index update failed")
	}
}

func (s *Service) removeFromIndex(ctx context.Context, listingID string) {
	if err := s.indexer.Remove(ctx, listingID); err != nil {
		s.log.WithField("listing_id", listingID).WithError(err).Warn("search index removal failed")
	}
}

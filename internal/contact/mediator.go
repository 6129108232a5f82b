// Package contact is the only path by which a seller's plaintext contact information reaches
// another user. Every successful disclosure is recorded.
package contact

import (
	"context"

	"github.com/sirupsen/logrus"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/contactcrypt"
	"secondhand-market/internal/database"
	"secondhand-market/internal/metrics"
	"secondhand-market/internal/models"
)

// Limiter throttles disclosures per buyer.
type Limiter interface {
	Allow(key string) bool
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

// Disclosure is the result of a successful disclose call.
type Disclosure struct {
	ListingID   string `json:"listing_id"`
	SellerID    string `json:"seller_id"`
	ContactInfo string `json:"contact_info"`
}

type Mediator struct {
	store   *database.GormDB
	cipher  *contactcrypt.Cipher
	limiter Limiter
	log     logrus.FieldLogger
}

func NewMediator(store *database.GormDB, cipher *contactcrypt.Cipher, limiter Limiter, log logrus.FieldLogger) *Mediator {
	if limiter == nil {
		limiter = allowAll{}
	}
	return &Mediator{
		store:   store,
		cipher:  cipher,
		limiter: limiter,
		log:     log.WithField("component", "contact"),
	}
}

// Disclose reveals the seller's contact information for an available listing to buyerID and
// records the event.
func (m *Mediator) Disclose(ctx context.Context, listingID, buyerID string) (*Disclosure, error) {
	d, err := m.disclose(ctx, listingID, buyerID)
	if err != nil {
		metrics.Disclosure(string(apperr.KindOf(err)))
		return nil, err
	}
	metrics.Disclosure("ok")
	return d, nil
}

func (m *Mediator) disclose(ctx context.Context, listingID, buyerID string) (*Disclosure, error) {
	if buyerID == "" {
		return nil, apperr.Forbidden("sign in to contact the seller")
	}
	if !m.limiter.Allow(buyerID) {
		return nil, apperr.RateLimited("too many contact requests, try again later")
	}

	l, err := m.store.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != models.StatusAvailable {
		return nil, apperr.InvalidState(l.Status.UnavailableReason())
	}
	if l.SellerID == buyerID {
		return nil, apperr.SelfContact("you cannot contact yourself about your own listing")
	}

	contact, err := m.cipher.Decrypt(l.ContactCipher)
	if err != nil {
		m.log.WithField("listing_id", listingID).WithError(err).Error("stored contact information is corrupt")
		return nil, apperr.CorruptData(err, "contact information for this listing is unavailable")
	}

	rec := &models.ContactRecord{
		BuyerID:   buyerID,
		SellerID:  l.SellerID,
		ListingID: l.ID,
	}
	if err := m.store.InsertContactRecord(ctx, rec); err != nil {
		// the buyer still gets the contact; the audit trail is missing one event
		m.log.WithFields(logrus.Fields{
			"listing_id": l.ID,
			"buyer_id":   buyerID,
			"seller_id":  l.SellerID,
		}).WithError(err).Error("failed to record contact disclosure")
	}

	return &Disclosure{
		ListingID:   l.ID,
		SellerID:    l.SellerID,
		ContactInfo: contact,
	}, nil
}

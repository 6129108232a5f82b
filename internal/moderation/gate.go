// Package moderation holds the admin-only review transitions.
package moderation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/database"
	"secondhand-market/internal/identity"
	"secondhand-market/internal/metrics"
	"secondhand-market/internal/models"
	"secondhand-market/internal/search"
)

// action is one admin transition: the status it requires and the status it produces.
type action struct {
	name string
	from models.ListingStatus
	to   models.ListingStatus
}

var (
	approve  = action{name: "approve", from: models.StatusPending, to: models.StatusAvailable}
	reject   = action{name: "reject", from: models.StatusPending, to: models.StatusRemoved}
	takedown = action{name: "takedown", from: models.StatusAvailable, to: models.StatusRemoved}
)

type Gate struct {
	store   *database.GormDB
	indexer search.Indexer
	log     logrus.FieldLogger
}

func NewGate(store *database.GormDB, indexer search.Indexer, log logrus.FieldLogger) *Gate {
	if indexer == nil {
		indexer = search.Nop{}
	}
	return &Gate{
		store:   store,
		indexer: indexer,
		log:     log.WithField("component", "moderation"),
	}
}

// Approve publishes a pending listing.
func (g *Gate) Approve(ctx context.Context, admin identity.Identity, listingID string) error {
	return g.apply(ctx, admin, listingID, approve)
}

// Reject removes a pending listing.
func (g *Gate) Reject(ctx context.Context, admin identity.Identity, listingID string) error {
	return g.apply(ctx, admin, listingID, reject)
}

// Takedown removes a published listing.
func (g *Gate) Takedown(ctx context.Context, admin identity.Identity, listingID string) error {
	return g.apply(ctx, admin, listingID, takedown)
}

func (g *Gate) apply(ctx context.Context, admin identity.Identity, listingID string, a action) error {
	if !admin.IsAdmin() {
		return apperr.Forbidden("administrator role required")
	}

	ok, err := g.store.TransitionStatus(ctx, listingID, a.from, a.to)
	if err != nil {
		return fmt.Errorf("%s listing: %w", a.name, err)
	}
	if !ok {
		l, err := g.store.GetListing(ctx, listingID)
		if err != nil {
			return err
		}
		return apperr.InvalidState("cannot %s a listing that is %s", a.name, l.Status)
	}

	metrics.StatusTransition(a.name, string(a.to))
	g.log.WithFields(logrus.Fields{
		"listing_id": listingID,
		"admin_id":   admin.UserID,
		"action":     a.name,
	}).Info("moderation transition applied")

	if a.to == models.StatusAvailable {
		l, err := g.store.GetListing(ctx, listingID)
		if err == nil {
			err = g.indexer.Upsert(ctx, l)
		}
		if err != nil {
			g.log.WithField("listing_id", listingID).WithError(err).Warn("search index update failed")
		}
	} else if err := g.indexer.Remove(ctx, listingID); err != nil {
		g.log.WithField("listing_id", listingID).WithError(err).Warn("search index removal failed")
	}
	return nil
}

// QueuePage is one page of the review queue.
type QueuePage struct {
	Items      []models.Listing `json:"items"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// Pending returns listings awaiting review, oldest first.
func (g *Gate) Pending(ctx context.Context, admin identity.Identity, page, pageSize int) (*QueuePage, error) {
	if !admin.IsAdmin() {
		return nil, apperr.Forbidden("administrator role required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := g.store.ListListings(ctx, database.ListingFilter{
		Status:      models.StatusPending,
		Limit:       pageSize,
		Offset:      (page - 1) * pageSize,
		OldestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load review queue: %w", err)
	}
	return &QueuePage{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

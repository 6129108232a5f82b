package search

import (
	"context"

	"secondhand-market/internal/models"
)

// Indexer keeps the secondary index in step with listing mutations.
type Indexer interface {
	Upsert(ctx context.Context, l *models.Listing) error
	Remove(ctx context.Context, id string) error
}

// Nop is used when no search backend is configured.
type Nop struct{}

func (Nop) Upsert(context.Context, *models.Listing) error { return nil }

func (Nop) Remove(context.Context, string) error { return nil }

var (
	_ Indexer = Nop{}
	_ Indexer = (*SearchClient)(nil)
)

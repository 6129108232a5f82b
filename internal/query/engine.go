// Package query is the read side: filtered listing pages and aggregate statistics.
package query

import (
	"context"
	"fmt"
	"strings"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/database"
	"secondhand-market/internal/models"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Filters select and page listings. Empty strings mean no constraint.
type Filters struct {
	Category string
	Status   string
	Search   string
	SellerID string
	Page     int
	PageSize int
}

// Item is a listing row as shown in result pages.
type Item struct {
	models.Listing
	MainImage string `json:"main_image"`
}

// Page is one page of listings.
type Page struct {
	Items      []Item `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"total_pages"`
}

type Engine struct {
	store           *database.GormDB
	defaultPageSize int
	maxPageSize     int
}

func NewEngine(store *database.GormDB, defaultPageSize, maxPageSize int) *Engine {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	if defaultPageSize <= 0 || defaultPageSize > maxPageSize {
		defaultPageSize = 20
	}
	return &Engine{
		store:           store,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// List returns one page of listings matching f, newest first. No status restriction is applied
// unless f.Status names one.
func (e *Engine) List(ctx context.Context, f Filters) (*Page, error) {
	filter := database.ListingFilter{
		SellerID: strings.TrimSpace(f.SellerID),
		Search:   strings.TrimSpace(f.Search),
	}

	switch status := strings.TrimSpace(f.Status); status {
	case "", StatusAll:
	default:
		s := models.ListingStatus(status)
		if !s.Valid() {
			return nil, apperr.Validation("unknown status %q", status)
		}
		filter.Status = s
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		cat := models.Category(c)
		if !cat.Valid() {
			return nil, apperr.Validation("unknown category %q", c)
		}
		filter.Category = cat
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = e.defaultPageSize
	}
	if pageSize > e.maxPageSize {
		pageSize = e.maxPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	listings, total, err := e.store.ListListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	items := make([]Item, 0, len(listings))
	for i := range listings {
		items = append(items, Item{Listing: listings[i], MainImage: listings[i].MainImage()})
	}
	return &Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

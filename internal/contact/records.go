package contact

import (
	"context"
	"fmt"

	"secondhand-market/internal/apperr"
	"secondhand-market/internal/database"
)

// RecordPage is one page of disclosure history.
type RecordPage struct {
	Items      []database.ContactRecordRow `json:"items"`
	Page       int                         `json:"page"`
	PageSize   int                         `json:"page_size"`
	Total      int64                       `json:"total"`
	TotalPages int                         `json:"total_pages"`
}

// BuyerRecords lists the contacts buyerID has received, newest first.
func (m *Mediator) BuyerRecords(ctx context.Context, buyerID string, page, pageSize int) (*RecordPage, error) {
	return m.records(ctx, buyerID, page, pageSize, m.store.ContactRecordsByBuyer)
}

// SellerRecords lists who has received sellerID's contact information, newest first.
func (m *Mediator) SellerRecords(ctx context.Context, sellerID string, page, pageSize int) (*RecordPage, error) {
	return m.records(ctx, sellerID, page, pageSize, m.store.ContactRecordsBySeller)
}

type recordQuery func(ctx context.Context, id string, limit, offset int) ([]database.ContactRecordRow, int64, error)

func (m *Mediator) records(ctx context.Context, userID string, page, pageSize int, query recordQuery) (*RecordPage, error) {
	if userID == "" {
		return nil, apperr.Forbidden("sign in to view contact records")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	rows, total, err := query(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("load contact records: %w", err)
	}
	return &RecordPage{
		Items:      rows,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

package search

import (
	"context"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"secondhand-market/internal/models"
)

// Document is the indexed projection of an available listing. It never carries contact data.
type Document struct {
	ID          string  `json:"id"`
	SellerID    string  `json:"seller_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	MainImage   string  `json:"main_image"`
	CreatedAt   int64   `json:"created_at"`
}

// NewDocument projects a listing into its index document.
func NewDocument(l *models.Listing) Document {
	return Document{
		ID:          l.ID,
		SellerID:    l.SellerID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Category:    string(l.Category),
		MainImage:   l.MainImage(),
		CreatedAt:   l.CreatedAt.Unix(),
	}
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "listings"
	}

	return &SearchClient{
		client: client,
		index:  index,
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"category",
		"price",
		"seller_id",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"price",
		"created_at",
	})
	return err
}

// Upsert indexes a listing when it is available and removes it from the index otherwise.
func (s *SearchClient) Upsert(ctx context.Context, l *models.Listing) error {
	if !l.IsAvailable() {
		return s.Remove(ctx, l.ID)
	}
	_, err := s.client.Index(s.index).AddDocuments([]Document{NewDocument(l)}, "id")
	return err
}

// Remove deletes a listing from the index. Removing an unknown id is not an error.
func (s *SearchClient) Remove(_ context.Context, id string) error {
	_, err := s.client.Index(s.index).DeleteDocument(id)
	return err
}

// Reindex replaces the index contents with the given available listings.
func (s *SearchClient) Reindex(_ context.Context, each func(func([]models.Listing) error) error) (int, error) {
	if _, err := s.client.Index(s.index).DeleteAllDocuments(); err != nil {
		return 0, err
	}
	indexed := 0
	err := each(func(batch []models.Listing) error {
		docs := make([]Document, 0, len(batch))
		for i := range batch {
			if batch[i].IsAvailable() {
				docs = append(docs, NewDocument(&batch[i]))
			}
		}
		if len(docs) == 0 {
			return nil
		}
		if _, err := s.client.Index(s.index).AddDocuments(docs, "id"); err != nil {
			return err
		}
		indexed += len(docs)
		return nil
	})
	return indexed, err
}

// SearchResult is one page of index hits.
type SearchResult struct {
	Hits           []Document `json:"hits"`
	TotalHits      int64      `json:"total_hits"`
	ProcessingTime int64      `json:"processing_time_ms"`
}

// Search runs a typo-tolerant query against the index.
func (s *SearchClient) Search(_ context.Context, params Params) (*SearchResult, error) {
	params = params.normalized()

	searchReq := &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if filter := params.filter(); filter != "" {
		searchReq.Filter = filter
	}
	if sort := params.sort(); len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	hits := make([]Document, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		if m, ok := hit.(map[string]interface{}); ok {
			hits = append(hits, parseDocumentFromHit(m))
		}
	}

	return &SearchResult{
		Hits:           hits,
		TotalHits:      searchRes.EstimatedTotalHits,
		ProcessingTime: searchRes.ProcessingTimeMs,
	}, nil
}

// parseDocumentFromHit converts a search hit to a Document
func parseDocumentFromHit(hit map[string]interface{}) Document {
	doc := Document{
		ID:          getString(hit, "id"),
		SellerID:    getString(hit, "seller_id"),
		Title:       getString(hit, "title"),
		Description: getString(hit, "description"),
		Category:    getString(hit, "category"),
		MainImage:   getString(hit, "main_image"),
	}
	if price, ok := hit["price"].(float64); ok {
		doc.Price = price
	}
	if created, ok := hit["created_at"].(float64); ok {
		doc.CreatedAt = int64(created)
	}
	return doc
}

// getString safely extracts a string from map
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/search"
)

// SearchHandler serves typo-tolerant search over available listings.
type SearchHandler struct {
	client *search.SearchClient
	log    logrus.FieldLogger
}

// NewSearchHandler accepts a nil client; searches then answer 503.
func NewSearchHandler(client *search.SearchClient, log logrus.FieldLogger) *SearchHandler {
	return &SearchHandler{
		client: client,
		log:    log.WithField("component", "http"),
	}
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Search handles GET /api/search?q=&category=&min_price=&max_price=&sort=&limit=&offset=
func (h *SearchHandler) Search(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	minPrice, err := optionalFloat(c, "min_price")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_price"})
		return
	}
	maxPrice, err := optionalFloat(c, "max_price")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_price"})
		return
	}

	result, err := h.client.Search(c.Request.Context(), search.Params{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		SortBy:   c.Query("sort"),
		Limit:    int64(queryInt(c, "limit", 20)),
		Offset:   int64(queryInt(c, "offset", 0)),
	})
	if err != nil {
		h.log.WithError(err).Warn("search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "search is temporarily unavailable"})
		return
	}
	c.JSON(http.StatusOK, result)
}

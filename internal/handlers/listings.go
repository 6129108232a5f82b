package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/identity"
	"secondhand-market/internal/listing"
	"secondhand-market/internal/models"
	"secondhand-market/internal/query"
)

// ListingHandler serves the seller and browse endpoints.
type ListingHandler struct {
	listings *listing.Service
	query    *query.Engine
	log      logrus.FieldLogger
}

func NewListingHandler(listings *listing.Service, engine *query.Engine, log logrus.FieldLogger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		query:    engine,
		log:      log.WithField("component", "http"),
	}
}

type createListingRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	ContactInfo string   `json:"contact_info" binding:"required"`
	Images      []string `json:"images" binding:"required"`
}

type updateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	ContactInfo *string  `json:"contact_info"`
	Images      []string `json:"images"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// List returns one page of listings. Anyone may browse; filters come from the query string.
func (h *ListingHandler) List(c *gin.Context) {
	page, err := h.query.List(c.Request.Context(), query.Filters{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		SellerID: c.Query("seller_id"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get returns one listing. Contact information is included only for its seller.
func (h *ListingHandler) Get(c *gin.Context) {
	view, err := h.listings.Get(c.Request.Context(), c.Param("id"), identity.FromContext(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create submits a new listing for review.
func (h *ListingHandler) Create(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.listings.Create(c.Request.Context(), identity.FromContext(c).UserID, listing.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		ContactInfo: req.ContactInfo,
		Images:      req.Images,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     id,
		"status": models.StatusPending,
	})
}

// Update edits the fields present in the body.
func (h *ListingHandler) Update(c *gin.Context) {
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	err := h.listings.Update(c.Request.Context(), id, identity.FromContext(c).UserID, listing.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		ContactInfo: req.ContactInfo,
		Images:      req.Images,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "updated": true})
}

// SetStatus lets a seller mark a listing sold or withdraw it.
func (h *ListingHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	status := models.ListingStatus(req.Status)
	if err := h.listings.SetSellerStatus(c.Request.Context(), id, identity.FromContext(c).UserID, status); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
}

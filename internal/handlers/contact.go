package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/contact"
	"secondhand-market/internal/identity"
)

// ContactHandler serves contact disclosure and the disclosure history.
type ContactHandler struct {
	mediator *contact.Mediator
	log      logrus.FieldLogger
}

func NewContactHandler(mediator *contact.Mediator, log logrus.FieldLogger) *ContactHandler {
	return &ContactHandler{
		mediator: mediator,
		log:      log.WithField("component", "http"),
	}
}

// Disclose reveals the seller's contact information to the calling buyer.
func (h *ContactHandler) Disclose(c *gin.Context) {
	d, err := h.mediator.Disclose(c.Request.Context(), c.Param("id"), identity.FromContext(c).UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// BuyerRecords lists the contacts the caller has received.
func (h *ContactHandler) BuyerRecords(c *gin.Context) {
	page, err := h.mediator.BuyerRecords(c.Request.Context(), identity.FromContext(c).UserID,
		queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// SellerRecords lists who has received the caller's contact information.
func (h *ContactHandler) SellerRecords(c *gin.Context) {
	page, err := h.mediator.SellerRecords(c.Request.Context(), identity.FromContext(c).UserID,
		queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

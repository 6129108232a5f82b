package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secondhand-market/internal/cleanup"
	"secondhand-market/internal/identity"
	"secondhand-market/internal/listing"
	"secondhand-market/internal/moderation"
	"secondhand-market/internal/query"
	"secondhand-market/internal/scheduler"
	"secondhand-market/internal/snapshot"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	gate            *moderation.Gate
	listings        *listing.Service
	query           *query.Engine
	snapshotService *snapshot.Service
	cleanupService  *cleanup.Service
	scheduler       *scheduler.Scheduler
	log             logrus.FieldLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	gate *moderation.Gate,
	listings *listing.Service,
	engine *query.Engine,
	snapshotService *snapshot.Service,
	cleanupService *cleanup.Service,
	sched *scheduler.Scheduler,
	log logrus.FieldLogger,
) *AdminHandler {
	return &AdminHandler{
		gate:            gate,
		listings:        listings,
		query:           engine,
		snapshotService: snapshotService,
		cleanupService:  cleanupService,
		scheduler:       sched,
		log:             log.WithField("component", "admin"),
	}
}

// GetPending returns the review queue, oldest first
func (h *AdminHandler) GetPending(c *gin.Context) {
	page, err := h.gate.Pending(c.Request.Context(), identity.FromContext(c),
		queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Approve publishes a pending listing
func (h *AdminHandler) Approve(c *gin.Context) {
	h.moderate(c, "approve", h.gate.Approve)
}

// Reject removes a pending listing
func (h *AdminHandler) Reject(c *gin.Context) {
	h.moderate(c, "reject", h.gate.Reject)
}

// Takedown removes an available listing
func (h *AdminHandler) Takedown(c *gin.Context) {
	h.moderate(c, "takedown", h.gate.Takedown)
}

type moderationFunc func(ctx context.Context, admin identity.Identity, listingID string) error

func (h *AdminHandler) moderate(c *gin.Context, action string, fn moderationFunc) {
	id := c.Param("id")
	admin := identity.FromContext(c)
	if err := fn(c.Request.Context(), admin, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.WithFields(logrus.Fields{
		"action":     action,
		"listing_id": id,
		"admin_id":   admin.UserID,
	}).Info("moderation action applied")
	c.JSON(http.StatusOK, gin.H{"id": id, "action": action})
}

// DeleteListing physically deletes a listing and its images
func (h *AdminHandler) DeleteListing(c *gin.Context) {
	id := c.Param("id")
	if err := h.listings.Delete(c.Request.Context(), id, identity.FromContext(c).UserID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}

// GetStats returns listing and disclosure statistics. The optional since parameter
// (YYYY-MM-DD) bounds the daily breakdown.
func (h *AdminHandler) GetStats(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
			return
		}
		since = t
	}

	stats, err := h.query.Statistics(c.Request.Context(), since)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetSnapshots returns daily snapshots and the day-over-day changes between them
func (h *AdminHandler) GetSnapshots(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	snaps, err := h.snapshotService.History(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snaps,
		"changes":   snapshot.DetectChanges(snaps),
		"count":     len(snaps),
	})
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := h.cleanupService.GetRecentDeleteLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetDeleteStats returns statistics about deleted listings
func (h *AdminHandler) GetDeleteStats(c *gin.Context) {
	stats, err := h.cleanupService.GetDeleteStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RunCleanup purges expired removed listings using the configured retention.
// The calling admin is recorded as the actor of every deletion.
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	admin := identity.FromContext(c)
	result, err := h.cleanupService.Purge(c.Request.Context(), admin.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.WithFields(logrus.Fields{
		"admin_id": admin.UserID,
		"deleted":  result.DeletedCount,
		"dry_run":  result.DryRun,
	}).Info("cleanup run")
	c.JSON(http.StatusOK, result)
}

// TriggerRun runs the daily jobs synchronously and returns their report
func (h *AdminHandler) TriggerRun(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is not configured"})
		return
	}
	c.JSON(http.StatusOK, h.scheduler.RunNow(c.Request.Context()))
}

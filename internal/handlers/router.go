package handlers

import (
	"github.com/gin-gonic/gin"

	"secondhand-market/internal/identity"
)

// Routes bundles the handlers mounted under /api.
type Routes struct {
	Listings *ListingHandler
	Contacts *ContactHandler
	Search   *SearchHandler
	Admin    *AdminHandler
}

// Register mounts every API route on r. Authentication is enforced here; ownership and role
// checks for individual listings happen in the services.
func (rt Routes) Register(r gin.IRouter, verifier *identity.Verifier) {
	api := r.Group("/api")

	public := api.Group("", verifier.Optional())
	{
		public.GET("/listings", rt.Listings.List)
		public.GET("/listings/:id", rt.Listings.Get)
		public.GET("/search", rt.Search.Search)
	}

	user := api.Group("", verifier.Required())
	{
		user.POST("/listings", rt.Listings.Create)
		user.PUT("/listings/:id", rt.Listings.Update)
		user.PUT("/listings/:id/status", rt.Listings.SetStatus)
		user.POST("/listings/:id/contact", rt.Contacts.Disclose)
		user.GET("/records/buyer", rt.Contacts.BuyerRecords)
		user.GET("/records/seller", rt.Contacts.SellerRecords)
	}

	admin := api.Group("/admin", verifier.Required(), identity.AdminOnly())
	{
		admin.GET("/listings/pending", rt.Admin.GetPending)
		admin.PUT("/listings/:id/approve", rt.Admin.Approve)
		admin.PUT("/listings/:id/reject", rt.Admin.Reject)
		admin.PUT("/listings/:id/takedown", rt.Admin.Takedown)
		admin.DELETE("/listings/:id", rt.Admin.DeleteListing)
		admin.GET("/stats", rt.Admin.GetStats)
		admin.GET("/snapshots", rt.Admin.GetSnapshots)
		admin.GET("/delete-logs", rt.Admin.GetDeleteLogs)
		admin.GET("/delete-stats", rt.Admin.GetDeleteStats)
		admin.POST("/cleanup/run", rt.Admin.RunCleanup)
		admin.POST("/scheduler/run", rt.Admin.TriggerRun)
	}
}

package commission

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts owner-only commission routes. The caller applies the
// auth and role middleware to r.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	rules := r.Group("/rules")
	{
		rules.GET("", h.ListRules)
		rules.POST("", h.CreateRule)
		rules.GET("/:id", h.GetRule)
		rules.PUT("/:id", h.UpdateRule)
		rules.DELETE("/:id", h.DeleteRule)
		rules.POST("/:id/default", h.SetDefault)
		rules.POST("/:id/calculate", h.Calculate)
	}

	assignments := r.Group("/assignments")
	{
		assignments.GET("", h.ListAssignments)
		assignments.PUT("", h.AssignArtist)
		assignments.DELETE("/:artist_id", h.UnassignArtist)
	}

	earned := r.Group("/earned")
	{
		earned.GET("", h.ListEarned)
		earned.POST("", h.RecordEarned)
		earned.GET("/:id", h.GetEarned)
	}
}

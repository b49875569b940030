package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the dispatch log under an owner-only group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	events := r.Group("/notifications/events")
	{
		events.GET("", h.ListEvents)
		events.POST("/:id/retry", h.RetryEvent)
	}
}

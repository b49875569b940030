package payperiod

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts pay period routes under an owner-only group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	periods := r.Group("/pay-periods")
	{
		periods.GET("", h.List)
		periods.POST("", h.Create)
		periods.GET("/:id", h.Get)
		periods.POST("/:id/assign", h.Assign)
		periods.POST("/:id/unassign", h.Unassign)
		periods.POST("/:id/collect", h.Collect)
		periods.POST("/:id/close", h.Close)
		periods.POST("/:id/mark-paid", h.MarkPaid)
		periods.GET("/:id/report", h.Report)
	}
}

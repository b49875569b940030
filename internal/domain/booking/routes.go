package booking

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the unauthenticated intake endpoint.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/studios/:studio_id/booking-requests", h.PublicCreate)
}

// RegisterRoutes mounts staff booking routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	requests := r.Group("/booking-requests")
	{
		requests.GET("", h.List)
		requests.POST("", h.Create)
		requests.GET("/:id", h.Get)
		requests.PATCH("/:id", h.Update)
		requests.DELETE("/:id", h.Delete)

		// Lifecycle actions
		requests.POST("/:id/deposit-request", h.SendDepositRequest)
		requests.POST("/:id/confirm", h.Confirm)
		requests.POST("/:id/complete", h.Complete)
	}
}

// RegisterInternalRoutes mounts collaborator webhooks behind the internal token.
func RegisterInternalRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/booking-requests/:id/deposit-payment", h.RecordDepositPayment)
}

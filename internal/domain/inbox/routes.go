package inbox

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts staff inbox routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	inbox := r.Group("/inbox")
	{
		inbox.GET("/unread", h.UnreadCount)
		inbox.GET("/ws", h.WebSocket)

		inbox.GET("/conversations", h.ListConversations)
		inbox.POST("/conversations", h.CreateConversation)
		inbox.GET("/conversations/:id", h.GetConversation)
		inbox.PUT("/conversations/:id/assign", h.Assign)
		inbox.PUT("/conversations/:id/status", h.UpdateStatus)
		inbox.POST("/conversations/:id/messages", h.SendMessage)
		inbox.POST("/conversations/:id/read", h.MarkRead)
	}
}

// RegisterInternalRoutes mounts email/SMS collaborator callbacks.
func RegisterInternalRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/inbox/conversations/:id/inbound", h.ReceiveInbound)
	r.POST("/inbox/messages/:id/delivery", h.RecordDelivery)
}

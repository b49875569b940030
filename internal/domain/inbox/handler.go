package inbox

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tattoostudio/internal/middleware"
	"tattoostudio/internal/pkg/response"
	"tattoostudio/internal/pkg/utils"
)

type Handler struct {
	service *Service
	hub     *Hub
	log     *zap.Logger
}

func NewHandler(service *Service, hub *Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, hub: hub, log: log}
}

// CreateConversation godoc
// @Summary Open a conversation with a client
// @Tags Inbox
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /inbox/conversations [post]
func (h *Handler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	conv, err := h.service.CreateConversation(c.Request.Context(), middleware.StudioID(c), CreateConversationInput{
		ClientName:       req.ClientName,
		ClientEmail:      req.ClientEmail,
		ClientPhone:      req.ClientPhone,
		Subject:          req.Subject,
		BookingRequestID: req.BookingRequestID,
		AssigneeID:       req.AssigneeID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @Summary List conversations with unread counts
// @Tags Inbox
// @Security BearerAuth
// @Param status query string false "unread, pending or resolved"
// @Param assignee_id query int false "Assignee"
// @Param unassigned query bool false "Only unassigned"
// @Success 200 {object} map[string]interface{}
// @Router /inbox/conversations [get]
func (h *Handler) ListConversations(c *gin.Context) {
	assignee, ok := utils.QueryInt64(c, "assignee_id")
	if !ok {
		return
	}
	f := ListFilter{AssigneeID: assignee, Unassigned: c.Query("unassigned") == "true"}
	if raw := c.Query("status"); raw != "" {
		st := Status(raw)
		if !st.Valid() {
			response.Error(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid status")
			return
		}
		f.Status = &st
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))

	items, total, err := h.service.ListConversations(c.Request.Context(), middleware.StudioID(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) GetConversation(c *gin.Context) {
	d, err := h.service.GetConversation(c.Request.Context(), middleware.StudioID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, viewDetail(d))
}

func (h *Handler) Assign(c *gin.Context) {
	var req assignRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	conv, err := h.service.Assign(c.Request.Context(), middleware.StudioID(c), c.Param("id"), req.AssigneeID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	conv, err := h.service.UpdateStatus(c.Request.Context(), middleware.StudioID(c), c.Param("id"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

// SendMessage godoc
// @Summary Reply to a client or add an internal note
// @Tags Inbox
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 201 {object} map[string]interface{}
// @Router /inbox/conversations/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req outboundRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	res, err := h.service.SendOutbound(c.Request.Context(), middleware.StudioID(c), c.Param("id"),
		middleware.UserID(c), OutboundInput{Channel: req.Channel, Body: req.Body})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusCreated, viewMessage(res.Message), res.Warnings)
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.service.MarkRead(c.Request.Context(), middleware.StudioID(c), c.Param("id"), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": n})
}

func (h *Handler) UnreadCount(c *gin.Context) {
	var assignee *int64
	if c.Query("mine") == "true" {
		id := middleware.UserID(c)
		assignee = &id
	}
	n, err := h.service.UnreadCount(c.Request.Context(), middleware.StudioID(c), assignee)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread": n})
}

// WebSocket godoc
// @Summary Realtime inbox events
// @Tags Inbox
// @Param token query string true "Access token"
// @Router /inbox/ws [get]
func (h *Handler) WebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.ServeWS(conn, middleware.UserID(c), middleware.StudioID(c))
}

// ReceiveInbound is called by the email/SMS collaborator for client replies.
func (h *Handler) ReceiveInbound(c *gin.Context) {
	var req inboundRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	m, err := h.service.ReceiveInbound(c.Request.Context(), c.Param("id"), InboundInput{
		Channel: req.Channel,
		Body:    req.Body,
		SentAt:  req.SentAt,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, viewMessage(m))
}

// RecordDelivery godoc
// @Summary Delivery receipt for an outbound email or SMS
// @Tags Internal
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} map[string]interface{}
// @Router /internal/inbox/messages/{id}/delivery [post]
func (h *Handler) RecordDelivery(c *gin.Context) {
	var req deliveryRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	m, err := h.service.RecordDelivery(c.Request.Context(), c.Param("id"), DeliveryInput{
		Status: req.Status,
		Reason: req.Reason,
		At:     req.At,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, viewMessage(m))
}

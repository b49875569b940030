package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tattoostudio/internal/middleware"
	"tattoostudio/internal/pkg/response"
	"tattoostudio/internal/pkg/utils"
)

type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// ListEvents godoc
// @Summary Recent outbound notification events
// @Tags Notifications
// @Security BearerAuth
// @Param type query string false "Event type"
// @Param failed query bool false "Only undelivered events"
// @Success 200 {object} map[string]interface{}
// @Router /notifications/events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	f := ListFilter{
		Type:       Type(c.Query("type")),
		FailedOnly: c.Query("failed") == "true",
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	items, err := h.dispatcher.List(c.Request.Context(), middleware.StudioID(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if items == nil {
		items = []Event{}
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) RetryEvent(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.dispatcher.Retry(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

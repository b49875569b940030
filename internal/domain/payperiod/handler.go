package payperiod

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tattoostudio/internal/middleware"
	"tattoostudio/internal/pkg/response"
	"tattoostudio/internal/pkg/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary Open a pay period
// @Tags PayPeriods
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /commissions/pay-periods [post]
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), middleware.StudioID(c), CreateInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	var status *Status
	if raw := c.Query("status"); raw != "" {
		st := Status(raw)
		status = &st
	}
	out, err := h.service.List(c.Request.Context(), middleware.StudioID(c), status)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) Assign(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req commissionIDsRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	n, err := h.service.Assign(c.Request.Context(), middleware.StudioID(c), id, req.CommissionIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assigned": n})
}

func (h *Handler) Unassign(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req commissionIDsRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	n, err := h.service.Unassign(c.Request.Context(), middleware.StudioID(c), id, req.CommissionIDs)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unassigned": n})
}

func (h *Handler) Collect(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	n, err := h.service.CollectEligible(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"assigned": n})
}

func (h *Handler) Close(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Close(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req markPaidRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	p, err := h.service.MarkPaid(c.Request.Context(), middleware.StudioID(c), id, req.PaymentReference)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Report godoc
// @Summary Payout totals per artist for a pay period
// @Tags PayPeriods
// @Security BearerAuth
// @Param id path int true "Pay period ID"
// @Router /commissions/pay-periods/{id}/report [get]
func (h *Handler) Report(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	rep, err := h.service.Report(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rep)
}

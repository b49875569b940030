package booking

import (
	"net/http"
	"strconv"

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

// PublicCreate godoc
// @Summary Submit a booking request from the studio's intake form
// @Tags BookingRequests
// @Accept json
// @Produce json
// @Param studio_id path int true "Studio ID"
// @Success 201 {object} map[string]interface{}
// @Router /public/studios/{studio_id}/booking-requests [post]
func (h *Handler) PublicCreate(c *gin.Context) {
	studioID, ok := utils.ParamID(c, "studio_id")
	if !ok {
		return
	}
	var req publicCreateRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	b, err := h.service.Create(c.Request.Context(), studioID, req.toInput())
	if err != nil {
		response.FromError(c, err)
		return
	}
	// clients only learn what they need to follow up
	response.Success(c, http.StatusCreated, gin.H{
		"id":             b.ID,
		"reference_code": b.ReferenceCode,
		"status":         b.Status,
	})
}

func (h *Handler) Create(c *gin.Context) {
	var req staffCreateRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	in := req.toInput()
	in.ArtistID = req.ArtistID
	in.InternalNotes = req.InternalNotes
	b, err := h.service.Create(c.Request.Context(), middleware.StudioID(c), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, view(b))
}

func (h *Handler) List(c *gin.Context) {
	artistID, ok := utils.QueryInt64(c, "artist_id")
	if !ok {
		return
	}
	f := ListFilter{ArtistID: artistID}
	if raw := c.Query("status"); raw != "" {
		st := Status(raw)
		if !st.Valid() {
			response.Error(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid status")
			return
		}
		f.Status = &st
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, total, err := h.service.List(c.Request.Context(), middleware.StudioID(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	views := make([]bookingView, 0, len(items))
	for i := range items {
		views = append(views, view(&items[i]))
	}
	response.Success(c, http.StatusOK, gin.H{"items": views, "total": total})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view(b))
}

// Update godoc
// @Summary Edit a booking request (status, quote, notes)
// @Description Writing quoted_price on a pending or reviewing request moves it to quoted.
// @Tags BookingRequests
// @Security BearerAuth
// @Param id path int true "Booking request ID"
// @Router /booking-requests/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req updateRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	b, err := h.service.Update(c.Request.Context(), middleware.StudioID(c), id, req.toPatch())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view(b))
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.StudioID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) SendDepositRequest(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req depositRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	res, err := h.service.SendDepositRequest(c.Request.Context(), middleware.StudioID(c), id, DepositRequestInput{
		Amount:        req.Amount,
		ExpiresInDays: req.ExpiresInDays,
		Message:       req.Message,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, view(res.Booking), res.Warnings)
}

func (h *Handler) Confirm(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req confirmRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	res, err := h.service.ConfirmBooking(c.Request.Context(), middleware.StudioID(c), id, ConfirmInput{
		ScheduledDate: req.ScheduledDate,
		DurationHours: req.DurationHours,
		SendEmail:     req.SendEmail,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, view(res.Booking), res.Warnings)
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if c.Request.ContentLength != 0 && !utils.BindJSON(c, &req) {
		return
	}
	res, err := h.service.Complete(c.Request.Context(), middleware.StudioID(c), id, CompleteInput{ServiceTotal: req.ServiceTotal})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.SuccessWithWarnings(c, http.StatusOK, gin.H{
		"booking":    view(res.Booking),
		"commission": res.Commission,
	}, res.Warnings)
}

// RecordDepositPayment is called by the payment provider, not by staff.
func (h *Handler) RecordDepositPayment(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req depositPaymentRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	in := DepositPaymentInput{PaymentReference: req.PaymentReference, Amount: req.Amount}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}
	b, err := h.service.RecordDepositPayment(c.Request.Context(), id, in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":              b.ID,
		"status":          b.Status,
		"deposit_paid_at": b.DepositPaidAt,
	})
}

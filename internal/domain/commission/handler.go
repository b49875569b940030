package commission

import (
	"net/http"
	"time"

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

// ---- Rules ----

// CreateRule godoc
// @Summary Create a commission rule
// @Tags Commissions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /commissions/rules [post]
func (h *Handler) CreateRule(c *gin.Context) {
	var req ruleRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	rule, err := h.service.CreateRule(c.Request.Context(), middleware.StudioID(c), req.toInput())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rule)
}

func (h *Handler) UpdateRule(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req ruleRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	rule, err := h.service.UpdateRule(c.Request.Context(), middleware.StudioID(c), id, req.toInput())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rule)
}

func (h *Handler) DeleteRule(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRule(c.Request.Context(), middleware.StudioID(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) GetRule(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	rule, err := h.service.GetRule(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rule)
}

func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.service.ListRules(c.Request.Context(), middleware.StudioID(c), c.Query("active") == "true")
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rules)
}

func (h *Handler) SetDefault(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	rule, err := h.service.SetDefault(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rule)
}

// Calculate godoc
// @Summary Preview a commission split without recording it
// @Tags Commissions
// @Security BearerAuth
// @Param id path int true "Rule ID"
// @Router /commissions/rules/{id}/calculate [post]
func (h *Handler) Calculate(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	var req calculateRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	calc, err := h.service.CalculateForRule(c.Request.Context(), middleware.StudioID(c), id, req.ServiceTotal)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, calc)
}

// ---- Assignments ----

func (h *Handler) AssignArtist(c *gin.Context) {
	var req assignRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	a, err := h.service.AssignArtist(c.Request.Context(), middleware.StudioID(c), req.ArtistID, req.RuleID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

func (h *Handler) UnassignArtist(c *gin.Context) {
	artistID, ok := utils.ParamID(c, "artist_id")
	if !ok {
		return
	}
	if err := h.service.UnassignArtist(c.Request.Context(), middleware.StudioID(c), artistID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unassigned": true})
}

func (h *Handler) ListAssignments(c *gin.Context) {
	out, err := h.service.ListAssignments(c.Request.Context(), middleware.StudioID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// ---- Earned ----

// RecordEarned lets an owner retry commission recording for a completed
// booking. Repeated calls return the existing record.
func (h *Handler) RecordEarned(c *gin.Context) {
	var req recordEarnedRequest
	if !utils.BindJSON(c, &req) {
		return
	}
	in := RecordInput{
		StudioID:         middleware.StudioID(c),
		ArtistID:         req.ArtistID,
		BookingRequestID: req.BookingRequestID,
		ServiceTotal:     req.ServiceTotal,
	}
	if req.EarnedAt != nil {
		in.EarnedAt = *req.EarnedAt
	}
	e, err := h.service.RecordEarned(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, e)
}

func (h *Handler) ListEarned(c *gin.Context) {
	artistID, ok := utils.QueryInt64(c, "artist_id")
	if !ok {
		return
	}
	periodID, ok := utils.QueryInt64(c, "pay_period_id")
	if !ok {
		return
	}
	from, ok := utils.QueryTime(c, "from")
	if !ok {
		return
	}
	before, ok := utils.QueryTime(c, "before")
	if !ok {
		return
	}
	f := EarnedFilter{
		ArtistID:       artistID,
		PayPeriodID:    periodID,
		UnassignedOnly: c.Query("unassigned") == "true",
		EarnedFrom:     utcPtr(from),
		EarnedBefore:   utcPtr(before),
	}
	out, err := h.service.ListEarned(c.Request.Context(), middleware.StudioID(c), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) GetEarned(c *gin.Context) {
	id, ok := utils.ParamID(c, "id")
	if !ok {
		return
	}
	e, err := h.service.GetEarned(c.Request.Context(), middleware.StudioID(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

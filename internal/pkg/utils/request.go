package utils

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tattoostudio/internal/pkg/response"
	"tattoostudio/internal/pkg/validator"
)

// ParamID parses a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// BindJSON decodes the body into dst and runs struct validation. On failure it
// writes the error response and returns false.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return false
	}
	if errs := validator.Validate(dst); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "INVALID_INPUT", "Validation failed", errs)
		return false
	}
	return true
}

// QueryInt64 returns nil when the query parameter is absent.
func QueryInt64(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid "+name)
		return nil, false
	}
	return &v, true
}

// QueryTime accepts RFC 3339 timestamps or plain dates.
func QueryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if v, err := time.Parse(layout, raw); err == nil {
			return &v, true
		}
	}
	response.Error(c, http.StatusBadRequest, "INVALID_QUERY", "Invalid "+name)
	return nil, false
}

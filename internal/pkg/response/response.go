package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tattoostudio/internal/pkg/apperr"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// SuccessWithWarnings is used when the operation committed but a collaborator
// (email, sms, payment link delivery) reported a non-fatal failure.
func SuccessWithWarnings(c *gin.Context, statusCode int, data interface{}, warnings []string) {
	body := gin.H{
		"success": true,
		"data":    data,
	}
	if len(warnings) > 0 {
		body["warnings"] = warnings
	}
	c.JSON(statusCode, body)
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the envelope for a domain error. Validation and state
// violations never surface as 500.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		Error(c, status, string(apperr.KindInternal), "Internal server error")
		return
	}
	Error(c, status, string(kind), apperr.Message(err))
}

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput, apperr.KindInvalidRuleConfiguration:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidState, apperr.KindInvalidTransition, apperr.KindAlreadyAssigned, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

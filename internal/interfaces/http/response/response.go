// internal/interfaces/http/response/response.go
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/pkg/apperr"
	"github.com/your-org/storefront-backend/internal/pkg/validation"
)

// OK writes a 200 envelope
func OK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    data,
	})
}

// Created writes a 201 envelope
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"data":    data,
	})
}

// Error renders err with the status its code maps to. Internal errors are
// attached to the gin context for the request logger and rendered with a
// generic message.
func Error(c *gin.Context, err error) {
	code := apperr.Code(err)
	if code == apperr.EINTERNAL {
		_ = c.Error(err)
	}

	body := gin.H{
		"error": apperr.Message(err),
		"code":  code,
	}
	if e, ok := apperr.As(err); ok {
		if e.Reason != "" {
			body["reason"] = e.Reason
		}
		if e.VariantID != 0 {
			body["variant_id"] = e.VariantID
		}
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(code), body)
}

// BadRequest renders a binding failure
func BadRequest(c *gin.Context, err error) {
	var details interface{} = err.Error()
	if fields := validation.FieldErrors(err); fields != nil {
		details = fields
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"code":    apperr.EINVALID,
		"details": details,
	})
}

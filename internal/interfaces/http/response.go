package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// SuccessResponse writes the success envelope with a 200 status.
func SuccessResponse(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusSuccess,
		"data":   data,
	})
}

// ErrorResponse writes the error envelope.
func ErrorResponse(c *gin.Context, message string, code int) {
	c.JSON(code, gin.H{
		"status":  statusError,
		"message": message,
	})
}

package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryapp/pkg/lifecycle"
)

func statusFor(kind lifecycle.Kind) int {
	switch kind {
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindConflict:
		return http.StatusConflict
	case lifecycle.KindValidation:
		return http.StatusBadRequest
	case lifecycle.KindDependency:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(lifecycle.KindOf(err))
	code := lifecycle.CodeOf(err)
	if code == "" {
		code = "internal_error"
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": lifecycle.ErrInvalidInput.Code})
}

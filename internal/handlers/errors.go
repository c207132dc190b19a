package handlers

import (
	"errors"
	"net/http"

	"github.com/ArowuTest/topup-callback/internal/services"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP status codes. Unclassified errors are 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. 500 bodies never carry the underlying error.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"status": "error", "error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"status": "error", "error": err.Error()})
}

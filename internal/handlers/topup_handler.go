package handlers

import (
	"net/http"

	"github.com/ArowuTest/topup-callback/internal/services"
	"github.com/gin-gonic/gin"
)

// TopupHandler handles the originator intake API
type TopupHandler struct {
	requestService *services.RequestService
}

// NewTopupHandler creates a new TopupHandler
func NewTopupHandler(requestService *services.RequestService) *TopupHandler {
	return &TopupHandler{requestService: requestService}
}

// CreateRequest handles POST /api/v1/requests
func (h *TopupHandler) CreateRequest(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Invalid request body: " + err.Error()})
		return
	}

	req, err := h.requestService.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GetRequest handles GET /api/v1/requests/:request_id
func (h *TopupHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

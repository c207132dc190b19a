package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/services"
	"github.com/ArowuTest/topup-callback/internal/utils"
	"github.com/gin-gonic/gin"
)

// CallbackHandler handles provider callbacks and status lookups
type CallbackHandler struct {
	callbackService *services.CallbackService
}

// NewCallbackHandler creates a new CallbackHandler
func NewCallbackHandler(callbackService *services.CallbackService) *CallbackHandler {
	return &CallbackHandler{callbackService: callbackService}
}

// HandleCallback handles POST /callback. Fields may arrive as a JSON body, a form body or
// query parameters; body values win over query values.
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	fields, err := callbackFields(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "malformed request body"})
		return
	}

	in := services.CallbackInput{
		RequestID:      utils.RawString(fields("request_id")),
		Status:         utils.RawString(fields("status")),
		Message:        utils.RawString(fields("message")),
		ReceivedAmount: utils.CoerceAmount(fields("received_amount")),
		PartnerID:      utils.RawString(fields("partner_id")),
		Sign:           utils.RawString(fields("sign")),
		Code:           utils.RawString(fields("code")),
		Serial:         utils.RawString(fields("serial")),
	}

	result, err := h.callbackService.HandleCallback(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStatus handles GET /callback?request_id=, GET /callback-check and GET /callback/:request_id
func (h *CallbackHandler) GetStatus(c *gin.Context) {
	requestID := utils.FirstNonEmpty(c.Param("request_id"), c.Query("request_id"))
	result, err := h.callbackService.Lookup(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

const maxFormMemory = 1 << 20

// callbackFields returns a lookup over the request body and query string.
func callbackFields(c *gin.Context) (func(string) any, error) {
	query := c.Request.URL.Query()
	fromQuery := func(key string) any {
		if v := query.Get(key); v != "" {
			return v
		}
		return nil
	}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		body := map[string]any{}
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		if err := dec.Decode(&body); err != nil && err != io.EOF {
			return nil, err
		}
		return func(key string) any {
			if v, ok := body[key]; ok && v != nil && v != "" {
				return v
			}
			return fromQuery(key)
		}, nil
	}

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	form := c.Request.PostForm
	return func(key string) any {
		if v := form.Get(key); v != "" {
			return v
		}
		return fromQuery(key)
	}, nil
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const unavailableMessage = "Embedding service is not available. Please check the server logs."

// DegradedHandler answers every computing endpoint when the embedder never
// initialized at startup. It performs no file I/O and no inference; the
// choice between live and degraded handlers is made once during router setup.
type DegradedHandler struct{}

// NewDegradedHandler creates the stub handler set.
func NewDegradedHandler() *DegradedHandler {
	return &DegradedHandler{}
}

// Index renders the form page so the flash message has somewhere to appear.
func (h *DegradedHandler) Index(c *gin.Context) {
	(&PageHandler{}).Index(c)
}

// Upload rejects form submissions with a flash message.
func (h *DegradedHandler) Upload(c *gin.Context) {
	flashAndRedirect(c, unavailableMessage)
}

// API rejects JSON requests with 503.
func (h *DegradedHandler) API(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": unavailableMessage,
	})
}

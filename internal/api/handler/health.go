package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	degraded bool
}

// NewHealthHandler creates a new health handler. degraded marks the service
// as running without an initialized embedder.
func NewHealthHandler(degraded bool) *HealthHandler {
	return &HealthHandler{degraded: degraded}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	if h.degraded {
		c.JSON(http.StatusOK, gin.H{
			"status": "degraded",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

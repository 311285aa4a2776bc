package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noot-app/carcinogenscan/internal/orchestrator"
)

// writeError maps orchestrator errors onto HTTP statuses
func (s *Server) writeError(c *gin.Context, err error) {
	var vErr *orchestrator.ValidationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.Is(err, orchestrator.ErrBusy), errors.Is(err, orchestrator.ErrWrongMode):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orchestrator.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service shutting down"})
	default:
		s.log.Error("Request failed", "error", err, "path", c.FullPath())
		s.sendErrorResponse(c, err, "internal error", http.StatusInternalServerError)
	}
}

// sendErrorResponse sends an error response, with detailed error in development mode
func (s *Server) sendErrorResponse(c *gin.Context, err error, message string, statusCode int) {
	if s.config.IsDevelopment() {
		c.JSON(statusCode, gin.H{"error": fmt.Sprintf("%s: %v", message, err)})
		return
	}
	c.JSON(statusCode, gin.H{"error": message})
}

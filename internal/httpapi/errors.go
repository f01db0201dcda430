package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piquetdestream/piquet/internal/stream"
)

// statusFor maps an engine error to its HTTP status.
func statusFor(err error, p stream.Principal) int {
	switch {
	case errors.Is(err, stream.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, stream.ErrPermissionDenied):
		if !p.Authenticated() {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, stream.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, stream.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, stream.ErrInvalidState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	p := principalFrom(c)
	status := statusFor(err, p)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("actor", p.UserID),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

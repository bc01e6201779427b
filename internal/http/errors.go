package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photo-share/internal/apperror"
)

// writeError is the single place where failures become HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	c.Set(ctxErrorKind, kind.String())

	var appErr *apperror.Error
	if kind == apperror.KindInternal || !errors.As(err, &appErr) {
		h.requestLogger(c).WithError(err).WithField("kind", kind.String()).Error("internal error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["details"] = appErr.Fields
	}
	c.AbortWithStatusJSON(apperror.Status(kind), body)
}

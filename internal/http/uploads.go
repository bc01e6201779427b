package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"photo-share/internal/storage"
)

const uploadCacheControl = "public, max-age=31536000, immutable"

// serveUpload streams a stored image. Anything that is not a known image
// under the store root is reported as missing.
func (h *Handler) serveUpload(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	contentType, ok := storage.ImageContentType(key)
	if !ok || strings.Contains(key, "..") || !storage.ValidKey(key) {
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	obj, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		h.requestLogger(c).WithError(err).WithField("key", key).Error("open upload")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control": uploadCacheControl,
	})
}

package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"photo-share/internal/auth"
)

const (
	requestIDHeader    = "X-Request-ID"
	sessionTokenHeader = "X-Session-Token"

	ctxRequestID = "request_id"
	ctxSession   = "session"
	ctxErrorKind = "error_kind"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) accessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := h.requestLogger(c).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start),
		})
		if kind := c.GetString(ctxErrorKind); kind != "" {
			entry = entry.WithField("error_kind", kind)
		}
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request handled")
		}
	}
}

func (h *Handler) requestLogger(c *gin.Context) logrus.FieldLogger {
	return h.logger.WithField("request_id", c.GetString(ctxRequestID))
}

// sessionMiddleware attaches verified session claims to the context. Invalid
// tokens are ignored, and tokens past the rotation age are re-issued.
func (h *Handler) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := h.tokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := h.sessions.Parse(token)
		if err != nil {
			h.requestLogger(c).WithError(err).Debug("ignoring session token")
			c.Next()
			return
		}

		if h.sessions.NeedsRotation(claims) {
			claims = h.rotateSession(c, claims)
		}

		c.Set(ctxSession, claims)
		c.Next()
	}
}

func (h *Handler) rotateSession(c *gin.Context, claims auth.SessionClaims) auth.SessionClaims {
	token, expires, err := h.sessions.Rotate(claims)
	if err != nil {
		h.requestLogger(c).WithError(err).Warn("rotate session token")
		return claims
	}
	rotated, err := h.sessions.Parse(token)
	if err != nil {
		h.requestLogger(c).WithError(err).Warn("parse rotated session token")
		return claims
	}

	h.setSessionCookie(c, token, expires)
	c.Header(sessionTokenHeader, token)
	return rotated
}

func (h *Handler) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(h.cookieName); err == nil {
		return cookie
	}
	return ""
}

func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) (auth.SessionClaims, bool) {
	v, ok := c.Get(ctxSession)
	if !ok {
		return auth.SessionClaims{}, false
	}
	claims, ok := v.(auth.SessionClaims)
	return claims, ok && claims.Subject != ""
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := int(expires.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = int(h.sessions.MaxAge().Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.cookieSecure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
}

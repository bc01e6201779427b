package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"photo-share/internal/apperror"
	"photo-share/internal/auth"
	"photo-share/internal/domain"
	"photo-share/internal/service"
)

var errInvalidBody = apperror.Validation("Invalid request body")

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string           `json:"token"`
	Expires time.Time        `json:"expires"`
	User    *domain.Identity `json:"user"`
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errInvalidBody)
		return
	}

	identity, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errInvalidBody)
		return
	}

	identity, err := h.users.VerifyCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, expires, err := h.sessions.Issue(identity)
	if err != nil {
		h.writeError(c, apperror.Internal("issue session", err))
		return
	}

	h.setSessionCookie(c, token, expires)
	c.JSON(http.StatusOK, loginResponse{Token: token, Expires: expires, User: identity})
}

func (h *Handler) session(c *gin.Context) {
	claims, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, auth.ProjectSession(claims))
}

func (h *Handler) signout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

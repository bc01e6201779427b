package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"photo-share/internal/auth"
	"photo-share/internal/repository"
	"photo-share/internal/service"
	"photo-share/internal/storage"
)

// Options carries the dependencies and settings of a Handler.
type Options struct {
	Users          service.UserService
	Posts          service.PostService
	Sessions       *auth.SessionIssuer
	Store          storage.Store
	DB             repository.Pinger
	Logger         logrus.FieldLogger
	CookieName     string
	CookieSecure   bool
	MaxUploadBytes int64
	Now            func() time.Time
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	posts          service.PostService
	sessions       *auth.SessionIssuer
	store          storage.Store
	db             repository.Pinger
	logger         logrus.FieldLogger
	cookieName     string
	cookieSecure   bool
	maxUploadBytes int64
	now            func() time.Time
}

func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CookieName == "" {
		opts.CookieName = "session-token"
	}
	return &Handler{
		users:          opts.Users,
		posts:          opts.Posts,
		sessions:       opts.Sessions,
		store:          opts.Store,
		db:             opts.DB,
		logger:         opts.Logger,
		cookieName:     opts.CookieName,
		cookieSecure:   opts.CookieSecure,
		maxUploadBytes: opts.MaxUploadBytes,
		now:            opts.Now,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware(), h.accessLogMiddleware(), corsMiddleware(), h.sessionMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", h.health)

		authAPI := api.Group("/auth")
		authAPI.POST("/register", h.register)
		authAPI.POST("/login", h.login)
		authAPI.GET("/session", h.session)
		authAPI.POST("/signout", h.signout)

		api.GET("/posts", h.listPosts)
		api.GET("/posts/:id/comments", h.listComments)
		api.GET("/uploads/*path", h.serveUpload)

		protected := api.Group("", h.requireSession())
		protected.POST("/posts", h.createPost)
		protected.POST("/posts/:id/like", h.toggleLike)
		protected.POST("/posts/:id/comments", h.addComment)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Session-Token")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/sejmwatch/sejmwatch-backend/internal/http/handlers"
	httpMW "github.com/sejmwatch/sejmwatch-backend/internal/http/middleware"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	ServiceName  string
	AllowOrigins []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	ChatHandler         *httpH.ChatHandler
	ConversationHandler *httpH.ConversationHandler
	PrintHandler        *httpH.PrintHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.TraceContext(cfg.ServiceName))
	r.Use(httpMW.CORS(cfg.AllowOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}

		if cfg.ChatHandler != nil {
			protected.POST("/chat", cfg.ChatHandler.Stream)
			protected.POST("/chat/agent", cfg.ChatHandler.StreamAgent)
		}

		if cfg.ConversationHandler != nil {
			protected.GET("/conversations", cfg.ConversationHandler.List)
			protected.GET("/conversations/:id", cfg.ConversationHandler.Get)
			protected.PATCH("/conversations/:id", cfg.ConversationHandler.Rename)
			protected.DELETE("/conversations/:id", cfg.ConversationHandler.Delete)
		}

		if cfg.PrintHandler != nil {
			protected.GET("/prints/recent", cfg.PrintHandler.Recent)
			protected.GET("/prints/:number", cfg.PrintHandler.Get)
		}
	}

	return r
}

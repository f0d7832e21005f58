package rest

import (
	"chat-store/services"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Config struct {
	CorsOrigins    []string
	RequestTimeout time.Duration
}

// NewRouter wires the message routes behind recovery, request logging,
// CORS and the optional per-request timeout.
func NewRouter(log *slog.Logger, service services.IChatService, cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(corsMiddleware(cfg.CorsOrigins))
	if cfg.RequestTimeout > 0 {
		r.Use(Timeout(cfg.RequestTimeout))
	}

	handler := NewMessageHandler(log, service)
	chats := r.Group("/chats")
	{
		chats.GET("", handler.List)
		chats.POST("", handler.Create)
		chats.DELETE("/:id", handler.Delete)
		chats.GET("/:id", handler.GetConversation)
	}
	r.GET("/search/chats", handler.Search)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	return cors.New(config)
}

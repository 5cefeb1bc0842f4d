package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/nmarofsky/DatingApp/internal/config"
	"github.com/nmarofsky/DatingApp/internal/handler"
	"github.com/nmarofsky/DatingApp/internal/middleware"
	"github.com/nmarofsky/DatingApp/pkg/jwt"
	"github.com/redis/go-redis/v9"
)

// Setup configures all API and hub routes. redisClient may be nil.
func Setup(
	router *gin.Engine,
	messageHandler *handler.MessageHandler,
	wsHandler *handler.WSHandler,
	healthHandler *handler.HealthHandler,
	jwtManager *jwt.Manager,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	auth := middleware.JWTAuth(jwtManager)

	api := router.Group("/api/v1", auth)
	if cfg.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		if cfg.RateLimit.RequestsPerMinute > 0 {
			rl.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
		}
		api.Use(middleware.RateLimit(redisClient, rl))
	}

	messages := api.Group("/messages")
	messages.POST("", messageHandler.CreateMessage)
	messages.GET("", messageHandler.GetMessagesForUser)
	messages.GET("/thread/:username", messageHandler.GetMessageThread)
	messages.DELETE("/:id", messageHandler.DeleteMessage)

	api.GET("/presence/online", wsHandler.OnlineUsers)

	hubs := router.Group("/hubs", auth)
	hubs.GET("/presence", wsHandler.Presence)
	hubs.GET("/message", wsHandler.Message)
}

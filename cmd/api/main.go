package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nmarofsky/DatingApp/internal/config"
	"github.com/nmarofsky/DatingApp/internal/database"
	"github.com/nmarofsky/DatingApp/internal/handler"
	"github.com/nmarofsky/DatingApp/internal/middleware"
	"github.com/nmarofsky/DatingApp/internal/migration"
	"github.com/nmarofsky/DatingApp/internal/presence"
	"github.com/nmarofsky/DatingApp/internal/repository"
	"github.com/nmarofsky/DatingApp/internal/routes"
	"github.com/nmarofsky/DatingApp/internal/service"
	"github.com/nmarofsky/DatingApp/internal/ws"
	pkgcache "github.com/nmarofsky/DatingApp/pkg/cache"
	"github.com/nmarofsky/DatingApp/pkg/jwt"
	pkglogger "github.com/nmarofsky/DatingApp/pkg/logger"
	pkgredis "github.com/nmarofsky/DatingApp/pkg/redis"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	log := pkglogger.GetLogger()
	log.Info().Str("env", env).Strs("env_files", dotenvFiles).Msg("starting")

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.LogResolved(cfg)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect to database")
	}
	if err := migration.Run(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, continuing single-instance")
			redisClient = nil
		} else {
			log.Info().Msg("connected to redis")
		}
	}

	// rows from a crashed single instance would make users look present
	if redisClient == nil {
		if removed, err := migration.ClearConnections(db); err != nil {
			log.Warn().Err(err).Msg("failed to clear stale connections")
		} else if removed > 0 {
			log.Info().Int64("removed", removed).Msg("cleared stale connections")
		}
	}

	if cfg.IsDevelopment() {
		if err := migration.SeedUsers(db, migration.DevUsers()); err != nil {
			log.Warn().Err(err).Msg("seed users failed")
		}
	}

	cacheService := pkgcache.NewService(redisClient)

	// WebSocket Hub
	wsHub := ws.NewHub(redisClient)
	go wsHub.Run()

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshIn)

	// Repositories
	userRepo := repository.NewCachedUserRepository(repository.NewUserRepository(db), cacheService)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	// Services
	presenceService := service.NewPresenceService(presence.NewTracker(), wsHub, userRepo)
	sessionService := service.NewSessionService(userRepo, messageRepo, groupRepo, presenceService, wsHub, wsHub)
	messageService := service.NewMessageService(messageRepo, userRepo)

	// Handlers
	messageHandler := handler.NewMessageHandler(messageService)
	wsHandler := handler.NewWSHandler(wsHub, sessionService, presenceService,
		cfg.WebSocket.AllowedOrigins, cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize)
	healthHandler := handler.NewHealthHandler(db, cacheService)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(cfg.CORS.AllowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	routes.Setup(router, messageHandler, wsHandler, healthHandler, jwtManager, redisClient, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go database.ReportStats(ctx, db)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	wsHub.Stop()
	if redisClient != nil {
		redisClient.Close() //nolint:errcheck
	}
	log.Info().Msg("server stopped")
}

func splitAndTrim(s, delimiter string) []string {
	var out []string
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

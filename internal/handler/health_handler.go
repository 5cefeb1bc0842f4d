package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nmarofsky/DatingApp/pkg/cache"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and dependency readiness
type HealthHandler struct {
	db    *gorm.DB
	cache cache.Service
}

// NewHealthHandler creates a new HealthHandler. cache may be nil.
func NewHealthHandler(db *gorm.DB, cacheService cache.Service) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheService}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil && h.cache.IsAvailable() {
		if err := h.cache.Ping(ctx); err != nil {
			// the cache is optional, so this only degrades
			checks["redis"] = "unavailable"
		} else {
			checks["redis"] = "ok"
		}
	}

	c.JSON(status, gin.H{"checks": checks})
}

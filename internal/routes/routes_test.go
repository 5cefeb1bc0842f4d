package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nmarofsky/DatingApp/internal/config"
	"github.com/nmarofsky/DatingApp/internal/handler"
	"github.com/nmarofsky/DatingApp/pkg/jwt"
	"github.com/stretchr/testify/assert"
)

func newRouter(rateLimited bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.RateLimit.Enabled = rateLimited

	r := gin.New()
	Setup(r,
		handler.NewMessageHandler(nil),
		handler.NewWSHandler(nil, nil, nil, "", 0, 0),
		handler.NewHealthHandler(nil, nil),
		jwt.NewManager("test-secret-key-for-testing-only-32b!", 15, 60),
		nil,
		cfg,
	)
	return r
}

func TestSetup_RegistersRoutes(t *testing.T) {
	registered := map[string]bool{}
	for _, route := range newRouter(true).Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/messages",
		"GET /api/v1/messages",
		"GET /api/v1/messages/thread/:username",
		"DELETE /api/v1/messages/:id",
		"GET /api/v1/presence/online",
		"GET /hubs/presence",
		"GET /hubs/message",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}
}

func TestSetup_ProtectedRoutesRequireToken(t *testing.T) {
	r := newRouter(false)

	for _, path := range []string{"/api/v1/messages", "/api/v1/presence/online", "/hubs/message?user=bob", "/hubs/presence"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

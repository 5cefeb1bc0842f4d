package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/internal/middleware"
	"github.com/nmarofsky/DatingApp/internal/service"
	"github.com/nmarofsky/DatingApp/internal/ws"
	"github.com/nmarofsky/DatingApp/pkg/logger"
)

const (
	connectTimeout  = 10 * time.Second
	teardownTimeout = 5 * time.Second
)

var messageValidator = validator.New()

// WSHandler serves the presence and message hub endpoints
type WSHandler struct {
	hub            *ws.Hub
	sessions       service.SessionService
	presence       *service.PresenceService
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. Buffer sizes of zero use the
// gorilla defaults.
func NewWSHandler(hub *ws.Hub, sessions service.SessionService, presence *service.PresenceService, allowedOrigins string, readBuffer, writeBuffer int) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		sessions:       sessions,
		presence:       presence,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  readBuffer,
		WriteBufferSize: writeBuffer,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins parses comma-separated origins string
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin validates the request origin against allowed origins.
// With none configured every origin is accepted.
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Presence handles GET /hubs/presence
func (h *WSHandler) Presence(c *gin.Context) {
	username := middleware.GetUsername(c)
	if username == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	connectionID := uuid.NewString()
	client := ws.NewClient(h.hub, conn, connectionID, username)
	client.OnClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		h.presence.Unsubscribe(ctx, username, connectionID)
	})
	h.hub.Register(client)

	ctx, cancel := context.WithTimeout(c.Request.Context(), connectTimeout)
	h.presence.Subscribe(ctx, username, connectionID)
	cancel()

	go client.WritePump()
	go client.ReadPump()
}

// Message handles GET /hubs/message?user=<peer>
func (h *WSHandler) Message(c *gin.Context) {
	username := middleware.GetUsername(c)
	if username == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	peer := strings.TrimSpace(c.Query("user"))
	if peer == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "Query parameter 'user' is required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	connectionID := uuid.NewString()
	log := logger.WithConnection(username, connectionID)
	sess := domain.NewSession(connectionID, username, peer)

	client := ws.NewClient(h.hub, conn, connectionID, username)
	client.OnFrame(h.messageFrames(sess))
	client.OnClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		defer cancel()
		if err := h.sessions.Disconnect(ctx, sess); err != nil {
			log.Error().Err(err).Str("group", sess.GroupName).Msg("ws: disconnect failed")
		}
	})
	h.hub.Register(client)

	// no pump runs yet, so a failed connect can write its fault directly
	ctx, cancel := context.WithTimeout(c.Request.Context(), connectTimeout)
	err = h.sessions.Connect(ctx, sess)
	cancel()
	if err != nil {
		h.hub.Unregister(client)
		sess.Close()
		rejectConnection(conn, err)
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// rejectConnection reports a connect fault and closes the socket
func rejectConnection(conn *websocket.Conn, err error) {
	conn.SetWriteDeadline(time.Now().Add(teardownTimeout)) //nolint:errcheck
	conn.WriteJSON(ws.NewEvent(domain.EventError, ws.ErrorPayload{Message: common.ClientMessage(err)})) //nolint:errcheck
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "")) //nolint:errcheck
	conn.Close()
}

func (h *WSHandler) messageFrames(sess *domain.Session) ws.FrameHandler {
	return func(ctx context.Context, frame *ws.Frame) error {
		switch frame.Type {
		case domain.EventSendMessage:
			var req domain.CreateMessageRequest
			if err := json.Unmarshal(frame.Payload, &req); err != nil {
				return common.NewHubError("Invalid message payload", common.ErrInvalidInput)
			}
			if err := messageValidator.Struct(&req); err != nil {
				return common.NewHubError("Invalid message payload", common.ErrInvalidInput)
			}
			_, err := h.sessions.SendMessage(ctx, sess, &req)
			return err
		default:
			return common.NewHubError("Unknown event type: "+frame.Type, common.ErrInvalidInput)
		}
	}
}

// OnlineUsers handles GET /api/v1/presence/online
func (h *WSHandler) OnlineUsers(c *gin.Context) {
	common.SuccessResponse(c, h.presence.GetOnlineUsers(), nil)
}

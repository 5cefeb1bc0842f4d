package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nmarofsky/DatingApp/internal/common"
	"github.com/nmarofsky/DatingApp/internal/domain"
	"github.com/nmarofsky/DatingApp/internal/middleware"
	"github.com/nmarofsky/DatingApp/internal/service"
	"github.com/nmarofsky/DatingApp/pkg/ginutil"
)

// MessageHandler handles message HTTP requests
type MessageHandler struct {
	service service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// CreateMessage handles POST /api/v1/messages
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	username := middleware.GetUsername(c)

	var req domain.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.service.CreateMessage(c.Request.Context(), username, &req)
	if err != nil {
		writeServiceError(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: result})
}

// GetMessagesForUser handles GET /api/v1/messages?container=Unread|Inbox|Outbox
func (h *MessageHandler) GetMessagesForUser(c *gin.Context) {
	username := middleware.GetUsername(c)

	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryInt(c, "limit", 20)

	messages, meta, err := h.service.GetMessagesForUser(c.Request.Context(), username, c.Query("container"), page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load messages", err)
		return
	}

	common.SuccessResponse(c, messages, meta)
}

// GetMessageThread handles GET /api/v1/messages/thread/:username
func (h *MessageHandler) GetMessageThread(c *gin.Context) {
	messages, err := h.service.GetMessageThread(c.Request.Context(), middleware.GetUsername(c), c.Param("username"))
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to load message thread", err)
		return
	}

	common.SuccessResponse(c, messages, nil)
}

// DeleteMessage handles DELETE /api/v1/messages/:id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid message id", err)
		return
	}

	if err := h.service.DeleteMessage(c.Request.Context(), id, middleware.GetUsername(c)); err != nil {
		writeServiceError(c, err, "Failed to delete message")
		return
	}

	c.Status(http.StatusNoContent)
}

// writeServiceError maps service errors to HTTP statuses
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, common.ErrSelfMessage):
		common.ErrorResponse(c, http.StatusBadRequest, common.ClientMessage(err), err)
	case errors.Is(err, common.ErrUserNotFound):
		common.ErrorResponse(c, http.StatusNotFound, common.ClientMessage(err), err)
	case errors.Is(err, common.ErrMessageNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Message not found", err)
	case errors.Is(err, common.ErrForbidden):
		common.ErrorResponse(c, http.StatusForbidden, "You cannot delete this message", err)
	default:
		common.ErrorResponse(c, http.StatusInternalServerError, fallback, err)
	}
}

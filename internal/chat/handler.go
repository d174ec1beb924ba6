package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orgdesk/internal/identity"
	"orgdesk/pkg/auth"
	"orgdesk/pkg/logging"
)

type askRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id"`
}

// Handler exposes the assistant over HTTP.
type Handler struct {
	assistant *Assistant
	logger    logging.Logger
}

func NewHandler(assistant *Assistant, logger logging.Logger) *Handler {
	return &Handler{assistant: assistant, logger: logger}
}

// RegisterRoutes mounts the assistant endpoint. Authentication is optional:
// anonymous callers get the public tool set, authenticated callers get their
// membership-scoped tools as well.
func (h *Handler) RegisterRoutes(router *gin.Engine, jwtSecret []byte) {
	router.POST("/ai_assistant", auth.OptionalJWTAuthMiddleware(jwtSecret), h.handleAsk)
}

func (h *Handler) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctx := c.Request.Context()
	if userID := c.GetString(auth.CtxUserID); userID != "" {
		ctx = identity.WithUserID(ctx, userID)
		ctx = identity.WithEmail(ctx, c.GetString(auth.CtxEmail))
		ctx = identity.WithRole(ctx, c.GetString(auth.CtxRole))
	}

	answer := h.assistant.Ask(ctx, req.Question, sessionID)

	c.JSON(http.StatusOK, gin.H{
		"question":   req.Question,
		"response":   answer.Response,
		"session_id": sessionID,
		"messages":   answer.Messages,
	})
}

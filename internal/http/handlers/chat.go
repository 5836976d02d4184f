package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sejmwatch/sejmwatch-backend/internal/http/response"
	"github.com/sejmwatch/sejmwatch-backend/internal/modules/chat"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/ctxutil"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
	"github.com/sejmwatch/sejmwatch-backend/internal/realtime"
)

type respondFunc func(ctx context.Context, w *realtime.Writer, in chat.RespondInput) error

type ChatHandler struct {
	log *logger.Logger
	uc  *chat.Usecases
}

func NewChatHandler(log *logger.Logger, uc *chat.Usecases) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), uc: uc}
}

type chatRequest struct {
	Messages       []chat.InboundMessage `json:"messages"`
	ConversationID *string               `json:"conversationId"`
}

// POST /api/chat — direct RAG turn, streamed.
func (h *ChatHandler) Stream(c *gin.Context) {
	h.stream(c, h.uc.RespondDirect)
}

// POST /api/chat/agent — tool-augmented turn, streamed.
func (h *ChatHandler) StreamAgent(c *gin.Context) {
	h.stream(c, h.uc.RespondAgentic)
}

func (h *ChatHandler) stream(c *gin.Context, respond respondFunc) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("no authenticated user"))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Messages) == 0 || strings.TrimSpace(req.Messages[len(req.Messages)-1].Content) == "" {
		response.RespondError(c, http.StatusBadRequest, "empty_messages", fmt.Errorf("messages must be non-empty"))
		return
	}

	in := chat.RespondInput{UserID: userID, Messages: req.Messages}
	if req.ConversationID != nil && strings.TrimSpace(*req.ConversationID) != "" {
		conversationID, err := uuid.Parse(strings.TrimSpace(*req.ConversationID))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
			return
		}
		in.ConversationID = &conversationID
	}

	// From here on failures are reported as stream events, not HTTP codes.
	realtime.SetStreamHeaders(c.Writer)
	c.Status(http.StatusOK)
	w := realtime.NewWriter(c.Writer, h.log)

	if err := respond(c.Request.Context(), w, in); err != nil {
		h.log.Warn("chat turn ended with error", "user_id", userID, "error", err)
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sejmwatch/sejmwatch-backend/internal/http/response"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/ctxutil"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
}

func NewConversationHandler(conversations services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func queryLimit(c *gin.Context, def int) int {
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// GET /api/conversations?limit=50
func (h *ConversationHandler) List(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.conversations.List(dbc, userID, queryLimit(c, 50))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "list_conversations_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"conversations": rows})
}

// GET /api/conversations/:id?limit=100
func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	conv, msgs, err := h.conversations.Get(dbc, userID, conversationID, queryLimit(c, 100))
	if err != nil {
		respondServiceError(c, http.StatusNotFound, "conversation_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"conversation": conv, "messages": msgs})
}

// PATCH /api/conversations/:id
func (h *ConversationHandler) Rename(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("title required"))
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.conversations.Rename(dbc, userID, conversationID, strings.TrimSpace(req.Title)); err != nil {
		respondServiceError(c, http.StatusNotFound, "conversation_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_conversation_id", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context())
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	if err := h.conversations.Delete(dbc, userID, conversationID); err != nil {
		respondServiceError(c, http.StatusNotFound, "conversation_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

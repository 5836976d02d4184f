package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sejmwatch/sejmwatch-backend/internal/http/response"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/services"
)

type PrintHandler struct {
	prints services.PrintService
}

func NewPrintHandler(prints services.PrintService) *PrintHandler {
	return &PrintHandler{prints: prints}
}

// GET /api/prints/recent?limit=10
func (h *PrintHandler) Recent(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}
	rows, err := h.prints.Recent(dbc, queryLimit(c, 10))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "list_prints_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"prints": rows})
}

// GET /api/prints/:number
func (h *PrintHandler) Get(c *gin.Context) {
	row, err := h.prints.Get(dbctx.Context{Ctx: c.Request.Context()}, c.Param("number"))
	if err != nil {
		respondServiceError(c, http.StatusNotFound, "print_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"print": row})
}

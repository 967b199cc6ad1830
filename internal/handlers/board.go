package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/kanban-board-api/internal/dto"
	apierrors "github.com/yukikurage/kanban-board-api/internal/errors"
	"github.com/yukikurage/kanban-board-api/internal/services"
)

type BoardHandler struct {
	boardService *services.BoardService
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// GetBoard returns the current user's board
func (h *BoardHandler) GetBoard(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	columns, err := h.boardService.Board(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardResponse(columns))
}

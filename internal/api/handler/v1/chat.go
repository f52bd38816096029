package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/payoutpilot/mentorchat/internal/api/handler/v1/response"
	"github.com/payoutpilot/mentorchat/internal/domain"
)

type MessageReader interface {
	RecentPage(ctx context.Context, roomID string, limit, offset int) ([]domain.StoredMessage, error)
}

type ChatHandler struct {
	messages MessageReader
}

func NewChatHandler(messages MessageReader) *ChatHandler {
	return &ChatHandler{
		messages: messages,
	}
}

// HandleGetRoomMessages godoc
// @Summary      Get recent messages for a room
// @Tags         chat
// @Produce      json
// @Param        roomID  path   string true  "Room ID"
// @Param        limit   query  int    false "Number of messages to retrieve (default 50)"
// @Param        offset  query  int    false "Offset for pagination (default 0)"
// @Success      200      {array}    domain.StoredMessage
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /rooms/{roomID}/messages [get]
// @Security     BearerAuth
func (h *ChatHandler) HandleGetRoomMessages(ctx *gin.Context) {
	roomID := ctx.Param("roomID")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	messages, err := h.messages.RecentPage(ctx.Request.Context(), roomID, limit, offset)
	if err != nil {
		err = fmt.Errorf("v1.HandleGetRoomMessages -> h.messages.RecentPage -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, messages)
}

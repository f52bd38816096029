package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payoutpilot/mentorchat/internal/api/handler/v1/request"
	"github.com/payoutpilot/mentorchat/internal/api/handler/v1/response"
	"github.com/payoutpilot/mentorchat/internal/domain"
	"github.com/payoutpilot/mentorchat/internal/service"
)

type CompletionService interface {
	Complete(ctx context.Context, messages []domain.CompletionMessage, model string) (string, error)
}

type CompletionHandler struct {
	svc CompletionService
}

func NewCompletionHandler(svc CompletionService) *CompletionHandler {
	return &CompletionHandler{
		svc: svc,
	}
}

// HandleCompletion godoc
// @Summary      Relay a conversation to the assistant
// @Tags         chat
// @Produce      json
// @Param        request   body      request.CompletionRequest true "request body"
// @Success      200      {object}   map[string]string
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      502      {object}   response.Err
// @Router       /chat/completions [post]
// @Security     BearerAuth
func (h *CompletionHandler) HandleCompletion(ctx *gin.Context) {
	var req request.CompletionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	reply, err := h.svc.Complete(ctx.Request.Context(), req.Messages, req.Model)
	if err != nil {
		if errors.Is(err, service.ErrNoMessages) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrNoMessages))

			return
		}
		if errors.Is(err, service.ErrUpstream) {
			response.RenderErr(ctx, response.ErrBadGateway(err))

			return
		}

		err = fmt.Errorf("v1.HandleCompletion -> h.svc.Complete -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"reply": reply,
	})
}

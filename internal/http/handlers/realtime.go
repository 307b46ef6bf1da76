package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pathforge-backend/internal/http/response"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/pkg/requestdata"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/sse/stream
// Every connection of a user subscribes to the user's channel; path events are published there.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	userID, ok := requestdata.UserID(c.Request.Context())
	if !ok {
		response.RespondAppError(c, apperr.ErrUnauthorized)
		return
	}
	client := h.hub.NewSSEClient(userID)
	h.hub.AddChannel(client, userID.String())
	h.log.Debug("sse stream open", "user_id", userID.String(), "client_id", client.ID.String())

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("sse stream closed", "user_id", userID.String(), "client_id", client.ID.String())
}

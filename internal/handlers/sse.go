package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/sse"
)

type SSEHandler struct {
  log *logger.Logger
  hub *sse.SSEHub
}

func NewSSEHandler(log *logger.Logger, hub *sse.SSEHub) *SSEHandler {
  return &SSEHandler{
    log: log.With("handler", "SSEHandler"),
    hub: hub,
  }
}

// Stream subscribes the caller to their per-user channel. Roadmap saves
// and progress updates made by this user are pushed over this stream.
func (h *SSEHandler) Stream(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  client := h.hub.NewSSEClient(userID)
  h.hub.AddChannel(client, userID.String())
  h.hub.ServeHTTP(c.Writer, c.Request, client)
}

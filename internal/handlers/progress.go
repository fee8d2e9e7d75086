package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/services"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type ProgressHandler struct {
  log             *logger.Logger
  progressService services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progressService services.ProgressService) *ProgressHandler {
  return &ProgressHandler{
    log:             log.With("handler", "ProgressHandler"),
    progressService: progressService,
  }
}

func (h *ProgressHandler) Enroll(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  var req struct {
    RoadmapID string `json:"roadmapId"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  roadmapID, err := uuid.Parse(req.RoadmapID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_roadmap_id", err)
    return
  }
  details, err := h.progressService.Enroll(c.Request.Context(), userID, roadmapID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondCreated(c, gin.H{"progress": details})
}

func (h *ProgressHandler) UpdateNodeStatus(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  var req struct {
    RoadmapID string `json:"roadmapId"`
    NodeID    string `json:"nodeId"`
    Status    string `json:"status"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  roadmapID, err := uuid.Parse(req.RoadmapID)
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_roadmap_id", err)
    return
  }
  details, err := h.progressService.UpdateNodeStatus(c.Request.Context(), userID, roadmapID, req.NodeID, types.NodeStatus(req.Status))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"progress": details})
}

func (h *ProgressHandler) Dashboard(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  items, err := h.progressService.GetDashboard(c.Request.Context(), userID)
  if err != nil {
    h.log.Error("Dashboard failed", "error", err, "user_id", userID)
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"enrollments": items})
}

func (h *ProgressHandler) Details(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  roadmapID, err := uuid.Parse(c.Param("roadmapId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_roadmap_id", err)
    return
  }
  details, err := h.progressService.GetProgressDetails(c.Request.Context(), userID, roadmapID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"progress": details})
}

func (h *ProgressHandler) Unenroll(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  roadmapID, err := uuid.Parse(c.Param("roadmapId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_roadmap_id", err)
    return
  }
  if err := h.progressService.Unenroll(c.Request.Context(), userID, roadmapID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "unenrolled"})
}

package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/requestdata"
  "github.com/pathforge/pathforge-backend/internal/services"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type RoadmapHandler struct {
  log            *logger.Logger
  roadmapService services.RoadmapService
  graphService   services.GraphService
}

func NewRoadmapHandler(log *logger.Logger, roadmapService services.RoadmapService, graphService services.GraphService) *RoadmapHandler {
  return &RoadmapHandler{
    log:            log.With("handler", "RoadmapHandler"),
    roadmapService: roadmapService,
    graphService:   graphService,
  }
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
    return uuid.Nil, false
  }
  return rd.UserID, true
}

func roadmapIDParam(c *gin.Context) (uuid.UUID, bool) {
  id, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_roadmap_id", err)
    return uuid.Nil, false
  }
  return id, true
}

func (h *RoadmapHandler) Create(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  var input services.CreateRoadmapInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  roadmap, err := h.roadmapService.Create(c.Request.Context(), userID, input)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondCreated(c, gin.H{"roadmap": roadmap})
}

func (h *RoadmapHandler) List(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  items, err := h.roadmapService.List(c.Request.Context(), userID)
  if err != nil {
    h.log.Error("List roadmaps failed", "error", err, "user_id", userID)
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"roadmaps": items})
}

func (h *RoadmapHandler) Get(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  roadmapID, ok := roadmapIDParam(c)
  if !ok {
    return
  }
  roadmap, err := h.roadmapService.Get(c.Request.Context(), userID, roadmapID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"roadmap": roadmap})
}

func (h *RoadmapHandler) Update(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  roadmapID, ok := roadmapIDParam(c)
  if !ok {
    return
  }
  var input services.UpdateRoadmapInput
  if err := c.ShouldBindJSON(&input); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  roadmap, err := h.roadmapService.Update(c.Request.Context(), userID, roadmapID, input)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"roadmap": roadmap})
}

func (h *RoadmapHandler) Delete(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  roadmapID, ok := roadmapIDParam(c)
  if !ok {
    return
  }
  if err := h.roadmapService.Delete(c.Request.Context(), userID, roadmapID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"message": "roadmap deleted"})
}

// ApplyOperations is the PATCH surface: an ordered batch of graph
// operations applied to one roadmap.
func (h *RoadmapHandler) ApplyOperations(c *gin.Context) {
  userID, ok := currentUserID(c)
  if !ok {
    return
  }
  roadmapID, ok := roadmapIDParam(c)
  if !ok {
    return
  }
  var req struct {
    Operations []types.RoadmapOperation `json:"operations"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_body", err)
    return
  }
  result, err := h.graphService.ApplyOperations(c.Request.Context(), userID, roadmapID, req.Operations)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

func (h *RoadmapHandler) Feed(c *gin.Context) {
  var query struct {
    Page      int    `form:"page"`
    Limit     int    `form:"limit"`
    Search    string `form:"search"`
    Category  string `form:"category"`
    SortBy    string `form:"sortBy"`
    SortOrder string `form:"sortOrder"`
  }
  if err := c.ShouldBindQuery(&query); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_query", err)
    return
  }
  result, err := h.roadmapService.Feed(c.Request.Context(), repos.FeedQuery{
    Page:      query.Page,
    Limit:     query.Limit,
    Search:    query.Search,
    Category:  types.RoadmapCategory(query.Category),
    SortBy:    query.SortBy,
    SortOrder: query.SortOrder,
  })
  if err != nil {
    h.log.Error("Feed failed", "error", err)
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, result)
}

func (h *RoadmapHandler) ListPublic(c *gin.Context) {
  items, err := h.roadmapService.ListPublic(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"roadmaps": items})
}

func (h *RoadmapHandler) Categories(c *gin.Context) {
  RespondOK(c, gin.H{"categories": h.roadmapService.Categories()})
}

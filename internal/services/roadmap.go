package services

import (
  "context"
  "fmt"
  "strconv"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type CreateRoadmapInput struct {
  Title       string                `json:"title"`
  Description string                `json:"description"`
  Category    types.RoadmapCategory `json:"category"`
  Status      types.RoadmapStatus   `json:"status"`
  Data        *types.RoadmapData    `json:"data"`
}

type UpdateRoadmapInput struct {
  Title       *string                `json:"title"`
  Description *string                `json:"description"`
  Category    *types.RoadmapCategory `json:"category"`
  Status      *types.RoadmapStatus   `json:"status"`
  Data        *types.RoadmapData     `json:"data"`
}

type RoadmapAuthor struct {
  ID       uuid.UUID `json:"id"`
  Username string    `json:"username"`
  Avatar   string    `json:"avatar,omitempty"`
}

// RoadmapListItem is the list/feed projection: metadata and graph counts
// without the full document.
type RoadmapListItem struct {
  ID          uuid.UUID             `json:"id"`
  Title       string                `json:"title"`
  Description string                `json:"description,omitempty"`
  Status      types.RoadmapStatus   `json:"status"`
  Category    types.RoadmapCategory `json:"category"`
  UserID      uuid.UUID             `json:"user_id"`
  Author      RoadmapAuthor         `json:"author"`
  NodeCount   int                   `json:"node_count"`
  EdgeCount   int                   `json:"edge_count"`
  StepCount   int                   `json:"step_count"`
  CreatedAt   time.Time             `json:"created_at"`
  UpdatedAt   time.Time             `json:"updated_at"`
}

type FeedResult struct {
  Items []RoadmapListItem `json:"items"`
  Total int64             `json:"total"`
}

type RoadmapService interface {
  Create(ctx context.Context, userID uuid.UUID, input CreateRoadmapInput) (*types.Roadmap, error)
  Get(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Roadmap, error)
  List(ctx context.Context, userID uuid.UUID) ([]RoadmapListItem, error)
  ListPublic(ctx context.Context) ([]RoadmapListItem, error)
  Feed(ctx context.Context, query repos.FeedQuery) (*FeedResult, error)
  Update(ctx context.Context, userID, roadmapID uuid.UUID, input UpdateRoadmapInput) (*types.Roadmap, error)
  Delete(ctx context.Context, userID, roadmapID uuid.UUID) error
  Categories() []types.RoadmapCategory
}

type roadmapService struct {
  db           *gorm.DB
  log          *logger.Logger
  roadmapRepo  repos.RoadmapRepo
  eventService EventService
  feedCache    FeedCache
}

func NewRoadmapService(
  db *gorm.DB,
  baseLog *logger.Logger,
  roadmapRepo repos.RoadmapRepo,
  eventService EventService,
  feedCache FeedCache,
) RoadmapService {
  return &roadmapService{
    db:           db,
    log:          baseLog.With("service", "RoadmapService"),
    roadmapRepo:  roadmapRepo,
    eventService: eventService,
    feedCache:    feedCache,
  }
}

func (rs *roadmapService) Create(ctx context.Context, userID uuid.UUID, input CreateRoadmapInput) (*types.Roadmap, error) {
  if strings.TrimSpace(input.Title) == "" {
    return nil, apierr.InvalidArgument("title_required", "Title is required")
  }
  if input.Category == "" {
    return nil, apierr.InvalidArgument("category_required", "Category is required")
  }

  data := types.DefaultRoadmapData()
  if input.Data != nil {
    if err := validateGraph(input.Data); err != nil {
      return nil, err
    }
    data = *input.Data
  }

  status := input.Status
  if status == "" {
    status = types.RoadmapStatusDraft
  }

  roadmap := &types.Roadmap{
    UserID:       userID,
    Title:        input.Title,
    Description:  input.Description,
    Category:     input.Category,
    Status:       status,
    Data:         datatypes.NewJSONType(data),
    GraphVersion: parseGraphVersion(data.Version),
  }
  created, err := rs.roadmapRepo.Create(ctx, nil, roadmap)
  if err != nil {
    rs.log.Error("Create roadmap failed", "error", err, "user_id", userID)
    return nil, apierr.Internal("create_roadmap", "create roadmap: %v", err)
  }
  return created, nil
}

func (rs *roadmapService) Get(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Roadmap, error) {
  roadmap, err := rs.roadmapRepo.GetByIDAndUserID(ctx, nil, roadmapID, userID)
  if err != nil {
    return nil, apierr.Internal("load_roadmap", "load roadmap: %v", err)
  }
  if roadmap == nil {
    return nil, apierr.NotFound("roadmap_not_found", "Roadmap not found")
  }
  return roadmap, nil
}

func (rs *roadmapService) List(ctx context.Context, userID uuid.UUID) ([]RoadmapListItem, error) {
  roadmaps, err := rs.roadmapRepo.GetByUserID(ctx, nil, userID)
  if err != nil {
    return nil, apierr.Internal("list_roadmaps", "list roadmaps: %v", err)
  }
  return toListItems(roadmaps), nil
}

func (rs *roadmapService) ListPublic(ctx context.Context) ([]RoadmapListItem, error) {
  roadmaps, err := rs.roadmapRepo.GetPublished(ctx, nil)
  if err != nil {
    return nil, apierr.Internal("list_public_roadmaps", "list public roadmaps: %v", err)
  }
  return toListItems(roadmaps), nil
}

func (rs *roadmapService) Feed(ctx context.Context, query repos.FeedQuery) (*FeedResult, error) {
  cacheKey := feedCacheKey(query)
  if rs.feedCache != nil {
    var cached FeedResult
    if rs.feedCache.Get(ctx, cacheKey, &cached) {
      return &cached, nil
    }
  }

  items, total, err := rs.roadmapRepo.Feed(ctx, nil, query)
  if err != nil {
    return nil, apierr.Internal("feed", "load feed: %v", err)
  }
  result := &FeedResult{Items: toListItems(items), Total: total}

  if rs.feedCache != nil {
    rs.feedCache.Set(ctx, cacheKey, result)
  }
  return result, nil
}

func (rs *roadmapService) Update(ctx context.Context, userID, roadmapID uuid.UUID, input UpdateRoadmapInput) (*types.Roadmap, error) {
  existing, err := rs.roadmapRepo.GetByIDAndUserID(ctx, nil, roadmapID, userID)
  if err != nil {
    return nil, apierr.Internal("load_roadmap", "load roadmap: %v", err)
  }
  if existing == nil {
    return nil, apierr.NotFound("roadmap_not_found", "Roadmap not found")
  }

  fields := map[string]any{}
  if input.Title != nil {
    if strings.TrimSpace(*input.Title) == "" {
      return nil, apierr.InvalidArgument("title_required", "Title is required")
    }
    fields["title"] = *input.Title
  }
  if input.Description != nil {
    fields["description"] = *input.Description
  }
  if input.Category != nil {
    fields["category"] = *input.Category
  }
  if input.Status != nil {
    fields["status"] = *input.Status
  }

  eventVersion := parseGraphVersion(existing.Data.Data().Version)
  if input.Data != nil {
    if err := validateGraph(input.Data); err != nil {
      return nil, err
    }
    // Replacing the document bumps the CAS counter and mirrors it back
    // into data.version, same as a graph operation would.
    newVersion := existing.GraphVersion + 1
    data := *input.Data
    data.Version = strconv.FormatInt(newVersion, 10)
    fields["data"] = datatypes.NewJSONType(data)
    fields["graph_version"] = newVersion
    eventVersion = newVersion
  }

  if len(fields) > 0 {
    rows, err := rs.roadmapRepo.UpdateFields(ctx, nil, roadmapID, fields)
    if err != nil {
      return nil, apierr.Internal("update_roadmap", "update roadmap: %v", err)
    }
    if rows == 0 {
      return nil, apierr.Internal("update_roadmap", "Failed to update roadmap")
    }
  }

  updated, err := rs.roadmapRepo.GetByIDAndUserID(ctx, nil, roadmapID, userID)
  if err != nil || updated == nil {
    return nil, apierr.Internal("reload_roadmap", "reload roadmap after update: %v", err)
  }

  if _, err := rs.eventService.LogEvent(ctx, nil, roadmapID, int(eventVersion), types.EventRoadmapSaved, map[string]any{
    "title":     updated.Title,
    "timestamp": time.Now(),
  }); err != nil {
    return nil, err
  }

  if rs.feedCache != nil {
    rs.feedCache.Invalidate(ctx)
  }
  return updated, nil
}

func (rs *roadmapService) Delete(ctx context.Context, userID, roadmapID uuid.UUID) error {
  existing, err := rs.roadmapRepo.GetByIDAndUserID(ctx, nil, roadmapID, userID)
  if err != nil {
    return apierr.Internal("load_roadmap", "load roadmap: %v", err)
  }
  if existing == nil {
    return apierr.NotFound("roadmap_not_found", "Roadmap not found")
  }

  rows, err := rs.roadmapRepo.Delete(ctx, nil, roadmapID)
  if err != nil {
    return apierr.Internal("delete_roadmap", "delete roadmap: %v", err)
  }
  if rows == 0 {
    return apierr.Internal("delete_roadmap", "Failed to delete roadmap")
  }

  if rs.feedCache != nil {
    rs.feedCache.Invalidate(ctx)
  }
  return nil
}

func (rs *roadmapService) Categories() []types.RoadmapCategory {
  return types.RoadmapCategories()
}

func toListItems(roadmaps []*types.Roadmap) []RoadmapListItem {
  items := make([]RoadmapListItem, 0, len(roadmaps))
  for _, rm := range roadmaps {
    data := rm.Data.Data()
    author := RoadmapAuthor{ID: rm.UserID, Username: "Unknown User"}
    if rm.User != nil {
      author.ID = rm.User.ID
      author.Username = rm.User.Username
      author.Avatar = rm.User.Avatar
    }
    items = append(items, RoadmapListItem{
      ID:          rm.ID,
      Title:       rm.Title,
      Description: rm.Description,
      Status:      rm.Status,
      Category:    rm.Category,
      UserID:      rm.UserID,
      Author:      author,
      NodeCount:   len(data.Nodes),
      EdgeCount:   len(data.Edges),
      StepCount:   len(data.Nodes),
      CreatedAt:   rm.CreatedAt,
      UpdatedAt:   rm.UpdatedAt,
    })
  }
  return items
}

// validateGraph enforces the document invariants on full replacements:
// node ids unique, edges referencing existing nodes.
func validateGraph(data *types.RoadmapData) error {
  seen := make(map[string]bool, len(data.Nodes))
  for _, n := range data.Nodes {
    if n.ID == "" {
      return apierr.InvalidArgument("node_id_required", "Node id is required")
    }
    if seen[n.ID] {
      return apierr.InvalidArgument("duplicate_node_id", "Duplicate node id %q", n.ID)
    }
    seen[n.ID] = true
  }
  for _, e := range data.Edges {
    if !seen[e.Source] || !seen[e.Target] {
      return apierr.InvalidArgument("edge_endpoint_missing", "Edge endpoints must reference existing nodes")
    }
  }
  return nil
}

// parseGraphVersion reads the leading integer of a version string like
// "1.0"; anything unparseable defaults to 1.
func parseGraphVersion(version string) int64 {
  version = strings.TrimSpace(version)
  end := 0
  for end < len(version) && version[end] >= '0' && version[end] <= '9' {
    end++
  }
  if end == 0 {
    return 1
  }
  v, err := strconv.ParseInt(version[:end], 10, 64)
  if err != nil || v < 1 {
    return 1
  }
  return v
}

func feedCacheKey(query repos.FeedQuery) string {
  return fmt.Sprintf("page=%d&limit=%d&search=%s&category=%s&sort=%s&order=%s",
    query.Page, query.Limit, query.Search, query.Category, query.SortBy, query.SortOrder)
}

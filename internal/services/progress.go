package services

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/sse"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type ProgressStats struct {
  CompletedNodes     int `json:"completedNodes"`
  TotalNodes         int `json:"totalNodes"`
  ProgressPercentage int `json:"progressPercentage"`
}

type ProgressDetails struct {
  ID           uuid.UUID               `json:"id"`
  UserID       uuid.UUID               `json:"user_id"`
  RoadmapID    uuid.UUID               `json:"roadmap_id"`
  RoadmapTitle string                  `json:"roadmap_title,omitempty"`
  Status       types.ProgressStatus    `json:"status"`
  NodeStates   types.RoadmapNodeStates `json:"node_states"`
  Stats        ProgressStats           `json:"stats"`
  CreatedAt    time.Time               `json:"created_at"`
  UpdatedAt    time.Time               `json:"updated_at"`
}

// ProgressService tracks per-user completion against a roadmap. The total
// node count is snapshotted at enrollment; later roadmap edits do not move
// it.
type ProgressService interface {
  Enroll(ctx context.Context, userID, roadmapID uuid.UUID) (*ProgressDetails, error)
  UpdateNodeStatus(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, status types.NodeStatus) (*ProgressDetails, error)
  GetDashboard(ctx context.Context, userID uuid.UUID) ([]ProgressDetails, error)
  GetProgressDetails(ctx context.Context, userID, roadmapID uuid.UUID) (*ProgressDetails, error)
  Unenroll(ctx context.Context, userID, roadmapID uuid.UUID) error
}

type progressService struct {
  db           *gorm.DB
  log          *logger.Logger
  progressRepo repos.RoadmapProgressRepo
  roadmapRepo  repos.RoadmapRepo
  hub          *sse.SSEHub
}

func NewProgressService(
  db *gorm.DB,
  baseLog *logger.Logger,
  progressRepo repos.RoadmapProgressRepo,
  roadmapRepo repos.RoadmapRepo,
  hub *sse.SSEHub,
) ProgressService {
  return &progressService{
    db:           db,
    log:          baseLog.With("service", "ProgressService"),
    progressRepo: progressRepo,
    roadmapRepo:  roadmapRepo,
    hub:          hub,
  }
}

func (ps *progressService) Enroll(ctx context.Context, userID, roadmapID uuid.UUID) (*ProgressDetails, error) {
  existing, err := ps.progressRepo.GetByUserAndRoadmap(ctx, nil, userID, roadmapID)
  if err != nil {
    return nil, apierr.Internal("load_progress", "load progress: %v", err)
  }
  if existing != nil {
    return nil, apierr.Conflict("already_enrolled", "User is already enrolled in this roadmap")
  }

  roadmap, err := ps.roadmapRepo.GetByID(ctx, nil, roadmapID)
  if err != nil {
    return nil, apierr.Internal("load_roadmap", "load roadmap: %v", err)
  }
  if roadmap == nil {
    return nil, apierr.NotFound("roadmap_not_found", "Roadmap not found")
  }

  progress := &types.RoadmapProgress{
    UserID:          userID,
    RoadmapID:       roadmapID,
    TotalNodesCount: len(roadmap.Data.Data().Nodes),
  }
  created, err := ps.progressRepo.Create(ctx, nil, progress)
  if err != nil {
    ps.log.Error("Enroll failed", "error", err, "user_id", userID, "roadmap_id", roadmapID)
    return nil, apierr.Internal("create_progress", "create progress: %v", err)
  }
  return toProgressDetails(created), nil
}

func (ps *progressService) UpdateNodeStatus(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, status types.NodeStatus) (*ProgressDetails, error) {
  if nodeID == "" {
    return nil, apierr.InvalidArgument("node_id_required", "Node id is required")
  }
  if !status.Valid() {
    return nil, apierr.InvalidArgument("invalid_node_status", "Status must be PENDING, IN_PROGRESS, COMPLETED or SKIPPED")
  }

  updated, err := ps.progressRepo.MergeNodeState(ctx, nil, userID, roadmapID, nodeID, status)
  if err != nil {
    if errors.Is(err, repos.ErrProgressNotFound) {
      return nil, apierr.NotFound("progress_not_found", "Progress not found")
    }
    return nil, apierr.Internal("merge_node_state", "merge node state: %v", err)
  }

  if ps.hub != nil {
    ps.hub.Broadcast(sse.SSEMessage{
      Channel: userID.String(),
      Event:   sse.SSEEventProgressUpdated,
      Data: map[string]any{
        "roadmap_id": roadmapID,
        "node_id":    nodeID,
        "status":     status,
      },
    })
  }
  return toProgressDetails(updated), nil
}

func (ps *progressService) GetDashboard(ctx context.Context, userID uuid.UUID) ([]ProgressDetails, error) {
  enrollments, err := ps.progressRepo.ListByUserID(ctx, nil, userID)
  if err != nil {
    return nil, apierr.Internal("list_progress", "list progress: %v", err)
  }
  details := make([]ProgressDetails, 0, len(enrollments))
  for _, p := range enrollments {
    details = append(details, *toProgressDetails(p))
  }
  return details, nil
}

func (ps *progressService) GetProgressDetails(ctx context.Context, userID, roadmapID uuid.UUID) (*ProgressDetails, error) {
  progress, err := ps.progressRepo.GetByUserAndRoadmap(ctx, nil, userID, roadmapID)
  if err != nil {
    return nil, apierr.Internal("load_progress", "load progress: %v", err)
  }
  if progress == nil {
    return nil, apierr.NotFound("not_enrolled", "User is not enrolled in this roadmap")
  }
  return toProgressDetails(progress), nil
}

func (ps *progressService) Unenroll(ctx context.Context, userID, roadmapID uuid.UUID) error {
  rows, err := ps.progressRepo.Delete(ctx, nil, userID, roadmapID)
  if err != nil {
    return apierr.Internal("delete_progress", "delete progress: %v", err)
  }
  if rows == 0 {
    return apierr.NotFound("not_enrolled", "User is not enrolled in this roadmap")
  }
  return nil
}

func toProgressDetails(p *types.RoadmapProgress) *ProgressDetails {
  states := p.NodeStates.Data()
  if states == nil {
    states = types.RoadmapNodeStates{}
  }
  details := &ProgressDetails{
    ID:         p.ID,
    UserID:     p.UserID,
    RoadmapID:  p.RoadmapID,
    Status:     p.Status,
    NodeStates: states,
    Stats: ProgressStats{
      CompletedNodes:     p.CompletedNodeCount(),
      TotalNodes:         p.TotalNodesCount,
      ProgressPercentage: p.ProgressPercentage(),
    },
    CreatedAt: p.CreatedAt,
    UpdatedAt: p.UpdatedAt,
  }
  if p.Roadmap != nil {
    details.RoadmapTitle = p.Roadmap.Title
  }
  return details
}

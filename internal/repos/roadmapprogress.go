package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/types"
)

var ErrProgressNotFound = errors.New("progress row not found")

type RoadmapProgressRepo interface {
  Create(ctx context.Context, tx *gorm.DB, progress *types.RoadmapProgress) (*types.RoadmapProgress, error)
  GetByUserAndRoadmap(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) (*types.RoadmapProgress, error)
  ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.RoadmapProgress, error)
  MergeNodeState(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID, nodeID string, status types.NodeStatus) (*types.RoadmapProgress, error)
  Delete(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) (int64, error)
}

type roadmapProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRoadmapProgressRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapProgressRepo {
  return &roadmapProgressRepo{db: db, log: baseLog.With("repo", "RoadmapProgressRepo")}
}

func (r *roadmapProgressRepo) Create(ctx context.Context, tx *gorm.DB, progress *types.RoadmapProgress) (*types.RoadmapProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if progress.ID == uuid.Nil {
    progress.ID = uuid.New()
  }
  if progress.NodeStates.Data() == nil {
    progress.NodeStates = datatypes.NewJSONType(types.RoadmapNodeStates{})
  }
  if progress.Status == "" {
    progress.Status = types.ProgressInProgress
  }
  if err := transaction.WithContext(ctx).Create(progress).Error; err != nil {
    return nil, err
  }
  return progress, nil
}

func (r *roadmapProgressRepo) GetByUserAndRoadmap(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) (*types.RoadmapProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var progress types.RoadmapProgress
  err := transaction.WithContext(ctx).
    Where("user_id = ? AND roadmap_id = ?", userID, roadmapID).
    First(&progress).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &progress, nil
}

func (r *roadmapProgressRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.RoadmapProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.RoadmapProgress
  if err := transaction.WithContext(ctx).
    Preload("Roadmap").
    Where("user_id = ?", userID).
    Order("updated_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// MergeNodeState merges one node's state, resyncs the completed count and
// applies the automatic COMPLETED transition, all inside one transaction so
// a concurrent unenroll cannot split the steps.
func (r *roadmapProgressRepo) MergeNodeState(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID, nodeID string, status types.NodeStatus) (*types.RoadmapProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var progress types.RoadmapProgress
  err := transaction.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
    if err := innerTx.
      Where("user_id = ? AND roadmap_id = ?", userID, roadmapID).
      First(&progress).Error; err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return ErrProgressNotFound
      }
      return err
    }

    states := progress.NodeStates.Data()
    if states == nil {
      states = types.RoadmapNodeStates{}
    }
    states[nodeID] = types.NodeProgressState{Status: status, UpdatedAt: time.Now()}
    progress.NodeStates = datatypes.NewJSONType(states)

    // A zero-node enrollment completes on its first sync (0 == 0).
    if progress.CompletedNodeCount() == progress.TotalNodesCount {
      progress.Status = types.ProgressCompleted
    }

    return innerTx.
      Model(&types.RoadmapProgress{}).
      Where("id = ?", progress.ID).
      Updates(map[string]any{
        "node_states": progress.NodeStates,
        "status":      progress.Status,
      }).Error
  })
  if err != nil {
    return nil, err
  }
  return &progress, nil
}

func (r *roadmapProgressRepo) Delete(ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  res := transaction.WithContext(ctx).
    Where("user_id = ? AND roadmap_id = ?", userID, roadmapID).
    Delete(&types.RoadmapProgress{})
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

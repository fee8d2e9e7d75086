package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/types"
)

// RoadmapEventRepo is append-only: Insert is the only write path, and the
// read path exists for inspection and tests, not for the core.
type RoadmapEventRepo interface {
  Insert(ctx context.Context, tx *gorm.DB, event *types.RoadmapEvent) (*types.RoadmapEvent, error)
  GetByRoadmapID(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID) ([]*types.RoadmapEvent, error)
}

type roadmapEventRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRoadmapEventRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapEventRepo {
  return &roadmapEventRepo{db: db, log: baseLog.With("repo", "RoadmapEventRepo")}
}

func (r *roadmapEventRepo) Insert(ctx context.Context, tx *gorm.DB, event *types.RoadmapEvent) (*types.RoadmapEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if event.ID == uuid.Nil {
    event.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(event).Error; err != nil {
    return nil, err
  }
  return event, nil
}

func (r *roadmapEventRepo) GetByRoadmapID(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID) ([]*types.RoadmapEvent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.RoadmapEvent
  if err := transaction.WithContext(ctx).
    Where("roadmap_id = ?", roadmapID).
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

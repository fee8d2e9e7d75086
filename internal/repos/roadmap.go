package repos

import (
  "context"
  "errors"
  "fmt"
  "strings"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/types"
)

// FeedQuery is the read-side query over published roadmaps. SortBy is
// whitelisted in the repo; unknown columns fall back to created_at.
type FeedQuery struct {
  Page      int
  Limit     int
  Search    string
  Category  types.RoadmapCategory
  SortBy    string
  SortOrder string
}

type RoadmapRepo interface {
  Create(ctx context.Context, tx *gorm.DB, roadmap *types.Roadmap) (*types.Roadmap, error)
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Roadmap, error)
  GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Roadmap, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Roadmap, error)
  GetPublished(ctx context.Context, tx *gorm.DB) ([]*types.Roadmap, error)
  Feed(ctx context.Context, tx *gorm.DB, query FeedQuery) ([]*types.Roadmap, int64, error)
  UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) (int64, error)
  SaveGraph(ctx context.Context, tx *gorm.DB, roadmap *types.Roadmap, expectedVersion int64) (int64, error)
  Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type roadmapRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewRoadmapRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapRepo {
  return &roadmapRepo{db: db, log: baseLog.With("repo", "RoadmapRepo")}
}

func (r *roadmapRepo) Create(ctx context.Context, tx *gorm.DB, roadmap *types.Roadmap) (*types.Roadmap, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if roadmap.ID == uuid.Nil {
    roadmap.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(roadmap).Error; err != nil {
    return nil, err
  }
  return roadmap, nil
}

func (r *roadmapRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Roadmap, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var roadmap types.Roadmap
  err := transaction.WithContext(ctx).Where("id = ?", id).First(&roadmap).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &roadmap, nil
}

func (r *roadmapRepo) GetByIDAndUserID(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Roadmap, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var roadmap types.Roadmap
  err := transaction.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&roadmap).Error
  if errors.Is(err, gorm.ErrRecordNotFound) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &roadmap, nil
}

func (r *roadmapRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Roadmap, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Roadmap
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("updated_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *roadmapRepo) GetPublished(ctx context.Context, tx *gorm.DB) ([]*types.Roadmap, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Roadmap
  if err := transaction.WithContext(ctx).
    Preload("User").
    Where("status = ?", types.RoadmapStatusPublished).
    Order("updated_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

var feedSortColumns = map[string]string{
  "created_at": "created_at",
  "updated_at": "updated_at",
  "title":      "title",
}

func (r *roadmapRepo) Feed(ctx context.Context, tx *gorm.DB, query FeedQuery) ([]*types.Roadmap, int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  page := query.Page
  if page < 1 {
    page = 1
  }
  limit := query.Limit
  if limit < 1 {
    limit = 10
  }

  q := transaction.WithContext(ctx).
    Model(&types.Roadmap{}).
    Where("status = ?", types.RoadmapStatusPublished)

  if search := strings.TrimSpace(query.Search); search != "" {
    pattern := "%" + strings.ToLower(search) + "%"
    q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
  }
  if query.Category != "" {
    q = q.Where("category = ?", query.Category)
  }

  var total int64
  if err := q.Count(&total).Error; err != nil {
    return nil, 0, err
  }

  column, ok := feedSortColumns[query.SortBy]
  if !ok {
    column = "created_at"
  }
  order := "DESC"
  if strings.EqualFold(query.SortOrder, "ASC") {
    order = "ASC"
  }

  var items []*types.Roadmap
  if err := q.
    Preload("User").
    Order(fmt.Sprintf("%s %s", column, order)).
    Offset((page - 1) * limit).
    Limit(limit).
    Find(&items).Error; err != nil {
    return nil, 0, err
  }
  return items, total, nil
}

func (r *roadmapRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]any) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(fields) == 0 {
    return 0, nil
  }
  res := transaction.WithContext(ctx).
    Model(&types.Roadmap{}).
    Where("id = ?", id).
    Updates(fields)
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

// SaveGraph persists a mutated graph document with a compare-and-swap on
// graph_version. Zero rows affected means a concurrent writer won the race.
func (r *roadmapRepo) SaveGraph(ctx context.Context, tx *gorm.DB, roadmap *types.Roadmap, expectedVersion int64) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  res := transaction.WithContext(ctx).
    Model(&types.Roadmap{}).
    Where("id = ? AND graph_version = ?", roadmap.ID, expectedVersion).
    Updates(map[string]any{
      "data":          roadmap.Data,
      "graph_version": roadmap.GraphVersion,
    })
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

func (r *roadmapRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  res := transaction.WithContext(ctx).
    Where("id = ?", id).
    Delete(&types.Roadmap{})
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

package repos

import (
  "context"
  "testing"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/testutil"
  "github.com/pathforge/pathforge-backend/internal/types"
)

func seedRoadmap(t *testing.T, db *gorm.DB) (RoadmapRepo, *types.Roadmap) {
  t.Helper()
  ctx := context.Background()
  log := testutil.NewLogger(t)
  userRepo := NewUserRepo(db, log)
  roadmapRepo := NewRoadmapRepo(db, log)

  user, err := userRepo.Create(ctx, nil, &types.User{Email: "r@example.com", Username: "repo", Password: "x"})
  if err != nil {
    t.Fatalf("seed user: %v", err)
  }
  roadmap, err := roadmapRepo.Create(ctx, nil, &types.Roadmap{
    UserID:       user.ID,
    Title:        "CAS Target",
    Category:     types.CategoryBackend,
    Status:       types.RoadmapStatusDraft,
    Data:         datatypes.NewJSONType(types.DefaultRoadmapData()),
    GraphVersion: 1,
  })
  if err != nil {
    t.Fatalf("seed roadmap: %v", err)
  }
  return roadmapRepo, roadmap
}

func TestSaveGraph_CompareAndSwap(t *testing.T) {
  db := testutil.OpenDB(t)
  repo, roadmap := seedRoadmap(t, db)
  ctx := context.Background()

  data := roadmap.Data.Data()
  data.Nodes = append(data.Nodes, types.RoadmapNode{ID: "n1"})
  roadmap.Data = datatypes.NewJSONType(data)
  roadmap.GraphVersion = 2

  rows, err := repo.SaveGraph(ctx, nil, roadmap, 1)
  if err != nil {
    t.Fatalf("save: %v", err)
  }
  if rows != 1 {
    t.Fatalf("want 1 row got %d", rows)
  }

  // A writer still holding the old version loses the race.
  roadmap.GraphVersion = 2
  rows, err = repo.SaveGraph(ctx, nil, roadmap, 1)
  if err != nil {
    t.Fatalf("stale save: %v", err)
  }
  if rows != 0 {
    t.Fatalf("stale writer should affect 0 rows, got %d", rows)
  }

  reloaded, err := repo.GetByID(ctx, nil, roadmap.ID)
  if err != nil {
    t.Fatalf("reload: %v", err)
  }
  if reloaded.GraphVersion != 2 || len(reloaded.Data.Data().Nodes) != 1 {
    t.Fatalf("winning write lost: version=%d nodes=%d", reloaded.GraphVersion, len(reloaded.Data.Data().Nodes))
  }
}

func TestUpdateFields_ReportsMissingRow(t *testing.T) {
  db := testutil.OpenDB(t)
  repo, _ := seedRoadmap(t, db)

  rows, err := repo.UpdateFields(context.Background(), nil, uuid.New(), map[string]any{"title": "nope"})
  if err != nil {
    t.Fatalf("update: %v", err)
  }
  if rows != 0 {
    t.Fatalf("want 0 rows got %d", rows)
  }
}

func TestDelete_ReturnsRowsAffected(t *testing.T) {
  db := testutil.OpenDB(t)
  repo, roadmap := seedRoadmap(t, db)
  ctx := context.Background()

  rows, err := repo.Delete(ctx, nil, roadmap.ID)
  if err != nil {
    t.Fatalf("delete: %v", err)
  }
  if rows != 1 {
    t.Fatalf("want 1 row got %d", rows)
  }
  rows, err = repo.Delete(ctx, nil, roadmap.ID)
  if err != nil {
    t.Fatalf("second delete: %v", err)
  }
  if rows != 0 {
    t.Fatalf("want 0 rows got %d", rows)
  }
}

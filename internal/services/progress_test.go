package services

import (
  "context"
  "testing"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/testutil"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type progressFixture struct {
  svc       ProgressService
  userID    uuid.UUID
  roadmapID uuid.UUID
}

func newProgressFixture(t *testing.T, nodeIDs ...string) *progressFixture {
  t.Helper()
  ctx := context.Background()
  db := testutil.OpenDB(t)
  log := testutil.NewLogger(t)

  userRepo := repos.NewUserRepo(db, log)
  roadmapRepo := repos.NewRoadmapRepo(db, log)
  progressRepo := repos.NewRoadmapProgressRepo(db, log)

  user, err := userRepo.Create(ctx, nil, &types.User{
    Email:    "learner@example.com",
    Username: "learner",
    Password: "hashed",
  })
  if err != nil {
    t.Fatalf("seed user: %v", err)
  }

  data := types.DefaultRoadmapData()
  for _, id := range nodeIDs {
    data.Nodes = append(data.Nodes, types.RoadmapNode{ID: id, Data: types.RoadmapNodeData{Title: id}})
  }
  roadmap, err := roadmapRepo.Create(ctx, nil, &types.Roadmap{
    UserID:       user.ID,
    Title:        "DevOps Roadmap",
    Category:     types.CategoryDevOps,
    Status:       types.RoadmapStatusPublished,
    Data:         datatypes.NewJSONType(data),
    GraphVersion: 1,
  })
  if err != nil {
    t.Fatalf("seed roadmap: %v", err)
  }

  return &progressFixture{
    svc:       NewProgressService(db, log, progressRepo, roadmapRepo, nil),
    userID:    user.ID,
    roadmapID: roadmap.ID,
  }
}

func TestEnroll_SnapshotsNodeCount(t *testing.T) {
  f := newProgressFixture(t, "a", "b", "c")

  details, err := f.svc.Enroll(context.Background(), f.userID, f.roadmapID)
  if err != nil {
    t.Fatalf("enroll: %v", err)
  }
  if details.Status != types.ProgressInProgress {
    t.Fatalf("want IN_PROGRESS got %q", details.Status)
  }
  if details.Stats.TotalNodes != 3 || details.Stats.CompletedNodes != 0 || details.Stats.ProgressPercentage != 0 {
    t.Fatalf("unexpected stats: %+v", details.Stats)
  }
  if len(details.NodeStates) != 0 {
    t.Fatalf("want empty node states got %+v", details.NodeStates)
  }
}

func TestEnroll_TwiceIsConflict(t *testing.T) {
  f := newProgressFixture(t, "a")
  if _, err := f.svc.Enroll(context.Background(), f.userID, f.roadmapID); err != nil {
    t.Fatalf("enroll: %v", err)
  }
  _, err := f.svc.Enroll(context.Background(), f.userID, f.roadmapID)
  if !apierr.IsKind(err, apierr.KindConflict) {
    t.Fatalf("expected conflict, got %v", err)
  }
  if apierr.CodeOf(err) != "already_enrolled" {
    t.Fatalf("unexpected code: %q", apierr.CodeOf(err))
  }
}

func TestEnroll_MissingRoadmapNotFound(t *testing.T) {
  f := newProgressFixture(t, "a")
  _, err := f.svc.Enroll(context.Background(), f.userID, uuid.New())
  if !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("expected not_found, got %v", err)
  }
}

func TestUpdateNodeStatus_RejectsInvalidStatus(t *testing.T) {
  f := newProgressFixture(t, "a")
  _, err := f.svc.UpdateNodeStatus(context.Background(), f.userID, f.roadmapID, "a", "DONE")
  if !apierr.IsKind(err, apierr.KindInvalidArgument) {
    t.Fatalf("expected invalid_argument, got %v", err)
  }
}

func TestUpdateNodeStatus_WithoutEnrollmentNotFound(t *testing.T) {
  f := newProgressFixture(t, "a")
  _, err := f.svc.UpdateNodeStatus(context.Background(), f.userID, f.roadmapID, "a", types.NodeCompleted)
  if !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("expected not_found, got %v", err)
  }
  if apierr.CodeOf(err) != "progress_not_found" {
    t.Fatalf("unexpected code: %q", apierr.CodeOf(err))
  }
}

func TestUpdateNodeStatus_ComputesPercentage(t *testing.T) {
  f := newProgressFixture(t, "a", "b")
  ctx := context.Background()
  if _, err := f.svc.Enroll(ctx, f.userID, f.roadmapID); err != nil {
    t.Fatalf("enroll: %v", err)
  }

  details, err := f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "a", types.NodeCompleted)
  if err != nil {
    t.Fatalf("update: %v", err)
  }
  if details.Stats.CompletedNodes != 1 || details.Stats.ProgressPercentage != 50 {
    t.Fatalf("unexpected stats: %+v", details.Stats)
  }
  if details.Status != types.ProgressInProgress {
    t.Fatalf("should not complete at 50%%: %q", details.Status)
  }
}

func TestUpdateNodeStatus_CompletesWhenAllNodesDone(t *testing.T) {
  f := newProgressFixture(t, "a", "b")
  ctx := context.Background()
  if _, err := f.svc.Enroll(ctx, f.userID, f.roadmapID); err != nil {
    t.Fatalf("enroll: %v", err)
  }
  if _, err := f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "a", types.NodeCompleted); err != nil {
    t.Fatalf("update a: %v", err)
  }
  details, err := f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "b", types.NodeCompleted)
  if err != nil {
    t.Fatalf("update b: %v", err)
  }
  if details.Status != types.ProgressCompleted {
    t.Fatalf("want COMPLETED got %q", details.Status)
  }
  if details.Stats.ProgressPercentage != 100 {
    t.Fatalf("want 100%% got %d", details.Stats.ProgressPercentage)
  }
}

func TestUpdateNodeStatus_ZeroNodeRoadmapCompletesOnFirstSync(t *testing.T) {
  f := newProgressFixture(t)
  ctx := context.Background()
  details, err := f.svc.Enroll(ctx, f.userID, f.roadmapID)
  if err != nil {
    t.Fatalf("enroll: %v", err)
  }
  if details.Stats.TotalNodes != 0 || details.Stats.ProgressPercentage != 0 {
    t.Fatalf("unexpected stats: %+v", details.Stats)
  }

  // With nothing to complete, the first sync satisfies 0 == 0.
  details, err = f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "n1", types.NodeSkipped)
  if err != nil {
    t.Fatalf("update: %v", err)
  }
  if details.Status != types.ProgressCompleted {
    t.Fatalf("want COMPLETED got %q", details.Status)
  }
  if details.Stats.ProgressPercentage != 0 {
    t.Fatalf("percentage should stay 0 with no nodes, got %d", details.Stats.ProgressPercentage)
  }
}

func TestUpdateNodeStatus_RevertingKeepsLatestState(t *testing.T) {
  f := newProgressFixture(t, "a")
  ctx := context.Background()
  if _, err := f.svc.Enroll(ctx, f.userID, f.roadmapID); err != nil {
    t.Fatalf("enroll: %v", err)
  }
  if _, err := f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "a", types.NodeCompleted); err != nil {
    t.Fatalf("complete: %v", err)
  }
  details, err := f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "a", types.NodeSkipped)
  if err != nil {
    t.Fatalf("skip: %v", err)
  }
  if details.NodeStates["a"].Status != types.NodeSkipped {
    t.Fatalf("state not overwritten: %+v", details.NodeStates["a"])
  }
  if details.Stats.CompletedNodes != 0 {
    t.Fatalf("completed count not resynced: %+v", details.Stats)
  }
}

func TestGetProgressDetails_NotEnrolled(t *testing.T) {
  f := newProgressFixture(t, "a")
  _, err := f.svc.GetProgressDetails(context.Background(), f.userID, f.roadmapID)
  if !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("expected not_found, got %v", err)
  }
}

func TestGetDashboard_IncludesRoadmapTitle(t *testing.T) {
  f := newProgressFixture(t, "a")
  ctx := context.Background()
  if _, err := f.svc.Enroll(ctx, f.userID, f.roadmapID); err != nil {
    t.Fatalf("enroll: %v", err)
  }
  items, err := f.svc.GetDashboard(ctx, f.userID)
  if err != nil {
    t.Fatalf("dashboard: %v", err)
  }
  if len(items) != 1 {
    t.Fatalf("want 1 enrollment got %d", len(items))
  }
  if items[0].RoadmapTitle != "DevOps Roadmap" {
    t.Fatalf("roadmap not preloaded: %+v", items[0])
  }
}

func TestUnenroll_ThenReenrollResetsState(t *testing.T) {
  f := newProgressFixture(t, "a")
  ctx := context.Background()
  if _, err := f.svc.Enroll(ctx, f.userID, f.roadmapID); err != nil {
    t.Fatalf("enroll: %v", err)
  }
  if _, err := f.svc.UpdateNodeStatus(ctx, f.userID, f.roadmapID, "a", types.NodeCompleted); err != nil {
    t.Fatalf("complete: %v", err)
  }
  if err := f.svc.Unenroll(ctx, f.userID, f.roadmapID); err != nil {
    t.Fatalf("unenroll: %v", err)
  }
  if err := f.svc.Unenroll(ctx, f.userID, f.roadmapID); !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("second unenroll should be not_found, got %v", err)
  }

  details, err := f.svc.Enroll(ctx, f.userID, f.roadmapID)
  if err != nil {
    t.Fatalf("re-enroll: %v", err)
  }
  if len(details.NodeStates) != 0 || details.Status != types.ProgressInProgress {
    t.Fatalf("state survived re-enroll: %+v", details)
  }
}

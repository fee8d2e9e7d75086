package services

import (
  "context"
  "encoding/json"
  "testing"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/testutil"
  "github.com/pathforge/pathforge-backend/internal/types"
)

func newEventFixture(t *testing.T) (EventService, repos.RoadmapEventRepo, uuid.UUID) {
  t.Helper()
  ctx := context.Background()
  db := testutil.OpenDB(t)
  log := testutil.NewLogger(t)

  userRepo := repos.NewUserRepo(db, log)
  roadmapRepo := repos.NewRoadmapRepo(db, log)
  eventRepo := repos.NewRoadmapEventRepo(db, log)

  user, err := userRepo.Create(ctx, nil, &types.User{Email: "e@example.com", Username: "events", Password: "x"})
  if err != nil {
    t.Fatalf("seed user: %v", err)
  }
  roadmap, err := roadmapRepo.Create(ctx, nil, &types.Roadmap{
    UserID:       user.ID,
    Title:        "Audit Target",
    Category:     types.CategoryBackend,
    Status:       types.RoadmapStatusDraft,
    Data:         datatypes.NewJSONType(types.DefaultRoadmapData()),
    GraphVersion: 1,
  })
  if err != nil {
    t.Fatalf("seed roadmap: %v", err)
  }
  return NewEventService(db, log, eventRepo), eventRepo, roadmap.ID
}

func TestLogEvent_RejectsEmptyPayload(t *testing.T) {
  svc, _, roadmapID := newEventFixture(t)
  _, err := svc.LogEvent(context.Background(), nil, roadmapID, 1, types.EventRoadmapSaved, nil)
  if !apierr.IsKind(err, apierr.KindInvalidArgument) {
    t.Fatalf("expected invalid_argument, got %v", err)
  }
  if apierr.CodeOf(err) != "empty_event_payload" {
    t.Fatalf("unexpected code: %q", apierr.CodeOf(err))
  }
}

func TestLogEvent_AppendsInOrder(t *testing.T) {
  svc, repo, roadmapID := newEventFixture(t)
  ctx := context.Background()

  if _, err := svc.LogEvent(ctx, nil, roadmapID, 2, types.EventRoadmapSaved, map[string]any{"operations": 1}); err != nil {
    t.Fatalf("log first: %v", err)
  }
  if _, err := svc.LogEvent(ctx, nil, roadmapID, 3, types.EventNodeDeleted, map[string]any{"nodeId": "n1"}); err != nil {
    t.Fatalf("log second: %v", err)
  }

  events, err := repo.GetByRoadmapID(ctx, nil, roadmapID)
  if err != nil {
    t.Fatalf("load events: %v", err)
  }
  if len(events) != 2 {
    t.Fatalf("want 2 events got %d", len(events))
  }
  if events[0].Version != 2 || events[1].Version != 3 {
    t.Fatalf("versions out of order: %d, %d", events[0].Version, events[1].Version)
  }

  var payload map[string]any
  if err := json.Unmarshal(events[1].Payload, &payload); err != nil {
    t.Fatalf("decode payload: %v", err)
  }
  if payload["nodeId"] != "n1" {
    t.Fatalf("payload not preserved: %+v", payload)
  }
}

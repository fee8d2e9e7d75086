package services

import (
  "context"
  "testing"

  "github.com/google/uuid"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/testutil"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type roadmapFixture struct {
  svc    RoadmapService
  events repos.RoadmapEventRepo
  userID uuid.UUID
}

func newRoadmapFixture(t *testing.T) *roadmapFixture {
  t.Helper()
  ctx := context.Background()
  db := testutil.OpenDB(t)
  log := testutil.NewLogger(t)

  userRepo := repos.NewUserRepo(db, log)
  roadmapRepo := repos.NewRoadmapRepo(db, log)
  eventRepo := repos.NewRoadmapEventRepo(db, log)

  user, err := userRepo.Create(ctx, nil, &types.User{
    Email:    "author@example.com",
    Username: "author",
    Password: "hashed",
  })
  if err != nil {
    t.Fatalf("seed user: %v", err)
  }

  eventService := NewEventService(db, log, eventRepo)
  return &roadmapFixture{
    svc:    NewRoadmapService(db, log, roadmapRepo, eventService, NewNoopFeedCache()),
    events: eventRepo,
    userID: user.ID,
  }
}

func TestCreateRoadmap_Defaults(t *testing.T) {
  f := newRoadmapFixture(t)

  roadmap, err := f.svc.Create(context.Background(), f.userID, CreateRoadmapInput{
    Title:    "Learn Go",
    Category: types.CategoryBackend,
  })
  if err != nil {
    t.Fatalf("create: %v", err)
  }
  if roadmap.Status != types.RoadmapStatusDraft {
    t.Fatalf("want DRAFT got %q", roadmap.Status)
  }
  if roadmap.GraphVersion != 1 {
    t.Fatalf("want graph version 1 got %d", roadmap.GraphVersion)
  }
  data := roadmap.Data.Data()
  if data.Version != "1.0" || len(data.Nodes) != 0 || data.Viewport.Zoom != 1 {
    t.Fatalf("unexpected default document: %+v", data)
  }
}

func TestCreateRoadmap_RequiresTitleAndCategory(t *testing.T) {
  f := newRoadmapFixture(t)
  ctx := context.Background()

  if _, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Category: types.CategoryBackend}); !apierr.IsKind(err, apierr.KindInvalidArgument) {
    t.Fatalf("missing title: expected invalid_argument, got %v", err)
  }
  if _, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Title: "x"}); !apierr.IsKind(err, apierr.KindInvalidArgument) {
    t.Fatalf("missing category: expected invalid_argument, got %v", err)
  }
}

func TestCreateRoadmap_RejectsInvalidGraph(t *testing.T) {
  f := newRoadmapFixture(t)
  data := types.DefaultRoadmapData()
  data.Nodes = []types.RoadmapNode{{ID: "n1"}, {ID: "n1"}}

  _, err := f.svc.Create(context.Background(), f.userID, CreateRoadmapInput{
    Title:    "Broken",
    Category: types.CategoryBackend,
    Data:     &data,
  })
  if apierr.CodeOf(err) != "duplicate_node_id" {
    t.Fatalf("expected duplicate_node_id, got %v", err)
  }
}

func TestGetRoadmap_ScopedToOwner(t *testing.T) {
  f := newRoadmapFixture(t)
  ctx := context.Background()
  roadmap, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Title: "Mine", Category: types.CategoryBackend})
  if err != nil {
    t.Fatalf("create: %v", err)
  }

  if _, err := f.svc.Get(ctx, f.userID, roadmap.ID); err != nil {
    t.Fatalf("owner get: %v", err)
  }
  if _, err := f.svc.Get(ctx, uuid.New(), roadmap.ID); !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("foreign get: expected not_found, got %v", err)
  }
}

func TestUpdateRoadmap_PatchesFieldsAndLogsEvent(t *testing.T) {
  f := newRoadmapFixture(t)
  ctx := context.Background()
  roadmap, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Title: "Old", Category: types.CategoryBackend})
  if err != nil {
    t.Fatalf("create: %v", err)
  }

  title := "New"
  status := types.RoadmapStatusPublished
  updated, err := f.svc.Update(ctx, f.userID, roadmap.ID, UpdateRoadmapInput{Title: &title, Status: &status})
  if err != nil {
    t.Fatalf("update: %v", err)
  }
  if updated.Title != "New" || updated.Status != types.RoadmapStatusPublished {
    t.Fatalf("fields not patched: %+v", updated)
  }
  if updated.Category != types.CategoryBackend {
    t.Fatalf("untouched field changed: %q", updated.Category)
  }

  events, err := f.events.GetByRoadmapID(ctx, nil, roadmap.ID)
  if err != nil {
    t.Fatalf("load events: %v", err)
  }
  if len(events) != 1 || events[0].Type != types.EventRoadmapSaved {
    t.Fatalf("expected one ROADMAP_SAVED event, got %+v", events)
  }
}

func TestUpdateRoadmap_ReplacingDataBumpsVersion(t *testing.T) {
  f := newRoadmapFixture(t)
  ctx := context.Background()
  roadmap, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Title: "Versioned", Category: types.CategoryBackend})
  if err != nil {
    t.Fatalf("create: %v", err)
  }

  data := types.DefaultRoadmapData()
  data.Nodes = []types.RoadmapNode{{ID: "n1", Data: types.RoadmapNodeData{Title: "A"}}}
  updated, err := f.svc.Update(ctx, f.userID, roadmap.ID, UpdateRoadmapInput{Data: &data})
  if err != nil {
    t.Fatalf("update: %v", err)
  }
  if updated.GraphVersion != 2 {
    t.Fatalf("want graph version 2 got %d", updated.GraphVersion)
  }
  if updated.Data.Data().Version != "2" {
    t.Fatalf("document version not mirrored: %q", updated.Data.Data().Version)
  }
}

func TestDeleteRoadmap(t *testing.T) {
  f := newRoadmapFixture(t)
  ctx := context.Background()
  roadmap, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Title: "Gone", Category: types.CategoryBackend})
  if err != nil {
    t.Fatalf("create: %v", err)
  }

  if err := f.svc.Delete(ctx, uuid.New(), roadmap.ID); !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("foreign delete: expected not_found, got %v", err)
  }
  if err := f.svc.Delete(ctx, f.userID, roadmap.ID); err != nil {
    t.Fatalf("delete: %v", err)
  }
  if _, err := f.svc.Get(ctx, f.userID, roadmap.ID); !apierr.IsKind(err, apierr.KindNotFound) {
    t.Fatalf("expected not_found after delete, got %v", err)
  }
}

func TestFeed_OnlyPublishedWithFilters(t *testing.T) {
  f := newRoadmapFixture(t)
  ctx := context.Background()

  published := types.RoadmapStatusPublished
  seed := []struct {
    title    string
    category types.RoadmapCategory
    publish  bool
  }{
    {"Go Backend Path", types.CategoryBackend, true},
    {"React Frontend Path", types.CategoryFrontend, true},
    {"Secret Draft", types.CategoryBackend, false},
  }
  for _, s := range seed {
    roadmap, err := f.svc.Create(ctx, f.userID, CreateRoadmapInput{Title: s.title, Category: s.category})
    if err != nil {
      t.Fatalf("create %q: %v", s.title, err)
    }
    if s.publish {
      if _, err := f.svc.Update(ctx, f.userID, roadmap.ID, UpdateRoadmapInput{Status: &published}); err != nil {
        t.Fatalf("publish %q: %v", s.title, err)
      }
    }
  }

  result, err := f.svc.Feed(ctx, repos.FeedQuery{})
  if err != nil {
    t.Fatalf("feed: %v", err)
  }
  if result.Total != 2 || len(result.Items) != 2 {
    t.Fatalf("want 2 published got total=%d items=%d", result.Total, len(result.Items))
  }
  for _, item := range result.Items {
    if item.Author.Username != "author" {
      t.Fatalf("author not resolved: %+v", item.Author)
    }
  }

  result, err = f.svc.Feed(ctx, repos.FeedQuery{Category: types.CategoryBackend})
  if err != nil {
    t.Fatalf("category feed: %v", err)
  }
  if result.Total != 1 || result.Items[0].Title != "Go Backend Path" {
    t.Fatalf("category filter broken: %+v", result)
  }

  result, err = f.svc.Feed(ctx, repos.FeedQuery{Search: "react"})
  if err != nil {
    t.Fatalf("search feed: %v", err)
  }
  if result.Total != 1 || result.Items[0].Title != "React Frontend Path" {
    t.Fatalf("search filter broken: %+v", result)
  }

  result, err = f.svc.Feed(ctx, repos.FeedQuery{Page: 2, Limit: 1, SortBy: "title", SortOrder: "ASC"})
  if err != nil {
    t.Fatalf("paged feed: %v", err)
  }
  if result.Total != 2 || len(result.Items) != 1 || result.Items[0].Title != "React Frontend Path" {
    t.Fatalf("pagination broken: %+v", result)
  }
}

func TestCategories_ListsAll(t *testing.T) {
  f := newRoadmapFixture(t)
  if got := len(f.svc.Categories()); got != len(types.RoadmapCategories()) {
    t.Fatalf("want %d categories got %d", len(types.RoadmapCategories()), got)
  }
}

func TestParseGraphVersion(t *testing.T) {
  cases := []struct {
    in   string
    want int64
  }{
    {"1.0", 1},
    {"7", 7},
    {"12.3", 12},
    {"", 1},
    {"abc", 1},
    {"0", 1},
  }
  for _, c := range cases {
    if got := parseGraphVersion(c.in); got != c.want {
      t.Fatalf("parseGraphVersion(%q)=%d want %d", c.in, got, c.want)
    }
  }
}

package repos

import (
  "context"
  "testing"
  "time"

  "github.com/pathforge/pathforge-backend/internal/testutil"
  "github.com/pathforge/pathforge-backend/internal/types"
)

func TestDeleteExpired_KeepsLiveTokens(t *testing.T) {
  db := testutil.OpenDB(t)
  log := testutil.NewLogger(t)
  ctx := context.Background()
  userRepo := NewUserRepo(db, log)
  tokenRepo := NewUserTokenRepo(db, log)

  user, err := userRepo.Create(ctx, nil, &types.User{Email: "t@example.com", Username: "tokens", Password: "x"})
  if err != nil {
    t.Fatalf("seed user: %v", err)
  }

  if _, err := tokenRepo.Create(ctx, nil, &types.UserToken{
    UserID:       user.ID,
    AccessToken:  "stale-access",
    RefreshToken: "stale-refresh",
    ExpiresAt:    time.Now().Add(-time.Hour),
  }); err != nil {
    t.Fatalf("create stale token: %v", err)
  }
  if _, err := tokenRepo.Create(ctx, nil, &types.UserToken{
    UserID:       user.ID,
    AccessToken:  "live-access",
    RefreshToken: "live-refresh",
    ExpiresAt:    time.Now().Add(time.Hour),
  }); err != nil {
    t.Fatalf("create live token: %v", err)
  }

  if err := tokenRepo.DeleteExpired(ctx, nil, user.ID); err != nil {
    t.Fatalf("delete expired: %v", err)
  }

  stale, err := tokenRepo.GetByRefreshToken(ctx, nil, "stale-refresh")
  if err != nil {
    t.Fatalf("load stale: %v", err)
  }
  if stale != nil {
    t.Fatalf("stale token survived")
  }
  live, err := tokenRepo.GetByRefreshToken(ctx, nil, "live-refresh")
  if err != nil {
    t.Fatalf("load live: %v", err)
  }
  if live == nil {
    t.Fatalf("live token deleted")
  }
}

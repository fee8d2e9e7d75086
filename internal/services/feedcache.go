package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/pathforge/pathforge-backend/internal/logger"
)

// FeedCache memoises feed pages. Entries live under a generation counter;
// Invalidate bumps the counter so stale pages simply stop being addressed
// and expire on their own.
type FeedCache interface {
  Get(ctx context.Context, key string, dest any) bool
  Set(ctx context.Context, key string, value any)
  Invalidate(ctx context.Context)
}

type redisFeedCache struct {
  log *logger.Logger
  rdb *goredis.Client
  ttl time.Duration
}

func NewRedisFeedCache(baseLog *logger.Logger, addr string, ttl time.Duration) (FeedCache, error) {
  addr = strings.TrimSpace(addr)
  if addr == "" {
    return nil, fmt.Errorf("missing redis address")
  }
  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })
  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }
  return &redisFeedCache{
    log: baseLog.With("service", "FeedCache"),
    rdb: rdb,
    ttl: ttl,
  }, nil
}

func (c *redisFeedCache) generation(ctx context.Context) int64 {
  gen, err := c.rdb.Get(ctx, "feed:gen").Int64()
  if err != nil && err != goredis.Nil {
    c.log.Debug("Feed cache generation read failed", "error", err)
  }
  return gen
}

func (c *redisFeedCache) entryKey(ctx context.Context, key string) string {
  return fmt.Sprintf("feed:%d:%s", c.generation(ctx), key)
}

func (c *redisFeedCache) Get(ctx context.Context, key string, dest any) bool {
  raw, err := c.rdb.Get(ctx, c.entryKey(ctx, key)).Bytes()
  if err != nil {
    return false
  }
  if err := json.Unmarshal(raw, dest); err != nil {
    c.log.Warn("Feed cache entry corrupt, dropping", "key", key, "error", err)
    return false
  }
  return true
}

func (c *redisFeedCache) Set(ctx context.Context, key string, value any) {
  raw, err := json.Marshal(value)
  if err != nil {
    c.log.Warn("Feed cache encode failed", "key", key, "error", err)
    return
  }
  if err := c.rdb.Set(ctx, c.entryKey(ctx, key), raw, c.ttl).Err(); err != nil {
    c.log.Debug("Feed cache set failed", "key", key, "error", err)
  }
}

func (c *redisFeedCache) Invalidate(ctx context.Context) {
  if err := c.rdb.Incr(ctx, "feed:gen").Err(); err != nil {
    c.log.Debug("Feed cache invalidate failed", "error", err)
  }
}

// noopFeedCache keeps the service wiring uniform when no redis address is
// configured.
type noopFeedCache struct{}

func NewNoopFeedCache() FeedCache { return noopFeedCache{} }

func (noopFeedCache) Get(ctx context.Context, key string, dest any) bool { return false }

func (noopFeedCache) Set(ctx context.Context, key string, value any) {}

func (noopFeedCache) Invalidate(ctx context.Context) {}

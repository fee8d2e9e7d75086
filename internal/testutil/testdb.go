package testutil

import (
  "fmt"
  "testing"

  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  gormlogger "gorm.io/gorm/logger"

  "github.com/pathforge/pathforge-backend/internal/logger"
)

// The production schema leans on postgres defaults (uuid_generate_v4,
// now()) that sqlite cannot parse, so tests create the tables directly,
// with CURRENT_TIMESTAMP standing in for now(). Inserts rely on these
// defaults: gorm omits zero-valued columns that carry a default tag.
// Column names and constraints must stay in sync with internal/types.
var schema = []string{
  `CREATE TABLE "user" (
    id text PRIMARY KEY,
    email text NOT NULL UNIQUE,
    username text NOT NULL UNIQUE,
    password text NOT NULL,
    avatar text,
    created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
  )`,
  `CREATE TABLE user_token (
    id text PRIMARY KEY,
    user_id text NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
    access_token text NOT NULL,
    refresh_token text NOT NULL UNIQUE,
    expires_at datetime,
    created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
  )`,
  `CREATE TABLE roadmap (
    id text PRIMARY KEY,
    user_id text NOT NULL REFERENCES "user"(id) ON DELETE CASCADE,
    title text NOT NULL,
    description text,
    category text NOT NULL,
    status text NOT NULL DEFAULT 'DRAFT',
    data text,
    graph_version integer NOT NULL DEFAULT 1,
    created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
  )`,
  `CREATE TABLE roadmap_event (
    id text PRIMARY KEY,
    roadmap_id text NOT NULL REFERENCES roadmap(id) ON DELETE CASCADE,
    version integer NOT NULL,
    type text NOT NULL,
    payload text,
    created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP
  )`,
  `CREATE TABLE roadmap_progress (
    id text PRIMARY KEY,
    user_id text NOT NULL,
    roadmap_id text NOT NULL,
    status text NOT NULL DEFAULT 'IN_PROGRESS',
    node_states text,
    total_nodes_count integer NOT NULL DEFAULT 0,
    created_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at datetime NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (user_id, roadmap_id)
  )`,
}

// OpenDB returns an isolated in-memory database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
  t.Helper()
  dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
  db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
    Logger: gormlogger.Default.LogMode(gormlogger.Silent),
  })
  if err != nil {
    t.Fatalf("open test db: %v", err)
  }
  sqlDB, err := db.DB()
  if err != nil {
    t.Fatalf("unwrap test db: %v", err)
  }
  // A single connection keeps the in-memory database alive for the whole
  // test.
  sqlDB.SetMaxOpenConns(1)
  sqlDB.SetMaxIdleConns(1)
  for _, stmt := range schema {
    if err := db.Exec(stmt).Error; err != nil {
      t.Fatalf("create test schema: %v", err)
    }
  }
  return db
}

func NewLogger(t *testing.T) *logger.Logger {
  t.Helper()
  log, err := logger.New("test")
  if err != nil {
    t.Fatalf("init test logger: %v", err)
  }
  return log
}

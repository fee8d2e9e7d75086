package main

import (
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/pathforge/pathforge-backend/internal/db"
  "github.com/pathforge/pathforge-backend/internal/handlers"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/middleware"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/server"
  "github.com/pathforge/pathforge-backend/internal/services"
  "github.com/pathforge/pathforge-backend/internal/sse"
  "github.com/pathforge/pathforge-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 604800, log)
  redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
  feedCacheTTL := utils.GetEnvAsInt("FEED_CACHE_TTL", 60, log)
  allowOrigins := utils.GetEnv("ALLOW_ORIGINS", "", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  roadmapRepo := repos.NewRoadmapRepo(thePG, log)
  roadmapEventRepo := repos.NewRoadmapEventRepo(thePG, log)
  roadmapProgressRepo := repos.NewRoadmapProgressRepo(thePG, log)

  // SSE
  log.Info("Setting up SSE hub now...")
  sseHub := sse.NewSSEHub(log)

  // Feed cache
  var feedCache services.FeedCache
  if redisAddr != "" {
    feedCache, err = services.NewRedisFeedCache(log, redisAddr, time.Duration(feedCacheTTL)*time.Second)
    if err != nil {
      log.Warn("Redis unavailable, feed cache disabled", "error", err)
      feedCache = services.NewNoopFeedCache()
    }
  } else {
    feedCache = services.NewNoopFeedCache()
  }

  // Services
  log.Info("Setting up Services from main...")
  eventService := services.NewEventService(thePG, log, roadmapEventRepo)
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  roadmapService := services.NewRoadmapService(thePG, log, roadmapRepo, eventService, feedCache)
  graphService := services.NewGraphService(thePG, log, roadmapRepo, eventService, sseHub)
  progressService := services.NewProgressService(thePG, log, roadmapProgressRepo, roadmapRepo, sseHub)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  roadmapHandler := handlers.NewRoadmapHandler(log, roadmapService, graphService)
  progressHandler := handlers.NewProgressHandler(log, progressService)
  sseHandler := handlers.NewSSEHandler(log, sseHub)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  routerCfg := server.RouterConfig{
    AuthHandler:     authHandler,
    AuthMiddleware:  authMiddleware,
    UserHandler:     userHandler,
    RoadmapHandler:  roadmapHandler,
    ProgressHandler: progressHandler,
    SSEHandler:      sseHandler,
  }
  if allowOrigins != "" {
    routerCfg.AllowOrigins = strings.Split(allowOrigins, ",")
  }
  router := server.NewRouter(routerCfg)

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

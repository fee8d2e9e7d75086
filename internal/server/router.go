package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/pathforge/pathforge-backend/internal/handlers"
  "github.com/pathforge/pathforge-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler     *handlers.AuthHandler
  AuthMiddleware  *middleware.AuthMiddleware
  UserHandler     *handlers.UserHandler
  RoadmapHandler  *handlers.RoadmapHandler
  ProgressHandler *handlers.ProgressHandler
  SSEHandler      *handlers.SSEHandler
  AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  origins := cfg.AllowOrigins
  if len(origins) == 0 {
    origins = []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5173",
    }
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  // ===============
  // || Public    ||
  // ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
    api.POST("/refresh", cfg.AuthHandler.Refresh)
    api.GET("/roadmaps/feed", cfg.RoadmapHandler.Feed)
    api.GET("/roadmaps/categories", cfg.RoadmapHandler.Categories)
    api.GET("/roadmaps/public", cfg.RoadmapHandler.ListPublic)
  }

  // ===============
  // || Protected ||
  // ===============
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  // Roadmaps
  protected.POST("/roadmaps", cfg.RoadmapHandler.Create)
  protected.GET("/roadmaps", cfg.RoadmapHandler.List)
  protected.GET("/roadmaps/:id", cfg.RoadmapHandler.Get)
  protected.PUT("/roadmaps/:id", cfg.RoadmapHandler.Update)
  protected.PATCH("/roadmaps/:id", cfg.RoadmapHandler.ApplyOperations)
  protected.DELETE("/roadmaps/:id", cfg.RoadmapHandler.Delete)
  // Progress
  protected.POST("/progress/enroll", cfg.ProgressHandler.Enroll)
  protected.PATCH("/progress/node-status", cfg.ProgressHandler.UpdateNodeStatus)
  protected.GET("/progress/dashboard", cfg.ProgressHandler.Dashboard)
  protected.GET("/progress/:roadmapId", cfg.ProgressHandler.Details)
  protected.DELETE("/progress/:roadmapId", cfg.ProgressHandler.Unenroll)
  // SSE
  protected.GET("/sse/stream", cfg.SSEHandler.Stream)

  return router
}

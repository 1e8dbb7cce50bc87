package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/yungbote/heirlooms-backend/internal/handlers"
  "github.com/yungbote/heirlooms-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler       *handlers.AuthHandler
  AuthMiddleware    *middleware.AuthMiddleware
  UserHandler       *handlers.UserHandler
  CollectionHandler *handlers.CollectionHandler
  IngestHandler     *handlers.IngestHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5173",
    },
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
  }

  // ===============
  // || Protected ||
  // ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  // Collections
  protected.POST("/collections", cfg.CollectionHandler.Create)
  protected.GET("/collections", cfg.CollectionHandler.List)
  protected.GET("/collections/:ref", cfg.CollectionHandler.Get)
  // Artifacts
  protected.POST("/ingest", cfg.IngestHandler.Ingest)
  protected.GET("/artifacts", cfg.IngestHandler.ListArtifacts)

  return router
}

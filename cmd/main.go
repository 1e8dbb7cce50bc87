package main

import (
  "fmt"
  "os"
  "time"

  "github.com/yungbote/heirlooms-backend/internal/db"
  "github.com/yungbote/heirlooms-backend/internal/handlers"
  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/middleware"
  "github.com/yungbote/heirlooms-backend/internal/repos"
  "github.com/yungbote/heirlooms-backend/internal/server"
  "github.com/yungbote/heirlooms-backend/internal/services"
  "github.com/yungbote/heirlooms-backend/internal/utils"
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
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  collectionRepo := repos.NewCollectionRepo(thePG, log)
  artifactRepo := repos.NewArtifactRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  bucketService, err := services.NewBucketService(log)
  if err != nil {
    log.Warn("Could not init BucketService", "error", err)
  }
  var mediaService services.MediaService
  mediaService, err = services.NewMediaService(log, bucketService)
  if err != nil {
    log.Warn("Could not init MediaService, uploads will degrade", "error", err)
    mediaService = nil
  }
  var speechService services.SpeechService
  speechService, err = services.NewSpeechService(log)
  if err != nil {
    log.Warn("Could not init SpeechService, transcription will degrade", "error", err)
    speechService = nil
  }
  var genaiClient services.GenAIClient
  genaiClient, err = services.NewGenAIClient(log)
  if err != nil {
    log.Warn("Could not init GenAIClient, content structuring will use fallback", "error", err)
    genaiClient = nil
  }

  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  collectionService := services.NewCollectionService(thePG, log, collectionRepo)
  structurerService := services.NewStructurerService(log, genaiClient)
  artifactService := services.NewArtifactService(thePG, log, artifactRepo)
  ingestService := services.NewIngestService(log, collectionService, mediaService, speechService, structurerService, artifactService)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  collectionHandler := handlers.NewCollectionHandler(log, collectionService, mediaService)
  ingestHandler := handlers.NewIngestHandler(log, ingestService, artifactService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:       authHandler,
    AuthMiddleware:    authMiddleware,
    UserHandler:       userHandler,
    CollectionHandler: collectionHandler,
    IngestHandler:     ingestHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

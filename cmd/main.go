package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shrutilabs/shruti-backend/internal/bulk"
	redisclient "github.com/shrutilabs/shruti-backend/internal/clients/redis"
	"github.com/shrutilabs/shruti-backend/internal/db"
	"github.com/shrutilabs/shruti-backend/internal/handlers"
	"github.com/shrutilabs/shruti-backend/internal/languages"
	"github.com/shrutilabs/shruti-backend/internal/logger"
	"github.com/shrutilabs/shruti-backend/internal/middleware"
	"github.com/shrutilabs/shruti-backend/internal/observability"
	"github.com/shrutilabs/shruti-backend/internal/repos"
	"github.com/shrutilabs/shruti-backend/internal/server"
	"github.com/shrutilabs/shruti-backend/internal/services"
	"github.com/shrutilabs/shruti-backend/internal/sse"
	"github.com/shrutilabs/shruti-backend/internal/utils"
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
	serviceName := utils.GetEnv("SERVICE_NAME", "shruti-backend", log)
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	bulkLimit := utils.GetEnvAsInt("BULK_WORKER_LIMIT", 8, log)

	// Tracing
	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})

	// Database
	databaseService, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = databaseService.AutoMigrateAll(); err != nil {
		log.Warn("Auto migration failed", "error", err)
	}
	theDB := databaseService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	userTokenRepo := repos.NewUserTokenRepo(theDB, log)
	recordingRepo := repos.NewRecordingRepo(theDB, log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewSSEHub(log)
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
	sseBus, err := redisclient.NewSSEBus(log)
	if err != nil {
		log.Warn("Redis SSE bus unavailable; events stay instance-local", "error", err)
	} else if err := sseBus.StartForwarder(context.Background(), sseHub.Broadcast); err != nil {
		log.Warn("Redis SSE forwarder failed to start; events stay instance-local", "error", err)
	} else {
		// Producers publish to the bus; the forwarder feeds every
		// instance's hub, this one included.
		emitter = &services.RedisEmitter{Bus: sseBus}
	}

	// Languages
	registry, err := languages.NewRegistry(log)
	if err != nil {
		log.Error("Could not init language registry", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	recordingService := services.NewRecordingService(theDB, log, recordingRepo, registry, emitter)
	coordinator := bulk.NewCoordinator(bulkLimit, log)
	assignmentService := services.NewAssignmentService(theDB, log, recordingRepo, userRepo, coordinator, emitter)
	reviewService := services.NewReviewService(log, recordingService, emitter)
	defer reviewService.CloseAll()

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	recordingHandler := handlers.NewRecordingHandler(log, recordingService, registry)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:       serviceName,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		RecordingHandler:  recordingHandler,
		ReviewHandler:     reviewHandler,
		AssignmentHandler: assignmentHandler,
		SSEHandler:        sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}

	if shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}
	if sseBus != nil {
		_ = sseBus.Close()
	}
}

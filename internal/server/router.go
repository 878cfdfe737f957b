package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/shrutilabs/shruti-backend/internal/handlers"
	"github.com/shrutilabs/shruti-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName       string
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	RecordingHandler  *handlers.RecordingHandler
	ReviewHandler     *handlers.ReviewHandler
	AssignmentHandler *handlers.AssignmentHandler
	SSEHandler        *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.SSEStream)
	protected.POST("/sse/subscribe", cfg.SSEHandler.SSESubscribe)
	protected.POST("/sse/unsubscribe", cfg.SSEHandler.SSEUnsubscribe)
	// Languages
	protected.GET("/languages", cfg.RecordingHandler.Languages)
	// Recordings
	protected.GET("/recordings", cfg.RecordingHandler.List)
	protected.GET("/recordings/:id", cfg.RecordingHandler.Get)
	protected.GET("/recordings/:id/export", cfg.RecordingHandler.Export)
	protected.GET("/recordings/:id/audio", cfg.RecordingHandler.Audio)
	// Annotators flag their own recordings; assignment stays admin-only.
	protected.POST("/recordings/:id/flag", cfg.AssignmentHandler.Flag)
	// Review sessions
	protected.POST("/review", cfg.ReviewHandler.Open)
	protected.GET("/review/:sessionID", cfg.ReviewHandler.State)
	protected.POST("/review/:sessionID/play", cfg.ReviewHandler.Play)
	protected.POST("/review/:sessionID/pause", cfg.ReviewHandler.Pause)
	protected.POST("/review/:sessionID/seek", cfg.ReviewHandler.Seek)
	protected.POST("/review/:sessionID/activate", cfg.ReviewHandler.Activate)
	protected.POST("/review/:sessionID/edit/start", cfg.ReviewHandler.StartEditing)
	protected.POST("/review/:sessionID/edit/stop", cfg.ReviewHandler.StopEditing)
	protected.POST("/review/:sessionID/segments", cfg.ReviewHandler.Insert)
	protected.POST("/review/:sessionID/segments/delete", cfg.ReviewHandler.Delete)
	protected.POST("/review/:sessionID/segments/resize", cfg.ReviewHandler.Resize)
	protected.POST("/review/:sessionID/segments/content", cfg.ReviewHandler.UpdateContent)
	protected.POST("/review/:sessionID/save", cfg.ReviewHandler.Save)
	protected.DELETE("/review/:sessionID", cfg.ReviewHandler.Close)

	// Admin-only surfaces
	admin := protected.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireRole("admin"))
	admin.POST("/recordings", cfg.RecordingHandler.Import)
	admin.DELETE("/recordings/:id", cfg.RecordingHandler.Delete)
	admin.POST("/recordings/:id/assign", cfg.AssignmentHandler.Assign)
	admin.POST("/recordings/:id/unassign", cfg.AssignmentHandler.Unassign)
	admin.POST("/recordings/bulk/assign", cfg.AssignmentHandler.BulkAssign)
	admin.POST("/recordings/bulk/unassign", cfg.AssignmentHandler.BulkUnassign)
	admin.POST("/recordings/bulk/flag", cfg.AssignmentHandler.BulkFlag)

	return router
}

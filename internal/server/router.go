package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/hollowbyte/subtext-backend/internal/handlers"
	"github.com/hollowbyte/subtext-backend/internal/middleware"
	"github.com/hollowbyte/subtext-backend/internal/platform/envutil"
)

type RouterConfig struct {
	AnalyzeHandler  *handlers.AnalyzeHandler
	MentorHandler   *handlers.MentorHandler
	ProgressHandler *handlers.ProgressHandler
	SSEHandler      *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := strings.Split(envutil.Str("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("subtext"))
	router.Use(middleware.Trace())

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/scan", cfg.AnalyzeHandler.Scan)
		api.POST("/pattern", cfg.AnalyzeHandler.Pattern)
		api.POST("/mentor", cfg.MentorHandler.Exchange)
		api.POST("/mentor/stream", cfg.MentorHandler.StartStream)
		api.GET("/progress/:userID", cfg.ProgressHandler.Get)
		api.POST("/progress/:userID", cfg.ProgressHandler.Merge)
	}

	router.GET("/sse/stream", cfg.SSEHandler.Stream)

	return router
}

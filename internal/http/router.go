package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pathforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pathforge-backend/internal/http/middleware"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	// Metrics is optional; /metrics is only mounted when set.
	Metrics *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler     *httpH.AuthHandler
	PathHandler     *httpH.PathHandler
	CourseHandler   *httpH.CourseHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "pathforge"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Auth
		if cfg.AuthHandler != nil {
			protected.GET("/auth/user", cfg.AuthHandler.GetUser)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Paths
		if cfg.PathHandler != nil {
			protected.POST("/plan", cfg.PathHandler.CreatePlan)
			protected.GET("/paths", cfg.PathHandler.ListPaths)
			protected.GET("/paths/:id", cfg.PathHandler.GetPath)
		}

		// Courses
		if cfg.CourseHandler != nil {
			protected.POST("/generate-course", cfg.CourseHandler.GenerateCourse)
			protected.GET("/courses/:id", cfg.CourseHandler.GetCourse)
			protected.GET("/lessons/:id", cfg.CourseHandler.GetLesson)
		}
	}

	return r
}

package app

import (
	"github.com/yungbote/pathforge-backend/internal/http"
	httpH "github.com/yungbote/pathforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pathforge-backend/internal/http/middleware"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Realtime *httpH.RealtimeHandler
	Path     *httpH.PathHandler
	Course   *httpH.CourseHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(),
		Realtime: httpH.NewRealtimeHandler(log, sseHub),
		Path:     httpH.NewPathHandler(log, services.Path),
		Course:   httpH.NewCourseHandler(log, services.Course, services.CourseGeneration),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		ServiceName:     cfg.Service,
		CORSOrigins:     cfg.CORSOrigins,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		RealtimeHandler: handlers.Realtime,
		PathHandler:     handlers.Path,
		CourseHandler:   handlers.Course,
	})
}

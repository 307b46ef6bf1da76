package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/realtime"
	"github.com/yungbote/pathforge-backend/internal/services"
)

type Services struct {
	Auth             services.AuthService
	Path             services.PathService
	CourseGeneration services.CourseGenerationService
	Course           services.CourseService
	Notifier         services.PathNotifier
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	clients Clients,
	reposet Repos,
	index courseindex.Index,
	hub *realtime.SSEHub,
) Services {
	log.Info("Wiring services...")

	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if clients.SSEBus != nil {
		emitter = &services.RedisEmitter{Bus: clients.SSEBus, Log: log}
	}
	notifier := services.NewPathNotifier(emitter)
	tx := services.GormTx(db)

	return Services{
		Auth: services.NewAuthService(log, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Path: services.NewPathService(
			log, tx, clients.OpenAI, index,
			reposet.LearningPath, reposet.PathItem, reposet.Course, reposet.CourseEmbedding,
			notifier, cfg.Pipeline,
		),
		CourseGeneration: services.NewCourseGenerationService(
			log, tx, clients.OpenAI, index,
			reposet.LearningPath, reposet.PathItem, reposet.Course, reposet.Lesson, reposet.CourseEmbedding,
			notifier, cfg.Pipeline, cfg.GenerationStaleAfter,
		),
		Course: services.NewCourseService(
			log, tx, clients.OpenAI, index,
			reposet.Course, reposet.Lesson, reposet.CourseEmbedding,
		),
		Notifier: notifier,
	}
}

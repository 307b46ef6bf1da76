package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type Repos struct {
	LearningPath    repos.LearningPathRepo
	PathItem        repos.PathItemRepo
	Course          repos.CourseRepo
	Lesson          repos.LessonRepo
	CourseEmbedding repos.CourseEmbeddingRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, embeddingDim int) Repos {
	log.Info("Wiring repos...")
	return Repos{
		LearningPath:    repos.NewLearningPathRepo(db, log),
		PathItem:        repos.NewPathItemRepo(db, log),
		Course:          repos.NewCourseRepo(db, log),
		Lesson:          repos.NewLessonRepo(db, log),
		CourseEmbedding: repos.NewCourseEmbeddingRepo(db, log, embeddingDim),
	}
}

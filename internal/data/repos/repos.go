package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pathforge-backend/internal/data/repos/learning"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type LearningPathRepo = learning.LearningPathRepo
type PathItemRepo = learning.PathItemRepo
type CourseRepo = learning.CourseRepo
type LessonRepo = learning.LessonRepo
type CourseEmbeddingRepo = learning.CourseEmbeddingRepo
type EmbeddingMatch = learning.EmbeddingMatch

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return learning.NewLearningPathRepo(db, baseLog)
}
func NewPathItemRepo(db *gorm.DB, baseLog *logger.Logger) PathItemRepo {
	return learning.NewPathItemRepo(db, baseLog)
}
func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewCourseEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger, dim int) CourseEmbeddingRepo {
	return learning.NewCourseEmbeddingRepo(db, baseLog, dim)
}

package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, rows []*types.Lesson) ([]*types.Lesson, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error)
	ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error)
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

func (r *lessonRepo) Create(dbc dbctx.Context, rows []*types.Lesson) ([]*types.Lesson, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Lesson{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Omit("Course").Create(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Lesson
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *lessonRepo) ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Lesson{}
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("idx ASC").
		Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

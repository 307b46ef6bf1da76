package services

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/steps"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

// courseStore persists a finished course with its lessons and retrieval embedding.
// Generated and seeded courses both go through it.
type courseStore struct {
	log        *logger.Logger
	tx         TxRunner
	ai         openai.Client
	index      courseindex.Index
	courses    repos.CourseRepo
	lessons    repos.LessonRepo
	embeddings repos.CourseEmbeddingRepo
}

func (s *courseStore) embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.ai.Embed(ctx, []string{text})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstreamModel, fmt.Errorf("embed course: %w", err))
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, apperr.Wrapf(apperr.ErrUpstreamModel, "embed course: empty embedding")
	}
	return vecs[0], nil
}

// save writes course, lessons and embedding in one transaction. inTx, when set, runs last in
// the same transaction and can veto the commit.
func (s *courseStore) save(ctx context.Context, course *types.Course, lessons []*types.Lesson, vec []float32, inTx func(dbc dbctx.Context) error) error {
	row := &types.CourseEmbedding{
		CourseID:           course.ID,
		Title:              course.Title,
		DescriptionPreview: steps.Preview(steps.BuildEmbedDoc(course, lessons), steps.PreviewChars),
		Embedding:          pgvector.NewVector(vec),
	}
	return s.tx(ctx, func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.courses.Create(dbc, course); err != nil {
			return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("insert course: %w", err))
		}
		if _, err := s.lessons.Create(dbc, lessons); err != nil {
			return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("insert lessons: %w", err))
		}
		if err := s.embeddings.Upsert(dbc, row); err != nil {
			return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("upsert course embedding: %w", err))
		}
		if inTx != nil {
			return inTx(dbc)
		}
		return nil
	})
}

// mirror copies the committed embedding into the course index. Failures are logged.
func (s *courseStore) mirror(ctx context.Context, course *types.Course, vec []float32) {
	if s.index == nil {
		return
	}
	err := s.index.Mirror(ctx, courseindex.Entry{
		CourseID: course.ID,
		Title:    course.Title,
		IsPublic: course.IsPublic,
		Vector:   vec,
	})
	if err != nil {
		s.log.Warn("course index mirror failed", "course_id", course.ID.String(), "error", err)
	}
}

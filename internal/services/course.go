package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/steps"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/pkg/requestdata"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

type CourseDetail struct {
	Course  *types.Course   `json:"course"`
	Lessons []*types.Lesson `json:"lessons"`
}

type SeedResult struct {
	Created []uuid.UUID
	Skipped []string
}

type CourseService interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*CourseDetail, error)
	GetLesson(ctx context.Context, id uuid.UUID) (*types.Lesson, error)
	// SeedLibrary inserts the built-in library courses that are not present yet.
	SeedLibrary(ctx context.Context) (*SeedResult, error)
}

type courseService struct {
	log   *logger.Logger
	store *courseStore
}

func NewCourseService(
	log *logger.Logger,
	tx TxRunner,
	ai openai.Client,
	index courseindex.Index,
	courses repos.CourseRepo,
	lessons repos.LessonRepo,
	embeddings repos.CourseEmbeddingRepo,
) CourseService {
	serviceLog := log.With("service", "CourseService")
	return &courseService{
		log: serviceLog,
		store: &courseStore{
			log:        serviceLog,
			tx:         tx,
			ai:         ai,
			index:      index,
			courses:    courses,
			lessons:    lessons,
			embeddings: embeddings,
		},
	}
}

// GetCourse returns a course with lessons ordered by idx. Private courses of other users are
// reported as missing.
func (s *courseService) GetCourse(ctx context.Context, id uuid.UUID) (*CourseDetail, error) {
	userID, ok := requestdata.UserID(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	dbc := dbctx.Context{Ctx: ctx}
	course, err := s.visibleCourse(dbc, id, userID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.store.lessons.ListByCourseID(dbc, course.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("list lessons: %w", err))
	}
	return &CourseDetail{Course: course, Lessons: lessons}, nil
}

func (s *courseService) GetLesson(ctx context.Context, id uuid.UUID) (*types.Lesson, error) {
	userID, ok := requestdata.UserID(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "lesson id is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	lesson, err := s.store.lessons.GetByID(dbc, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("get lesson: %w", err))
	}
	if lesson == nil {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "lesson %s", id)
	}
	if _, err := s.visibleCourse(dbc, lesson.CourseID, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrapf(apperr.ErrNotFound, "lesson %s", id)
		}
		return nil, err
	}
	return lesson, nil
}

func (s *courseService) visibleCourse(dbc dbctx.Context, id, userID uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "course id is required")
	}
	course, err := s.store.courses.GetByID(dbc, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("get course: %w", err))
	}
	if course == nil || !course.VisibleTo(userID) {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "course %s", id)
	}
	return course, nil
}

func (s *courseService) SeedLibrary(ctx context.Context) (*SeedResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.store.courses.ListLibrary(dbc)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("list library courses: %w", err))
	}
	have := map[string]bool{}
	for _, c := range existing {
		have[c.Title] = true
	}

	res := &SeedResult{}
	for _, seed := range librarySeeds() {
		if have[seed.Title] {
			res.Skipped = append(res.Skipped, seed.Title)
			continue
		}
		course := &types.Course{
			ID:          uuid.New(),
			Title:       seed.Title,
			Subtitle:    &seed.Subtitle,
			Description: seed.Description,
			Level:       &seed.Level,
			Tags:        pq.StringArray(seed.Tags),
			IsPublic:    true,
		}
		lessons := make([]*types.Lesson, 0, len(seed.Lessons))
		for i, l := range seed.Lessons {
			lessons = append(lessons, &types.Lesson{CourseID: course.ID, Idx: i + 1, Title: l.Title, Content: l.Content})
		}
		vec, err := s.store.embed(ctx, steps.BuildEmbedDoc(course, lessons))
		if err != nil {
			return res, fmt.Errorf("seed %q: %w", seed.Title, err)
		}
		if err := s.store.save(ctx, course, lessons, vec, nil); err != nil {
			return res, fmt.Errorf("seed %q: %w", seed.Title, err)
		}
		s.store.mirror(ctx, course, vec)
		s.log.Info("library course seeded", "course_id", course.ID.String(), "title", course.Title)
		res.Created = append(res.Created, course.ID)
	}
	return res, nil
}

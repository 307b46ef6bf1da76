package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/steps"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/pkg/requestdata"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

const (
	minNewTitleChars  = 3
	maxItemErrorChars = 1000
)

type GenerateCourseRequest struct {
	PathID   uuid.UUID
	Idx      int
	NewTitle string
	Prompt   string
}

type CourseGenerationService interface {
	// Generate claims the path item, writes the course and marks the item ready. It returns the new
	// course id.
	Generate(ctx context.Context, req GenerateCourseRequest) (uuid.UUID, error)
}

type courseGenerationService struct {
	log        *logger.Logger
	store      *courseStore
	paths      repos.LearningPathRepo
	items      repos.PathItemRepo
	notify     PathNotifier
	cfg        steps.PipelineConfig
	staleAfter time.Duration
	now        func() time.Time
}

func NewCourseGenerationService(
	log *logger.Logger,
	tx TxRunner,
	ai openai.Client,
	index courseindex.Index,
	paths repos.LearningPathRepo,
	items repos.PathItemRepo,
	courses repos.CourseRepo,
	lessons repos.LessonRepo,
	embeddings repos.CourseEmbeddingRepo,
	notify PathNotifier,
	cfg steps.PipelineConfig,
	staleAfter time.Duration,
) CourseGenerationService {
	serviceLog := log.With("service", "CourseGenerationService")
	return &courseGenerationService{
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
		paths:      paths,
		items:      items,
		notify:     notify,
		cfg:        cfg,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func validateGenerateRequest(req GenerateCourseRequest) error {
	switch {
	case req.PathID == uuid.Nil:
		return apperr.Wrapf(apperr.ErrInvalidInput, "path_id is required")
	case req.Idx < 1:
		return apperr.Wrapf(apperr.ErrInvalidInput, "idx must be >= 1")
	case utf8.RuneCountInString(strings.TrimSpace(req.NewTitle)) < minNewTitleChars:
		return apperr.Wrapf(apperr.ErrInvalidInput, "new_title must be at least %d characters", minNewTitleChars)
	case utf8.RuneCountInString(strings.TrimSpace(req.Prompt)) < minPromptChars:
		return apperr.Wrapf(apperr.ErrInvalidInput, "prompt must be at least %d characters", minPromptChars)
	}
	return nil
}

func (s *courseGenerationService) Generate(ctx context.Context, req GenerateCourseRequest) (uuid.UUID, error) {
	userID, ok := requestdata.UserID(ctx)
	if !ok {
		return uuid.Nil, apperr.ErrUnauthorized
	}
	if err := validateGenerateRequest(req); err != nil {
		return uuid.Nil, err
	}
	req.NewTitle = strings.TrimSpace(req.NewTitle)
	req.Prompt = strings.TrimSpace(req.Prompt)

	dbc := dbctx.Context{Ctx: ctx}
	path, err := s.paths.GetForOwner(dbc, req.PathID, userID, false)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("get learning path: %w", err))
	}
	if path == nil {
		return uuid.Nil, apperr.Wrapf(apperr.ErrNotFound, "learning path %s", req.PathID)
	}
	item, err := s.items.GetByPathIdx(dbc, path.ID, req.Idx)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("get path item: %w", err))
	}
	if item == nil {
		return uuid.Nil, apperr.Wrapf(apperr.ErrNotFound, "path item %d", req.Idx)
	}

	attemptID := uuid.New()
	startedAt := s.now()
	claimed, err := s.items.ClaimForGeneration(dbc, path.ID, req.Idx, attemptID, startedAt, startedAt.Add(-s.staleAfter))
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("claim path item: %w", err))
	}
	if !claimed {
		observability.Current().ObserveGeneration("conflict", 0)
		return uuid.Nil, apperr.Wrapf(apperr.ErrConflict, "path item %d is %s (%s)", req.Idx, item.Status, item.Kind)
	}

	log := s.log.With("path_id", path.ID.String(), "idx", req.Idx, "attempt_id", attemptID.String())
	log.Info("course generation claimed", "new_title", req.NewTitle)
	s.notify.PathItemStatus(userID, PathItemStatusEvent{PathID: path.ID, Idx: req.Idx, Status: types.PathItemStatusGenerating})

	ctx, span := observability.StartSpan(ctx, "course.generate",
		attribute.String("path.id", path.ID.String()),
		attribute.Int("path.idx", req.Idx),
	)
	courseID, genErr := s.generate(ctx, log, userID, path.ID, req, attemptID)
	observability.EndSpan(span, genErr)
	elapsed := s.now().Sub(startedAt)

	if genErr != nil {
		msg := apperr.Truncate(genErr.Error(), maxItemErrorChars)
		failCtx := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
		if marked, err := s.items.MarkFailed(failCtx, path.ID, req.Idx, attemptID, msg); err != nil {
			log.Error("mark path item failed", "error", err)
		} else if !marked {
			log.Warn("path item was taken over; failure not recorded")
		}
		observability.Current().ObserveGeneration("failed", elapsed)
		log.Warn("course generation failed", "error", genErr, "elapsed", elapsed.String())
		s.notify.PathItemStatus(userID, PathItemStatusEvent{PathID: path.ID, Idx: req.Idx, Status: types.PathItemStatusFailed, Error: msg})
		return uuid.Nil, apperr.Wrap(apperr.ErrGenerationFailed, genErr)
	}

	observability.Current().ObserveGeneration("ready", elapsed)
	log.Info("course generation ready", "course_id", courseID.String(), "elapsed", elapsed.String())
	s.notify.PathItemStatus(userID, PathItemStatusEvent{PathID: path.ID, Idx: req.Idx, Status: types.PathItemStatusReady, CourseID: &courseID})
	return courseID, nil
}

func (s *courseGenerationService) generate(ctx context.Context, log *logger.Logger, userID, pathID uuid.UUID, req GenerateCourseRequest, attemptID uuid.UUID) (uuid.UUID, error) {
	written, err := steps.WriteCourse(ctx, steps.WriteCourseDeps{Log: log, AI: s.store.ai}, steps.WriteCourseInput{
		NewTitle: req.NewTitle,
		Prompt:   req.Prompt,
		Writer:   s.cfg.Writer,
		Expander: s.cfg.Expander,
	})
	if err != nil {
		return uuid.Nil, err
	}
	log.Debug("course written", "lessons", len(written.Lessons), "expansions", written.Expansions)

	course := &types.Course{
		ID:          uuid.New(),
		Owner:       &userID,
		Title:       written.Course.Title,
		Subtitle:    written.Course.Subtitle,
		Description: written.Course.Description,
		Level:       written.Course.Level,
		Tags:        pq.StringArray(written.Course.Tags),
		IsPublic:    true,
	}
	if course.Tags == nil {
		course.Tags = pq.StringArray{}
	}
	lessons := make([]*types.Lesson, 0, len(written.Lessons))
	for i, l := range written.Lessons {
		lessons = append(lessons, &types.Lesson{
			CourseID: course.ID,
			Idx:      i + 1,
			Title:    l.Title,
			Content:  l.Content,
		})
	}

	vec, err := s.store.embed(ctx, steps.BuildEmbedText(course, lessons))
	if err != nil {
		return uuid.Nil, err
	}

	err = s.store.save(ctx, course, lessons, vec, func(dbc dbctx.Context) error {
		ok, err := s.items.MarkReady(dbc, pathID, req.Idx, attemptID, course.ID)
		if err != nil {
			return apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("mark path item ready: %w", err))
		}
		if !ok {
			return apperr.Wrapf(apperr.ErrConflict, "generation attempt %s was superseded", attemptID)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	s.store.mirror(ctx, course, vec)
	return course.ID, nil
}

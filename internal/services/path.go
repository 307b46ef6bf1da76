package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

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

const minPromptChars = 5

type PlanResult struct {
	PathID uuid.UUID
	Steps  []steps.PlanStep
}

type PathService interface {
	CreatePlan(ctx context.Context, prompt string) (*PlanResult, error)
	ListPaths(ctx context.Context, includeItems bool) ([]*types.LearningPath, error)
	GetPath(ctx context.Context, id uuid.UUID) (*types.LearningPath, error)
}

type pathService struct {
	log        *logger.Logger
	tx         TxRunner
	ai         openai.Client
	index      courseindex.Index
	paths      repos.LearningPathRepo
	items      repos.PathItemRepo
	courses    repos.CourseRepo
	embeddings repos.CourseEmbeddingRepo
	notify     PathNotifier
	cfg        steps.PipelineConfig
}

func NewPathService(
	log *logger.Logger,
	tx TxRunner,
	ai openai.Client,
	index courseindex.Index,
	paths repos.LearningPathRepo,
	items repos.PathItemRepo,
	courses repos.CourseRepo,
	embeddings repos.CourseEmbeddingRepo,
	notify PathNotifier,
	cfg steps.PipelineConfig,
) PathService {
	return &pathService{
		log:        log.With("service", "PathService"),
		tx:         tx,
		ai:         ai,
		index:      index,
		paths:      paths,
		items:      items,
		courses:    courses,
		embeddings: embeddings,
		notify:     notify,
		cfg:        cfg,
	}
}

// CreatePlan plans a learning path for prompt and persists it with its items. Model and search
// failures degrade to a fallback plan; only auth and persistence errors fail the call.
func (s *pathService) CreatePlan(ctx context.Context, prompt string) (res *PlanResult, err error) {
	userID, ok := requestdata.UserID(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	prompt = strings.TrimSpace(prompt)
	if utf8.RuneCountInString(prompt) < minPromptChars {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "prompt must be at least %d characters", minPromptChars)
	}

	ctx, span := observability.StartSpan(ctx, "plan.create")
	defer func() { observability.EndSpan(span, err) }()
	log := s.log.With("user_id", userID.String())

	plan, err := steps.PlanPath(ctx, steps.PlanPathDeps{
		Log: log,
		AI:  s.ai,
		Search: steps.SimilaritySearchDeps{
			Log:        log,
			Index:      s.index,
			Embeddings: s.embeddings,
			Courses:    s.courses,
		},
		Courses: s.courses,
	}, steps.PlanPathInput{Prompt: prompt, Config: s.cfg})
	if err != nil {
		return nil, fmt.Errorf("plan path: %w", err)
	}

	meta := types.PlanMetadata{
		Candidates: make([]types.PlanCandidateRef, 0, len(plan.Candidates)),
		Fallback:   plan.Fallback,
		Enforced:   plan.Enforced,
		Model:      openai.ModelName(s.ai),
	}
	for _, c := range plan.Candidates {
		meta.Candidates = append(meta.Candidates, types.PlanCandidateRef{ID: c.ID, Score: c.Score})
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode plan metadata: %w", err)
	}

	path := &types.LearningPath{
		ID:         uuid.New(),
		OwnerID:    userID,
		UserPrompt: prompt,
		Metadata:   datatypes.JSON(metaJSON),
	}
	rows := make([]*types.PathItem, 0, len(plan.Steps))
	for _, st := range plan.Steps {
		rows = append(rows, &types.PathItem{
			PathID:   path.ID,
			Idx:      st.Idx,
			Kind:     st.Kind,
			CourseID: st.CourseID,
			NewTitle: st.NewTitle,
			Note:     st.Note,
			Status:   st.Status,
		})
	}

	err = s.tx(ctx, func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.paths.Create(txc, path); err != nil {
			return fmt.Errorf("insert learning path: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := s.items.Create(txc, rows); err != nil {
			return fmt.Errorf("insert path items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, err)
	}

	outcome := "planned"
	if plan.Fallback {
		outcome = "fallback"
	}
	observability.Current().IncPlanCreated(outcome, plan.Enforced)
	span.SetAttributes(attribute.String("path.id", path.ID.String()), attribute.String("plan.outcome", outcome))
	log.Info("learning path created", "path_id", path.ID.String(), "steps", len(plan.Steps), "outcome", outcome, "enforced", plan.Enforced)
	s.notify.PathCreated(userID, path.ID)

	return &PlanResult{PathID: path.ID, Steps: plan.Steps}, nil
}

func (s *pathService) ListPaths(ctx context.Context, includeItems bool) ([]*types.LearningPath, error) {
	userID, ok := requestdata.UserID(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	paths, err := s.paths.ListByOwner(dbctx.Context{Ctx: ctx}, userID, includeItems)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("list learning paths: %w", err))
	}
	return paths, nil
}

// GetPath returns the caller's path with items ordered by idx. Paths of other users are reported
// as missing.
func (s *pathService) GetPath(ctx context.Context, id uuid.UUID) (*types.LearningPath, error) {
	userID, ok := requestdata.UserID(ctx)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	if id == uuid.Nil {
		return nil, apperr.Wrapf(apperr.ErrInvalidInput, "path id is required")
	}
	path, err := s.paths.GetForOwner(dbctx.Context{Ctx: ctx}, id, userID, true)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, fmt.Errorf("get learning path: %w", err))
	}
	if path == nil {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "learning path %s", id)
	}
	return path, nil
}

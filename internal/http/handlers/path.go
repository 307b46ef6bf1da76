package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/http/response"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/steps"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/services"
)

type PathHandler struct {
	log   *logger.Logger
	paths services.PathService
}

func NewPathHandler(log *logger.Logger, paths services.PathService) *PathHandler {
	return &PathHandler{log: log.With("handler", "PathHandler"), paths: paths}
}

type createPlanRequest struct {
	Prompt string `json:"prompt"`
}

type createPlanResponse struct {
	PathID   uuid.UUID        `json:"path_id"`
	Redirect string           `json:"redirect"`
	Items    []steps.PlanStep `json:"items"`
}

// pathView carries path_items whenever items were requested, even when there are none.
type pathView struct {
	ID         uuid.UUID         `json:"id"`
	UserPrompt string            `json:"user_prompt"`
	Title      *string           `json:"title"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	PathItems  *[]types.PathItem `json:"path_items,omitempty"`
}

func toPathView(p *types.LearningPath, withItems bool) pathView {
	v := pathView{
		ID:         p.ID,
		UserPrompt: p.UserPrompt,
		Title:      p.Title,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if withItems {
		items := p.Items
		if items == nil {
			items = []types.PathItem{}
		}
		v.PathItems = &items
	}
	return v
}

// POST /api/plan
func (h *PathHandler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.Wrapf(apperr.ErrInvalidInput, "invalid body: %v", err))
		return
	}
	res, err := h.paths.CreatePlan(c.Request.Context(), req.Prompt)
	if err != nil {
		h.log.Warn("create plan failed", "error", err)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, createPlanResponse{
		PathID:   res.PathID,
		Redirect: "/paths/" + res.PathID.String(),
		Items:    res.Steps,
	})
}

// GET /api/paths
func (h *PathHandler) ListPaths(c *gin.Context) {
	includeItems := strings.EqualFold(strings.TrimSpace(c.Query("include")), "items")
	paths, err := h.paths.ListPaths(c.Request.Context(), includeItems)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	out := make([]pathView, 0, len(paths))
	for _, p := range paths {
		if p == nil {
			continue
		}
		out = append(out, toPathView(p, includeItems))
	}
	response.RespondOK(c, out)
}

// GET /api/paths/:id
func (h *PathHandler) GetPath(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAppError(c, apperr.Wrapf(apperr.ErrInvalidInput, "invalid path id"))
		return
	}
	path, err := h.paths.GetPath(c.Request.Context(), id)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, toPathView(path, true))
}

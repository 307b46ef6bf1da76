package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pathforge-backend/internal/http/response"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/services"
)

type CourseHandler struct {
	log        *logger.Logger
	courses    services.CourseService
	generation services.CourseGenerationService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService, generation services.CourseGenerationService) *CourseHandler {
	return &CourseHandler{
		log:        log.With("handler", "CourseHandler"),
		courses:    courses,
		generation: generation,
	}
}

type generateCourseRequest struct {
	PathID   string `json:"path_id"`
	Idx      int    `json:"idx"`
	NewTitle string `json:"new_title"`
	Prompt   string `json:"prompt"`
}

// POST /api/generate-course
func (h *CourseHandler) GenerateCourse(c *gin.Context) {
	var req generateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAppError(c, apperr.Wrapf(apperr.ErrInvalidInput, "invalid body: %v", err))
		return
	}
	pathID, err := uuid.Parse(req.PathID)
	if err != nil {
		response.RespondAppError(c, apperr.Wrapf(apperr.ErrInvalidInput, "path_id must be a uuid"))
		return
	}
	courseID, err := h.generation.Generate(c.Request.Context(), services.GenerateCourseRequest{
		PathID:   pathID,
		Idx:      req.Idx,
		NewTitle: req.NewTitle,
		Prompt:   req.Prompt,
	})
	if err != nil {
		h.log.Warn("generate course failed", "path_id", pathID.String(), "idx", req.Idx, "error", err)
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course_id": courseID})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAppError(c, apperr.Wrapf(apperr.ErrInvalidInput, "invalid course id"))
		return
	}
	detail, err := h.courses.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

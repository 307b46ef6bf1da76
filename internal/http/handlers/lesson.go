package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pathforge-backend/internal/http/response"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
)

// GET /api/lessons/:id
func (h *CourseHandler) GetLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAppError(c, apperr.Wrapf(apperr.ErrInvalidInput, "invalid lesson id"))
		return
	}
	lesson, err := h.courses.GetLesson(c.Request.Context(), id)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

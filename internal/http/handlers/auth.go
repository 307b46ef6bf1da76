package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pathforge-backend/internal/http/response"
	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/pkg/requestdata"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler { return &AuthHandler{} }

// GET /api/auth/user
func (h *AuthHandler) GetUser(c *gin.Context) {
	userID, ok := requestdata.UserID(c.Request.Context())
	if !ok {
		response.RespondAppError(c, apperr.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": userID})
}

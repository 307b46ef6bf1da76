package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperr "github.com/yungbote/pathforge-backend/internal/pkg/errors"
	"github.com/yungbote/pathforge-backend/internal/platform/apierr"
)

// StatusFor maps an error to its HTTP status and envelope code. The most specific kind wins:
// a generation failure caused by invalid model output reports validation_failed.
func StatusFor(err error) (int, string) {
	var ae *apierr.Error
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &ae):
		return ae.Status, ae.Code
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, apperr.ErrUpstreamModel):
		return http.StatusBadGateway, "upstream_model_error"
	case errors.Is(err, apperr.ErrGenerationFailed):
		return http.StatusInternalServerError, "generation_failed"
	case errors.Is(err, apperr.ErrPersistence):
		return http.StatusInternalServerError, "persistence_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// RespondAppError writes the error envelope for a service error.
func RespondAppError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	RespondError(c, status, code, err)
}

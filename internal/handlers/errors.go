package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joshua-takyi/loopcard/internal/assets"
	"github.com/joshua-takyi/loopcard/internal/helpers"
	"github.com/joshua-takyi/loopcard/internal/models"
	"github.com/joshua-takyi/loopcard/internal/services"
	"github.com/joshua-takyi/loopcard/internal/slug"
	"github.com/joshua-takyi/loopcard/internal/wizard"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrDraftNotFound),
		errors.Is(err, models.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrSlugTaken), errors.Is(err, slug.ErrExhausted):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrNameRequired),
		errors.Is(err, wizard.ErrNotReady),
		errors.Is(err, wizard.ErrStepOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assets.ErrEmptyImage), errors.Is(err, assets.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, assets.ErrImageTooBig):
		return http.StatusRequestEntityTooLarge
	}
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Backend messages are passed through
// so the client can show them as is.
func respondError(c *gin.Context, err error) {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, helpers.FieldErrorResponse(err.Error(), verr.Fields))
		return
	}
	if errors.Is(err, wizard.ErrNameRequired) {
		c.JSON(http.StatusUnprocessableEntity, helpers.FieldErrorResponse(err.Error(), map[string]string{
			"full_name": "Full name is required",
		}))
		return
	}
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, helpers.ErrorResponse(err.Error()))
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	_, id, err := helpers.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse(err.Error()))
		return uuid.Nil, false
	}
	return id, true
}

func cardIDParam(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.Trim(strings.TrimSpace(c.Param("id")), "\"'")
	if raw == "" {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("card ID is required"))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid card ID format"))
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads offset and limit, capping limit at services.MaxPageSize.
func pagination(c *gin.Context) (offset, limit int, ok bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid limit parameter"))
		return 0, 0, false
	}
	if limit > services.MaxPageSize {
		limit = services.MaxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid offset parameter"))
		return 0, 0, false
	}
	return offset, limit, true
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/auth"
	"github.com/dealflow-hq/dealflow-api/internal/errors"
)

// statusFor maps application error codes onto HTTP statuses
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidOption,
		errors.ErrCodeRequiredFieldMissing, errors.ErrCodeInvalidScoreInput:
		return http.StatusBadRequest
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeConflict, errors.ErrCodeStaleState,
		errors.ErrCodeTerminalStage, errors.ErrCodeDealNotActive:
		return http.StatusConflict
	case errors.ErrCodeIncompleteProfile:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a typed error as JSON. Unknown errors are masked as
// internal to avoid leaking driver detail.
func respondError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		if code == "" {
			code = errors.ErrCodeInternalError
		}
		message = "internal error"
	}

	c.JSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}

// currentUserID reads the authenticated user from the request context
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(auth.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return id, true
}

// pathUUID parses a UUID path parameter
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

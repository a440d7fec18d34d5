package handlers

import (
	"net/http"

	"gift-exchange-backend/internal/auth"
	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/logger"
	"gift-exchange-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error string         `json:"error" example:"group not found"`
	Kind  apperrors.Kind `json:"kind" example:"not_found"`
}

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindInvalidInput:       http.StatusBadRequest,
	apperrors.KindNotFound:           http.StatusNotFound,
	apperrors.KindConflict:           http.StatusConflict,
	apperrors.KindForbidden:          http.StatusForbidden,
	apperrors.KindUnauthenticated:    http.StatusUnauthorized,
	apperrors.KindPreconditionFailed: http.StatusPreconditionFailed,
	apperrors.KindInternal:           http.StatusInternalServerError,
}

// statusFor maps an error to its HTTP status
func statusFor(err error) int {
	if status, ok := kindStatus[apperrors.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Internal errors are logged and their
// message is replaced.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	message := err.Error()
	if kind == apperrors.KindInternal {
		logger.WithContext(c.Request.Context()).WithError(err).Error("request failed")
		message = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(statusFor(err), ErrorResponse{Error: message, Kind: kind})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Kind: apperrors.KindInvalidInput})
}

// parseGroupID reads the :id path parameter, writing a 400 on failure
func parseGroupID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid group ID")
		return uuid.Nil, false
	}
	return id, true
}

// identityFrom returns the caller set by the auth middleware, or an
// anonymous identity
func identityFrom(c *gin.Context) service.Identity {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return service.Identity{}
	}
	name, _ := auth.GetUserName(c)
	return service.Identity{UserID: userID, Name: name}
}

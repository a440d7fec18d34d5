package handlers

import (
	"errors"
	"io"
	"net/http"

	"gift-exchange-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// MembershipHandler handles joining groups
type MembershipHandler struct {
	service service.MembershipServiceInterface
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(service service.MembershipServiceInterface) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// JoinGroup adds the caller to a group
// @Summary Join group
// @Description Join a group that has not been assigned yet. The secret is required when the group has one.
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Group ID (UUID)"
// @Param body body service.JoinGroupRequest false "Join secret"
// @Success 201 {object} service.MemberResponse "Joined"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 403 {object} ErrorResponse "Join secret does not match"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 409 {object} ErrorResponse "Already a member"
// @Failure 412 {object} ErrorResponse "Group no longer open or full"
// @Security BearerAuth
// @Router /groups/{id}/members [post]
func (h *MembershipHandler) JoinGroup(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	// an empty body joins a group without a secret
	var req service.JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(c, err.Error())
		return
	}

	member, err := h.service.Join(c.Request.Context(), identityFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

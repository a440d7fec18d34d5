package handlers

import (
	"net/http"
	"strconv"

	"gift-exchange-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// GroupHandler handles HTTP requests for groups
type GroupHandler struct {
	service service.GroupServiceInterface
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(service service.GroupServiceInterface) *GroupHandler {
	return &GroupHandler{service: service}
}

// CreateGroup creates a new group
// @Summary Create a new group
// @Description Create a gift exchange group. The caller becomes its captain.
// @Tags groups
// @Accept json
// @Produce json
// @Param group body service.CreateGroupRequest true "Group data"
// @Success 201 {object} service.GroupResponse "Successfully created group"
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Failure 409 {object} ErrorResponse "Group name already taken"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	group, err := h.service.Create(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// ListGroups lists groups
// @Summary List groups
// @Description List every group, or with mode=joined only the caller's groups
// @Tags groups
// @Accept json
// @Produce json
// @Param mode query string false "all (default) or joined"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} service.GroupListResponse "Successfully retrieved groups"
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	groups, err := h.service.List(c.Request.Context(), identityFrom(c), c.Query("mode"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// GetGroup retrieves a group by ID
// @Summary Get group by ID
// @Description Get a group with its members. Before the reveal only the caller's own recipient is shown.
// @Tags groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID (UUID)"
// @Success 200 {object} service.GroupDetailResponse "Successfully retrieved group"
// @Failure 400 {object} ErrorResponse "Invalid group ID"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.service.GetByID(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// AssignRecipients draws the secret assignment
// @Summary Assign recipients
// @Description Captain only. Gives every member exactly one recipient other than themselves.
// @Tags groups
// @Produce json
// @Param id path string true "Group ID (UUID)"
// @Success 200 {object} service.TransitionResponse "Recipients assigned"
// @Failure 403 {object} ErrorResponse "Caller is not the captain"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 409 {object} ErrorResponse "Recipients already assigned"
// @Failure 412 {object} ErrorResponse "Too few members"
// @Security BearerAuth
// @Router /groups/{id}/assignment [post]
func (h *GroupHandler) AssignRecipients(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	resp, err := h.service.Assign(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RevealAssignment makes the assignment visible to everyone
// @Summary Reveal assignment
// @Description Captain only. Revealing an already revealed group is a no-op.
// @Tags groups
// @Produce json
// @Param id path string true "Group ID (UUID)"
// @Success 200 {object} service.TransitionResponse "Assignment revealed"
// @Failure 403 {object} ErrorResponse "Caller is not the captain"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 412 {object} ErrorResponse "Assignment incomplete"
// @Security BearerAuth
// @Router /groups/{id}/reveal [post]
func (h *GroupHandler) RevealAssignment(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	resp, err := h.service.Reveal(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RetireGroup deletes a finished group
// @Summary Retire group
// @Description Captain only. Allowed once revealed, or while the captain is the only member.
// @Tags groups
// @Param id path string true "Group ID (UUID)"
// @Success 204 "Group retired"
// @Failure 403 {object} ErrorResponse "Caller is not the captain"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 412 {object} ErrorResponse "Reveal required first"
// @Security BearerAuth
// @Router /groups/{id} [delete]
func (h *GroupHandler) RetireGroup(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	if err := h.service.Retire(c.Request.Context(), identityFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

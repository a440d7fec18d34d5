package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gift-exchange-backend/internal/database/models"
	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/logger"
	"gift-exchange-backend/internal/matching"
	"gift-exchange-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Listing modes
const (
	ListModeAll    = "all"
	ListModeJoined = "joined"
)

// GroupService drives the group lifecycle: create, assign, reveal, retire.
// Every transition is a single transaction that locks the group row first.
type GroupService struct {
	store      repository.Store
	matcher    Matcher
	validator  *validator.Validate
	recorder   TransitionRecorder
	secretCost int
}

// NewGroupService creates a new group service
func NewGroupService(store repository.Store, matcher Matcher, validator *validator.Validate, recorder TransitionRecorder) *GroupService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &GroupService{
		store:      store,
		matcher:    matcher,
		validator:  validator,
		recorder:   recorder,
		secretCost: bcrypt.DefaultCost,
	}
}

// WithSecretCost overrides the bcrypt cost used for join secrets
func (s *GroupService) WithSecretCost(cost int) *GroupService {
	s.secretCost = cost
	return s
}

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=100" example:"Office 2026"`
	Secret string `json:"secret" validate:"max=72"`
}

// GroupResponse represents the response for group operations
type GroupResponse struct {
	ID         uuid.UUID             `json:"id"`
	Name       string                `json:"name"`
	HasSecret  bool                  `json:"has_secret"`
	IsRevealed bool                  `json:"is_revealed"`
	State      models.LifecycleState `json:"state"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// GroupDetailResponse is a group with its members, redacted for the viewer
type GroupDetailResponse struct {
	GroupResponse
	Members []MemberResponse `json:"members"`
}

// GroupSummaryResponse is one entry of a group listing
type GroupSummaryResponse struct {
	GroupResponse
	MemberCount int                `json:"member_count"`
	IsJoined    bool               `json:"is_joined"`
	Role        *models.MemberRole `json:"role,omitempty"`
}

// GroupListResponse represents a paginated list of groups
type GroupListResponse struct {
	Groups   []GroupSummaryResponse `json:"groups"`
	Total    int64                  `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// TransitionResponse reports the state reached by a transition
type TransitionResponse struct {
	GroupID uuid.UUID             `json:"group_id"`
	State   models.LifecycleState `json:"state"`
}

// Create creates a new group with the actor as its captain
func (s *GroupService) Create(ctx context.Context, actor Identity, req *CreateGroupRequest) (*GroupResponse, error) {
	if err := actor.require(); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := checkSecret(req.Secret); err != nil {
		return nil, err
	}

	group := &models.Group{Name: req.Name}
	if req.Secret != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), s.secretCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash join secret: %w", err)
		}
		group.SecretHash = string(hash)
	}

	var members []models.Member
	err := s.store.WithinTransaction(ctx, func(repos repository.Repositories) error {
		// Check if group with same name exists
		existing, err := repos.Groups.GetByName(req.Name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check existing group: %w", err)
		}
		if existing != nil {
			return apperrors.ErrGroupExists
		}

		if err := repos.Users.EnsureExists(&models.User{ID: actor.UserID, Name: actor.displayName()}); err != nil {
			return fmt.Errorf("failed to register user: %w", err)
		}

		if err := repos.Groups.Create(group); err != nil {
			// lost a race with a concurrent create of the same name
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrGroupExists
			}
			return fmt.Errorf("failed to create group: %w", err)
		}

		captain := models.Member{
			GroupID: group.ID,
			UserID:  actor.UserID,
			Role:    models.MemberRoleCaptain,
		}
		if err := repos.Members.Create(&captain); err != nil {
			return fmt.Errorf("failed to add captain: %w", err)
		}
		members = []models.Member{captain}
		return nil
	})
	s.recorder.ObserveTransition("create", err)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).WithField("group_id", group.ID).Info("group created")

	resp := toGroupResponse(group, members)
	return &resp, nil
}

// GetByID returns a group with its members. Before the reveal only the
// viewer's own recipient is visible.
func (s *GroupService) GetByID(ctx context.Context, viewer Identity, id uuid.UUID) (*GroupDetailResponse, error) {
	var (
		group   *models.Group
		members []models.Member
	)
	err := s.store.WithinReadOnlyTransaction(ctx, func(repos repository.Repositories) error {
		var err error
		group, err = repos.Groups.GetByID(id)
		if err != nil {
			return mapGroupLookupError(err)
		}
		members, err = listMembers(repos, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &GroupDetailResponse{
		GroupResponse: toGroupResponse(group, members),
		Members:       make([]MemberResponse, 0, len(members)),
	}
	for i := range members {
		member := toMemberResponse(&members[i])
		if !group.IsRevealed && member.UserID != viewer.UserID {
			member.RecipientID = nil
		}
		resp.Members = append(resp.Members, member)
	}
	return resp, nil
}

// List returns every group (mode "all") or the viewer's groups (mode "joined")
func (s *GroupService) List(ctx context.Context, viewer Identity, mode string, page, pageSize int) (*GroupListResponse, error) {
	if mode == "" {
		mode = ListModeAll
	}
	if mode != ListModeAll && mode != ListModeJoined {
		return nil, apperrors.NewValidationError("mode", "must be one of: all, joined")
	}
	if mode == ListModeJoined && viewer.IsAnonymous() {
		return nil, apperrors.NewValidationError("mode", "joined listing requires an authenticated user")
	}
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	resp := &GroupListResponse{
		Groups:   []GroupSummaryResponse{},
		Page:     page,
		PageSize: pageSize,
	}
	err := s.store.WithinReadOnlyTransaction(ctx, func(repos repository.Repositories) error {
		if mode == ListModeJoined {
			memberships, total, err := repos.Members.GetByUserID(viewer.UserID, pageSize, offset)
			if err != nil {
				return fmt.Errorf("failed to list memberships: %w", err)
			}
			resp.Total = total
			for i := range memberships {
				if memberships[i].Group == nil {
					continue
				}
				summary, err := summarize(repos, memberships[i].Group, viewer)
				if err != nil {
					return err
				}
				resp.Groups = append(resp.Groups, summary)
			}
			return nil
		}

		groups, total, err := repos.Groups.GetAll(pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}
		resp.Total = total
		for i := range groups {
			summary, err := summarize(repos, &groups[i], viewer)
			if err != nil {
				return err
			}
			resp.Groups = append(resp.Groups, summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Assign draws the secret assignment and stores every recipient at once
func (s *GroupService) Assign(ctx context.Context, actor Identity, id uuid.UUID) (*TransitionResponse, error) {
	var memberCount int
	err := s.transition(ctx, actor, id, func(repos repository.Repositories, group *models.Group, members []models.Member) error {
		for i := range members {
			if members[i].HasRecipient() {
				return apperrors.ErrAlreadyAssigned
			}
		}
		if group.IsRevealed {
			return apperrors.ErrAlreadyAssigned
		}
		if len(members) < 2 {
			return apperrors.ErrTooFewMembers
		}

		ids := make([]string, len(members))
		for i := range members {
			ids[i] = members[i].UserID
		}
		pairs, err := s.matcher.Derange(ids)
		if err != nil {
			if errors.Is(err, matching.ErrInsufficientMembers) {
				return apperrors.ErrTooFewMembers
			}
			return fmt.Errorf("failed to draw assignment: %w", err)
		}

		for _, giver := range ids {
			recipient, ok := pairs[giver]
			if !ok {
				return fmt.Errorf("assignment is missing a recipient for %s", giver)
			}
			written, err := repos.Members.AssignRecipient(id, giver, recipient)
			if err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return apperrors.ErrAlreadyAssigned
				}
				return fmt.Errorf("failed to store recipient: %w", err)
			}
			// another writer got there first
			if !written {
				return apperrors.ErrAlreadyAssigned
			}
		}

		if err := repos.Groups.SetRevealed(id, false); err != nil {
			return fmt.Errorf("failed to reset reveal flag: %w", err)
		}
		memberCount = len(members)
		return nil
	})
	s.recorder.ObserveTransition("assign", err)
	if err != nil {
		s.logRejected(ctx, "assign", id, err)
		return nil, err
	}

	logger.WithContext(ctx).WithFields(map[string]interface{}{
		"group_id": id,
		"members":  memberCount,
	}).Info("recipients assigned")

	return &TransitionResponse{GroupID: id, State: models.LifecycleStateAssigned}, nil
}

// Reveal makes the assignment visible to every member. Revealing twice is a
// no-op.
func (s *GroupService) Reveal(ctx context.Context, actor Identity, id uuid.UUID) (*TransitionResponse, error) {
	err := s.transition(ctx, actor, id, func(repos repository.Repositories, group *models.Group, members []models.Member) error {
		if group.IsRevealed {
			return nil
		}
		if len(members) < 2 {
			return apperrors.ErrIncompleteAssignment
		}
		for i := range members {
			if !members[i].HasRecipient() {
				return apperrors.ErrIncompleteAssignment
			}
		}
		if err := repos.Groups.SetRevealed(id, true); err != nil {
			return fmt.Errorf("failed to set reveal flag: %w", err)
		}
		return nil
	})
	s.recorder.ObserveTransition("reveal", err)
	if err != nil {
		s.logRejected(ctx, "reveal", id, err)
		return nil, err
	}

	logger.WithContext(ctx).WithField("group_id", id).Info("assignment revealed")

	return &TransitionResponse{GroupID: id, State: models.LifecycleStateRevealed}, nil
}

// Retire deletes a group and its members. Only a revealed group or a group
// whose captain is alone may be retired.
func (s *GroupService) Retire(ctx context.Context, actor Identity, id uuid.UUID) error {
	err := s.transition(ctx, actor, id, func(repos repository.Repositories, group *models.Group, members []models.Member) error {
		if !group.IsRevealed && len(members) > 1 {
			return apperrors.ErrRevealRequired
		}
		if err := repos.Members.DeleteByGroupID(id); err != nil {
			return fmt.Errorf("failed to delete members: %w", err)
		}
		if err := repos.Groups.Delete(id); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return nil
	})
	s.recorder.ObserveTransition("retire", err)
	if err != nil {
		s.logRejected(ctx, "retire", id, err)
		return err
	}

	logger.WithContext(ctx).WithField("group_id", id).Info("group retired")
	return nil
}

// transition locks the group, loads its members, checks that the actor is
// the captain and then runs apply, all in one transaction.
func (s *GroupService) transition(ctx context.Context, actor Identity, id uuid.UUID, apply func(repos repository.Repositories, group *models.Group, members []models.Member) error) error {
	if err := actor.require(); err != nil {
		return err
	}
	return s.store.WithinTransaction(ctx, func(repos repository.Repositories) error {
		group, err := repos.Groups.GetByIDForUpdate(id)
		if err != nil {
			return mapGroupLookupError(err)
		}
		members, err := listMembers(repos, id)
		if err != nil {
			return err
		}
		if !isCaptain(members, actor.UserID) {
			return apperrors.ErrNotCaptain
		}
		return apply(repos, group, members)
	})
}

func (s *GroupService) logRejected(ctx context.Context, transition string, id uuid.UUID, err error) {
	entry := logger.WithContext(ctx).WithFields(map[string]interface{}{
		"group_id":   id,
		"transition": transition,
		"kind":       apperrors.KindOf(err),
	}).WithError(err)
	if apperrors.KindOf(err) == apperrors.KindInternal {
		entry.Error("transition failed")
		return
	}
	entry.Info("transition rejected")
}

func isCaptain(members []models.Member, userID string) bool {
	for i := range members {
		if members[i].UserID == userID {
			return members[i].IsCaptain()
		}
	}
	return false
}

func summarize(repos repository.Repositories, group *models.Group, viewer Identity) (GroupSummaryResponse, error) {
	members, err := listMembers(repos, group.ID)
	if err != nil {
		return GroupSummaryResponse{}, err
	}
	summary := GroupSummaryResponse{
		GroupResponse: toGroupResponse(group, members),
		MemberCount:   len(members),
	}
	for i := range members {
		if !viewer.IsAnonymous() && members[i].UserID == viewer.UserID {
			role := members[i].Role
			summary.IsJoined = true
			summary.Role = &role
			break
		}
	}
	return summary, nil
}

func toGroupResponse(group *models.Group, members []models.Member) GroupResponse {
	return GroupResponse{
		ID:         group.ID,
		Name:       group.Name,
		HasSecret:  group.HasSecret(),
		IsRevealed: group.IsRevealed,
		State:      models.DeriveState(group, members),
		CreatedAt:  group.CreatedAt,
		UpdatedAt:  group.UpdatedAt,
	}
}

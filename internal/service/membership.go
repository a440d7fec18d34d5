package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gift-exchange-backend/internal/database/models"
	apperrors "gift-exchange-backend/internal/errors"
	"gift-exchange-backend/internal/logger"
	"gift-exchange-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MembershipService handles joining groups and listing their members
type MembershipService struct {
	store      repository.Store
	validator  *validator.Validate
	recorder   TransitionRecorder
	maxMembers int
}

// NewMembershipService creates a new membership service. A maxMembers of zero
// means groups are unbounded.
func NewMembershipService(store repository.Store, validator *validator.Validate, recorder TransitionRecorder, maxMembers int) *MembershipService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &MembershipService{
		store:      store,
		validator:  validator,
		recorder:   recorder,
		maxMembers: maxMembers,
	}
}

// JoinGroupRequest represents the request to join a group
type JoinGroupRequest struct {
	Secret string `json:"secret" validate:"max=72"`
}

// MemberResponse represents one member of a group. RecipientID is nil when
// no recipient is assigned or when it is hidden from the viewer.
type MemberResponse struct {
	GroupID     uuid.UUID         `json:"group_id"`
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Role        models.MemberRole `json:"role"`
	RecipientID *string           `json:"recipient_id"`
	JoinedAt    time.Time         `json:"joined_at"`
}

// Join adds the actor to a group as a regular member
func (s *MembershipService) Join(ctx context.Context, actor Identity, groupID uuid.UUID, req *JoinGroupRequest) (*MemberResponse, error) {
	if err := actor.require(); err != nil {
		return nil, err
	}
	if req == nil {
		req = &JoinGroupRequest{}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := checkSecret(req.Secret); err != nil {
		return nil, err
	}

	var member *models.Member
	err := s.store.WithinTransaction(ctx, func(repos repository.Repositories) error {
		var err error
		member, err = joinGroup(repos, actor, groupID, req.Secret, s.maxMembers)
		return err
	})
	s.recorder.ObserveTransition("join", err)
	if err != nil {
		logger.WithContext(ctx).WithFields(map[string]interface{}{
			"group_id": groupID,
			"kind":     apperrors.KindOf(err),
		}).WithError(err).Info("join rejected")
		return nil, err
	}

	logger.WithContext(ctx).WithField("group_id", groupID).Info("member joined group")

	resp := toMemberResponse(member)
	resp.Name = actor.displayName()
	return &resp, nil
}

// ListMembers returns every member of a group including recipients. Callers
// exposing the list to users must apply their own redaction.
func (s *MembershipService) ListMembers(ctx context.Context, groupID uuid.UUID) ([]MemberResponse, error) {
	var members []models.Member
	err := s.store.WithinReadOnlyTransaction(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Groups.GetByID(groupID); err != nil {
			return mapGroupLookupError(err)
		}
		var err error
		members, err = listMembers(repos, groupID)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]MemberResponse, 0, len(members))
	for i := range members {
		responses = append(responses, toMemberResponse(&members[i]))
	}
	return responses, nil
}

// joinGroup runs inside a transaction. The group row stays locked until the
// transaction ends so a concurrent Assign cannot see a half-joined group.
func joinGroup(repos repository.Repositories, actor Identity, groupID uuid.UUID, secret string, maxMembers int) (*models.Member, error) {
	group, err := repos.Groups.GetByIDForUpdate(groupID)
	if err != nil {
		return nil, mapGroupLookupError(err)
	}

	if group.HasSecret() {
		if err := bcrypt.CompareHashAndPassword([]byte(group.SecretHash), []byte(secret)); err != nil {
			return nil, apperrors.ErrInvalidJoinSecret
		}
	}

	if _, err := repos.Members.Get(groupID, actor.UserID); err == nil {
		return nil, apperrors.ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	members, err := listMembers(repos, groupID)
	if err != nil {
		return nil, err
	}
	if models.DeriveState(group, members) != models.LifecycleStateOpen {
		return nil, apperrors.ErrGroupNotOpen
	}
	if err := checkCapacity(len(members), maxMembers); err != nil {
		return nil, err
	}

	if err := repos.Users.EnsureExists(&models.User{ID: actor.UserID, Name: actor.displayName()}); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	member := &models.Member{
		GroupID: groupID,
		UserID:  actor.UserID,
		Role:    models.MemberRoleMember,
	}
	if err := repos.Members.Create(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return member, nil
}

func listMembers(repos repository.Repositories, groupID uuid.UUID) ([]models.Member, error) {
	members, err := repos.Members.GetByGroupID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func checkCapacity(current, maxMembers int) error {
	if maxMembers > 0 && current >= maxMembers {
		return apperrors.ErrGroupFull
	}
	return nil
}

func mapGroupLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrGroupNotFound
	}
	return fmt.Errorf("failed to get group: %w", err)
}

func toMemberResponse(m *models.Member) MemberResponse {
	resp := MemberResponse{
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		Name:        m.UserID,
		Role:        m.Role,
		RecipientID: m.RecipientID,
		JoinedAt:    m.JoinedAt,
	}
	if m.User != nil && m.User.Name != "" {
		resp.Name = m.User.Name
	}
	return resp
}

type noopRecorder struct{}

func (noopRecorder) ObserveTransition(string, error) {}

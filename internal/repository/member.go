package repository

import (
	"gift-exchange-backend/internal/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRepository handles database operations for group members
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create adds a member to a group
func (r *MemberRepository) Create(member *models.Member) error {
	return r.db.Omit("Group", "User").Create(member).Error
}

// Get retrieves one membership
func (r *MemberRepository) Get(groupID uuid.UUID, userID string) (*models.Member, error) {
	var member models.Member
	err := r.db.First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByGroupID retrieves every member of a group in join order
func (r *MemberRepository) GetByGroupID(groupID uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := r.db.Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC, user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// GetByUserID retrieves the memberships of a user with their groups
func (r *MemberRepository) GetByUserID(userID string, limit, offset int) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	if err := r.db.Model(&models.Member{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Preload("Group").
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Limit(limit).Offset(offset).
		Find(&members).Error
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// CountByGroupID counts the members of a group
func (r *MemberRepository) CountByGroupID(groupID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.Member{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

// AssignRecipient is a conditional write: it only touches a member whose
// recipient is still unset.
func (r *MemberRepository) AssignRecipient(groupID uuid.UUID, userID, recipientID string) (bool, error) {
	result := r.db.Model(&models.Member{}).
		Where("group_id = ? AND user_id = ? AND recipient_id IS NULL", groupID, userID).
		Update("recipient_id", recipientID)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteByGroupID removes every member of a group
func (r *MemberRepository) DeleteByGroupID(groupID uuid.UUID) error {
	return r.db.Where("group_id = ?", groupID).Delete(&models.Member{}).Error
}

package repository

import (
	"gift-exchange-backend/internal/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository handles database operations for groups
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create creates a new group
func (r *GroupRepository) Create(group *models.Group) error {
	return r.db.Create(group).Error
}

// GetByID retrieves a group by ID
func (r *GroupRepository) GetByID(id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := r.db.First(&group, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByIDForUpdate retrieves a group by ID and locks its row
func (r *GroupRepository) GetByIDForUpdate(id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&group, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByName retrieves a group by its unique name
func (r *GroupRepository) GetByName(name string) (*models.Group, error) {
	var group models.Group
	err := r.db.First(&group, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetAll retrieves all groups with pagination, newest first
func (r *GroupRepository) GetAll(limit, offset int) ([]models.Group, int64, error) {
	var groups []models.Group
	var total int64

	// Get total count
	if err := r.db.Model(&models.Group{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Get paginated results
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

// SetRevealed updates the reveal flag
func (r *GroupRepository) SetRevealed(id uuid.UUID, revealed bool) error {
	result := r.db.Model(&models.Group{}).Where("id = ?", id).Update("is_revealed", revealed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete deletes a group
func (r *GroupRepository) Delete(id uuid.UUID) error {
	result := r.db.Delete(&models.Group{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

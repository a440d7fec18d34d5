package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is the participation of one user in one group.
//
// RecipientID is nil until the group is assigned. The check constraint and the
// (group_id, recipient_id) unique index keep a stored assignment free of
// self-matches and double targets even if a writer misbehaves.
type Member struct {
	GroupID     uuid.UUID  `json:"group_id" gorm:"type:uuid;primaryKey;uniqueIndex:idx_members_group_recipient,priority:1;uniqueIndex:idx_members_one_captain,where:role = 'CAPTAIN'"`
	UserID      string     `json:"user_id" gorm:"primaryKey;size:128;index"`
	Role        MemberRole `json:"role" gorm:"type:varchar(16);not null;default:'MEMBER'"`
	RecipientID *string    `json:"recipient_id" gorm:"size:128;uniqueIndex:idx_members_group_recipient,priority:2;check:chk_members_no_self_match,recipient_id <> user_id"`
	JoinedAt    time.Time  `json:"joined_at" gorm:"autoCreateTime"`

	// Relationships
	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	User  *User  `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for Member
func (Member) TableName() string {
	return "members"
}

// IsCaptain reports whether the member created the group
func (m *Member) IsCaptain() bool {
	return m.Role == MemberRoleCaptain
}

// HasRecipient reports whether the member has been assigned someone to give to
func (m *Member) HasRecipient() bool {
	return m.RecipientID != nil
}

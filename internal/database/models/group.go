package models

// Group is a single gift exchange. Its lifecycle state is derived from the
// reveal flag and the recipients of its members, see DeriveState.
type Group struct {
	BaseModel
	Name       string `json:"name" gorm:"uniqueIndex:idx_groups_name;not null;size:100" validate:"required,min=1,max=100"`
	SecretHash string `json:"-" gorm:"size:72"`
	IsRevealed bool   `json:"is_revealed" gorm:"not null;default:false"`
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "groups"
}

// HasSecret reports whether joining requires a secret
func (g *Group) HasSecret() bool {
	return g.SecretHash != ""
}

package models

import "time"

// Privacy tiers sort by restrictiveness.
const (
	PrivacyPublic     = "10_PUBLIC"
	PrivacyRestricted = "20_RESTRICTED"
	PrivacyPrivate    = "30_PRIVATE"
)

const (
	RoleMember    = "MEMBER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

type Community struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `json:"description"`
	AuthorID    *int      `gorm:"index" json:"author_id"`
	Author      *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Privacy     string    `gorm:"size:20;not null;index" json:"privacy"`
	Is18Plus    bool      `gorm:"column:is_18_plus" json:"is_18_plus"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Community) IsPrivate() bool {
	return c.Privacy == PrivacyPrivate
}

// IsAuthor is false for communities whose author has been removed.
func (c *Community) IsAuthor(userID int) bool {
	return c.AuthorID != nil && *c.AuthorID == userID
}

func ValidPrivacy(p string) bool {
	switch p {
	case PrivacyPublic, PrivacyRestricted, PrivacyPrivate:
		return true
	}
	return false
}

type CommunityMember struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	CommunityID int       `gorm:"uniqueIndex:idx_community_member;not null" json:"community_id"`
	UserID      int       `gorm:"uniqueIndex:idx_community_member;not null" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role        string    `gorm:"size:20;not null" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ValidRole(r string) bool {
	switch r {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
	Is18Plus    bool   `json:"is_18_plus"`
}

type UpdateCommunityRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Privacy     *string `json:"privacy"`
	Is18Plus    *bool   `json:"is_18_plus"`
}

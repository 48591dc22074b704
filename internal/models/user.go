package models

import (
	"fmt"
	"time"
)

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash
	Phone    string `json:"-"`                 // E.164, used for SMS notifications
	Avatar   string `json:"avatar"`

	// Account state
	IsActive        bool   `json:"is_active"`
	IsStaff         bool   `json:"is_staff"`
	CanCreatePost   bool   `json:"can_create_post"`
	Warnings        int    `gorm:"not null;default:0" json:"warnings"`
	ActivationToken string `gorm:"index" json:"-"`

	LastActivity *time.Time `json:"last_activity"`
	Profile      *Profile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName prefers the profile nickname over the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Profile != nil && u.Profile.Nickname != "" {
		return u.Profile.Nickname
	}
	return u.Username
}

// IsOnline reports whether the last recorded activity is within limit of now.
func (u *User) IsOnline(now time.Time, limit time.Duration) bool {
	if u.LastActivity == nil {
		return false
	}
	return now.Sub(*u.LastActivity) <= limit
}

// LastActivityAgo renders the time since the last activity for display.
func (u *User) LastActivityAgo(now time.Time) string {
	if u.LastActivity == nil {
		return ""
	}
	return humanizeSince(now.Sub(*u.LastActivity))
}

func humanizeSince(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}

package models

import "time"

// Profile carries the public face of a user and the denormalized
// karma and gold counters.
type Profile struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	UserID       int       `gorm:"uniqueIndex;not null" json:"user_id"`
	Nickname     string    `gorm:"uniqueIndex;not null" json:"nickname"`
	Bio          string    `json:"bio"`
	PostKarma    int       `gorm:"not null;default:0" json:"post_karma"`
	CommentKarma int       `gorm:"not null;default:0" json:"comment_karma"`
	GoldAwards   int       `gorm:"not null;default:0" json:"gold_awards"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

package models

import "time"

type SavedPost struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_saved_user_post;not null" json:"user_id"`
	PostID    int       `gorm:"uniqueIndex:idx_saved_user_post;not null" json:"post_id"`
	Post      *Post     `gorm:"constraint:OnDelete:CASCADE" json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

const (
	VoteUp   = "10_UPVOTE"
	VoteDown = "20_DOWNVOTE"
)

// Vote model - one row per user and post, re-voting overwrites Choice
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"uniqueIndex:idx_vote_user_post;not null" json:"user_id"`
	PostID    int       `gorm:"uniqueIndex:idx_vote_user_post;index;not null" json:"post_id"`
	Choice    string    `gorm:"size:20;not null" json:"choice"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ValidVoteChoice(choice string) bool {
	return choice == VoteUp || choice == VoteDown
}

type VoteRequest struct {
	Choice string `json:"choice" binding:"required,oneof=10_UPVOTE 20_DOWNVOTE"`
}

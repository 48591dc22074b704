package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Post is a node of a discussion tree. Root posts have no parent and
// carry a title; comments point at their parent and at the thread root.
type Post struct {
	ID             int        `gorm:"primaryKey" json:"id"`
	AuthorID       *int       `gorm:"index" json:"author_id"`
	Author         *User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	CommunityID    int        `gorm:"index;not null" json:"community_id"`
	Community      *Community `gorm:"constraint:OnDelete:CASCADE" json:"community,omitempty"`
	ParentID       *int       `gorm:"index" json:"parent_id"`
	RootID         *int       `gorm:"index" json:"root_id"`
	Title          string     `gorm:"size:255" json:"title"`
	Body           string     `gorm:"type:text" json:"body"`
	UpVotes        int        `gorm:"not null;default:0" json:"up_votes"`
	DownVotes      int        `gorm:"not null;default:0" json:"down_votes"`
	Gold           int        `gorm:"not null;default:0" json:"gold"`
	DisplayCounter int        `gorm:"not null;default:0" json:"display_counter"`
	IsActive       bool       `gorm:"index" json:"is_active"`
	Version        string     `gorm:"size:64;not null" json:"version"`
	Tags           []Tag      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (p *Post) Score() int {
	return p.UpVotes - p.DownVotes
}

func (p *Post) IsRoot() bool {
	return p.ParentID == nil
}

// GenerateVersion fingerprints the editable state of the post.
func (p *Post) GenerateVersion() string {
	sum := sha256.Sum256([]byte(p.Title + p.Body + strconv.FormatBool(p.IsActive)))
	return hex.EncodeToString(sum[:])
}

type CreatePostRequest struct {
	Title string `json:"title" binding:"required,max=255"`
	Body  string `json:"body" binding:"required"`
}

type CreateCommentRequest struct {
	Body     string `json:"body" binding:"required"`
	ParentID *int   `json:"parent_id"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=255"`
	Body    *string `json:"body"`
	Version string  `json:"version"`
}

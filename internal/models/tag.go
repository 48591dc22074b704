package models

import "time"

// Tag is a hashtag found in a post body. Tags are derived data and are
// rewritten whenever the owning post is saved.
type Tag struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	PostID    int       `gorm:"uniqueIndex:idx_tag_post_name;not null" json:"-"`
	Name      string    `gorm:"uniqueIndex:idx_tag_post_name;index;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

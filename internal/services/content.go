package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

type ContentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

type CreatePostInput struct {
	AuthorID    int
	CommunityID int
	Title       string
	Body        string
	// ParentID makes the new node a comment.
	ParentID *int
}

// Create stores a new root post or comment after checking that the
// author may post and may write to the community.
func (s *ContentService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Title = strings.TrimSpace(in.Title)
	if strings.TrimSpace(in.Body) == "" {
		return nil, validation("INVALID_BODY", "Body is required")
	}
	if in.ParentID == nil && in.Title == "" {
		return nil, validation("INVALID_TITLE", "Title is required")
	}

	post := &models.Post{
		AuthorID:    &in.AuthorID,
		CommunityID: in.CommunityID,
		Title:       in.Title,
		Body:        in.Body,
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var author models.User
		if err := tx.First(&author, in.AuthorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !author.CanCreatePost {
			return ErrPostingDisabled
		}

		if in.ParentID != nil {
			var parent models.Post
			err := tx.Where("id = ? AND is_active = ?", *in.ParentID, true).First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrParentNotFound
			}
			if err != nil {
				return err
			}
			post.CommunityID = parent.CommunityID
			post.ParentID = &parent.ID
			if parent.RootID != nil {
				post.RootID = parent.RootID
			} else {
				post.RootID = &parent.ID
			}
		}

		var community models.Community
		err := tx.Where("id = ? AND is_active = ?", post.CommunityID, true).First(&community).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		if err != nil {
			return err
		}
		ok, err := canWrite(tx, &community, in.AuthorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPrivateCommunity
		}

		post.Version = post.GenerateVersion()
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return syncTags(tx, post.ID, post.Body)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Save persists the editable fields of post. An empty expectedVersion
// skips the staleness check; a mismatching one is a conflict. A save that
// does not change the version hash is rejected with ErrNoChanges.
func (s *ContentService) Save(ctx context.Context, post *models.Post, expectedVersion string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return savePost(tx, post, expectedVersion)
	})
}

func savePost(tx *gorm.DB, post *models.Post, expectedVersion string) error {
	current, err := lockPost(tx, post.ID)
	if err != nil {
		return err
	}
	if expectedVersion != "" && expectedVersion != current.Version {
		return ErrVersionConflict
	}

	next := post.GenerateVersion()
	if next == current.Version {
		return ErrNoChanges
	}

	res := tx.Model(&models.Post{}).
		Where("id = ? AND version = ?", post.ID, current.Version).
		Updates(map[string]any{
			"title":     post.Title,
			"body":      post.Body,
			"is_active": post.IsActive,
			"version":   next,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	post.Version = next

	return syncTags(tx, post.ID, post.Body)
}

// Edit applies an author's changes to title and body.
func (s *ContentService) Edit(ctx context.Context, postID, editorID int, title, body *string, expectedVersion string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if p.AuthorID == nil || *p.AuthorID != editorID {
			return ErrNotAuthor
		}
		if title != nil {
			if p.IsRoot() && strings.TrimSpace(*title) == "" {
				return validation("INVALID_TITLE", "Title is required")
			}
			p.Title = strings.TrimSpace(*title)
		}
		if body != nil {
			if strings.TrimSpace(*body) == "" {
				return validation("INVALID_BODY", "Body is required")
			}
			p.Body = *body
		}
		if err := savePost(tx, p, expectedVersion); err != nil {
			return err
		}
		post = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete soft deletes the post on behalf of its author.
func (s *ContentService) Delete(ctx context.Context, postID, userID int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if p.AuthorID == nil || *p.AuthorID != userID {
			return ErrNotAuthor
		}
		_, err = deactivatePost(tx, p.ID)
		return err
	})
}

// deactivatePost clears is_active and refreshes the version. It reports
// whether the post changed.
func deactivatePost(tx *gorm.DB, postID int) (bool, error) {
	p, err := lockPost(tx, postID)
	if err != nil {
		return false, err
	}
	if !p.IsActive {
		return false, nil
	}
	p.IsActive = false
	err = tx.Model(&models.Post{}).Where("id = ?", p.ID).UpdateColumns(map[string]any{
		"is_active": false,
		"version":   p.GenerateVersion(),
	}).Error
	return err == nil, err
}

func lockPost(tx *gorm.DB, postID int) (*models.Post, error) {
	var p models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get loads a post by id, active or not.
func (s *ContentService) Get(ctx context.Context, postID int) (*models.Post, error) {
	var p models.Post
	err := s.db.WithContext(ctx).
		Preload("Author.Profile").
		Preload("Community").
		Preload("Tags").
		First(&p, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementDisplay bumps the view counter without touching the version.
func (s *ContentService) IncrementDisplay(ctx context.Context, postID int) error {
	return s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("display_counter", gorm.Expr("display_counter + ?", 1)).Error
}

// ChildrenCount counts every descendant of the post, walking the tree
// one level per query.
func (s *ContentService) ChildrenCount(ctx context.Context, postID int) (int, error) {
	db := s.db.WithContext(ctx)
	seen := map[int]bool{postID: true}
	frontier := []int{postID}
	count := 0

	for len(frontier) > 0 {
		var children []int
		if err := db.Model(&models.Post{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return 0, err
		}
		frontier = frontier[:0]
		for _, id := range children {
			if seen[id] {
				continue
			}
			seen[id] = true
			count++
			frontier = append(frontier, id)
		}
	}
	return count, nil
}

type ListPostsOptions struct {
	CommunityID    int
	Tag            string
	AuthorID       int
	ExcludePrivate bool
	// OrderBy defaults to newest first.
	OrderBy string
}

const (
	OrderNewest = "newest"
	OrderTop    = "top"
)

// ListPosts lists active root posts.
func (s *ContentService) ListPosts(ctx context.Context, opts ListPostsOptions, page Page) ([]models.Post, int64, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.Post{}).
		Where("posts.is_active = ? AND posts.parent_id IS NULL", true)

	if opts.CommunityID != 0 {
		q = q.Where("posts.community_id = ?", opts.CommunityID)
	}
	if opts.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", opts.AuthorID)
	}
	if opts.Tag != "" {
		q = q.Where("posts.id IN (?)", db.Model(&models.Tag{}).Select("post_id").Where("name = ?", strings.ToLower(opts.Tag)))
	}
	if opts.ExcludePrivate {
		q = q.Joins("JOIN communities ON communities.id = posts.community_id").
			Where("communities.privacy <> ? AND communities.is_active = ?", models.PrivacyPrivate, true)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch opts.OrderBy {
	case OrderTop:
		q = q.Order("posts.up_votes DESC").Order("posts.id DESC")
	default:
		q = q.Order("posts.created_at DESC").Order("posts.id DESC")
	}

	var posts []models.Post
	err := q.Scopes(page.scope).
		Preload("Author.Profile").
		Preload("Community").
		Find(&posts).Error
	return posts, total, err
}

// CommentNode is one comment with its visible replies.
type CommentNode struct {
	models.Post
	Score    int            `json:"score"`
	Children []*CommentNode `json:"children"`
}

// Thread assembles the active comments of a root post into a tree.
// Replies below a deactivated comment are hidden with it.
func (s *ContentService) Thread(ctx context.Context, rootID int) ([]*CommentNode, error) {
	var comments []models.Post
	err := s.db.WithContext(ctx).
		Where("root_id = ? AND is_active = ?", rootID, true).
		Preload("Author.Profile").
		Order("created_at").Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	nodes := make(map[int]*CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &CommentNode{Post: comments[i], Score: comments[i].Score(), Children: []*CommentNode{}}
	}

	roots := []*CommentNode{}
	for i := range comments {
		node := nodes[comments[i].ID]
		parentID := *comments[i].ParentID
		if parentID == rootID {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[parentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots, nil
}

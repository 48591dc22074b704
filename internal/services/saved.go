package services

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

type SavedService struct {
	db *gorm.DB
}

func NewSavedService(db *gorm.DB) *SavedService {
	return &SavedService{db: db}
}

func (s *SavedService) Save(ctx context.Context, userID, postID int) (*models.SavedPost, error) {
	saved := &models.SavedPost{UserID: userID, PostID: postID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Where("id = ? AND is_active = ?", postID, true).First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if err := requireReadable(tx, post.CommunityID, userID); err != nil {
			return err
		}
		if err := tx.Create(saved).Error; err != nil {
			if apperrors.IsDuplicate(err) {
				return ErrAlreadySaved
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *SavedService) Unsave(ctx context.Context, userID, postID int) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSavedNotFound
	}
	return nil
}

// List returns the user's saved posts that are still active, newest save first.
func (s *SavedService) List(ctx context.Context, userID int, page Page) ([]models.Post, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Post{}).
		Joins("JOIN saved_posts ON saved_posts.post_id = posts.id").
		Where("saved_posts.user_id = ? AND posts.is_active = ?", userID, true).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []models.Post
	err := q.Scopes(page.scope).
		Preload("Author.Profile").
		Preload("Community").
		Order("saved_posts.created_at DESC").Order("posts.id DESC").
		Find(&posts).Error
	return posts, total, err
}

func (s *SavedService) IsSaved(ctx context.Context, userID, postID int) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.SavedPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/apperrors"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

const anonymousGiver = "Anonymous"

type AwardService struct {
	db *gorm.DB
}

func NewAwardService(db *gorm.DB) *AwardService {
	return &AwardService{db: db}
}

// Create stores the award and adds its gold to the post and to the
// receiving author's profile in one transaction.
func (s *AwardService) Create(ctx context.Context, postID, giverID int, req models.CreateAwardRequest) (*models.Award, error) {
	gold, ok := models.GoldFor(req.Choice)
	if !ok {
		return nil, apperrors.Validation("INVALID_CHOICE", "Unknown award", map[string]string{"choice": req.Choice})
	}

	var award *models.Award
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID == nil {
			return ErrNoReceiver
		}
		if *post.AuthorID == giverID {
			return ErrSelfAward
		}
		if err := requireReadable(tx, post.CommunityID, giverID); err != nil {
			return err
		}

		award = &models.Award{
			PostID:     post.ID,
			GiverID:    giverID,
			ReceiverID: post.AuthorID,
			Choice:     req.Choice,
			Gold:       gold,
			Anonymous:  req.Anonymous,
			Comment:    req.Comment,
		}
		if err := tx.Create(award).Error; err != nil {
			if apperrors.IsDuplicate(err) {
				return ErrAlreadyAwarded
			}
			return err
		}

		err = tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("gold", gorm.Expr("gold + ?", gold)).Error
		if err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", *post.AuthorID).
			UpdateColumn("gold_awards", gorm.Expr("gold_awards + ?", gold)).Error
	})
	if err != nil {
		return nil, err
	}
	return award, nil
}

type AwardView struct {
	ID        int       `json:"id"`
	Choice    string    `json:"choice"`
	Label     string    `json:"label"`
	Gold      int       `json:"gold"`
	Giver     string    `json:"giver"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the post's awards, masking anonymous givers.
func (s *AwardService) List(ctx context.Context, postID int) ([]AwardView, error) {
	var awards []models.Award
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("Giver.Profile").
		Order("created_at").Order("id").
		Find(&awards).Error
	if err != nil {
		return nil, err
	}

	views := make([]AwardView, 0, len(awards))
	for _, a := range awards {
		giver := anonymousGiver
		if !a.Anonymous {
			giver = a.Giver.DisplayName()
		}
		views = append(views, AwardView{
			ID:        a.ID,
			Choice:    a.Choice,
			Label:     rewardLabel(a.Choice),
			Gold:      a.Gold,
			Giver:     giver,
			Comment:   a.Comment,
			CreatedAt: a.CreatedAt,
		})
	}
	return views, nil
}

func rewardLabel(code string) string {
	for _, rc := range models.RewardChoices {
		if rc.Code == code {
			return rc.Label
		}
	}
	return code
}

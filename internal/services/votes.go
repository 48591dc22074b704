package services

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// Vote records the user's choice on the post and recounts the post's
// up and down votes from the vote rows. The post row is locked for the
// duration so concurrent votes serialize on it.
func (s *VoteService) Vote(ctx context.Context, postID, userID int, choice string) (*models.Post, error) {
	if !models.ValidVoteChoice(choice) {
		return nil, validation("INVALID_CHOICE", "Vote choice must be 10_UPVOTE or 20_DOWNVOTE")
	}

	var post *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return ErrPostNotFound
		}
		if err := requireReadable(tx, p.CommunityID, userID); err != nil {
			return err
		}

		vote := models.Vote{UserID: userID, PostID: postID, Choice: choice}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"choice", "updated_at"}),
		}).Create(&vote).Error
		if err != nil {
			return err
		}

		if err := recountVotes(tx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Unvote removes the user's vote and recounts.
func (s *VoteService) Unvote(ctx context.Context, postID, userID int) (*models.Post, error) {
	var post *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVoteNotFound
		}
		if err := recountVotes(tx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// recountVotes writes the true vote counts onto the post. It updates the
// columns directly since vote counts are not part of the version hash.
func recountVotes(tx *gorm.DB, p *models.Post) error {
	var tally struct {
		Up   int
		Down int
	}
	err := tx.Model(&models.Vote{}).
		Select("COALESCE(SUM(CASE WHEN choice = ? THEN 1 ELSE 0 END), 0) AS up, "+
			"COALESCE(SUM(CASE WHEN choice = ? THEN 1 ELSE 0 END), 0) AS down", models.VoteUp, models.VoteDown).
		Where("post_id = ?", p.ID).
		Scan(&tally).Error
	if err != nil {
		return err
	}

	err = tx.Model(&models.Post{}).Where("id = ?", p.ID).UpdateColumns(map[string]any{
		"up_votes":   tally.Up,
		"down_votes": tally.Down,
	}).Error
	if err != nil {
		return err
	}
	p.UpVotes = tally.Up
	p.DownVotes = tally.Down
	return nil
}

// UserVote returns the user's current choice on the post, or "".
func (s *VoteService) UserVote(ctx context.Context, postID, userID int) (string, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return vote.Choice, err
}

func requireReadable(tx *gorm.DB, communityID, userID int) error {
	var community models.Community
	if err := tx.First(&community, communityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommunityNotFound
		}
		return err
	}
	ok, err := canRead(tx, &community, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPrivateCommunity
	}
	return nil
}

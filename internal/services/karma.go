package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/lock"
	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

const (
	karmaLockName = "karma-aggregator"
	karmaLockTTL  = 30 * time.Minute
)

const karmaSubquery = "(SELECT COALESCE(SUM(posts.up_votes - posts.down_votes), 0) FROM posts " +
	"WHERE posts.author_id = profiles.user_id AND posts.parent_id IS %s NULL AND posts.created_at >= ?)"

var (
	postKarmaSQL    = fmt.Sprintf(karmaSubquery, "")
	commentKarmaSQL = fmt.Sprintf(karmaSubquery, "NOT")
)

// KarmaService recomputes every profile's rolling post and comment karma.
type KarmaService struct {
	db     *gorm.DB
	locker lock.Locker
	window time.Duration
}

func NewKarmaService(db *gorm.DB, locker lock.Locker, window time.Duration) *KarmaService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &KarmaService{db: db, locker: locker, window: window}
}

// Run overwrites post_karma and comment_karma for all profiles with the
// net score of the user's posts and comments created within the window
// ending at now. Overlapping runs are refused with ErrKarmaRunInProgress.
func (s *KarmaService) Run(ctx context.Context, now time.Time) (int64, error) {
	release, err := s.locker.Acquire(ctx, karmaLockName, karmaLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return 0, ErrKarmaRunInProgress
	}
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			logger.Log.WithError(err).Warn("release karma lock")
		}
	}()

	cutoff := now.UTC().Add(-s.window)
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.Profile{}).
		UpdateColumns(map[string]any{
			"post_karma":    gorm.Expr(postKarmaSQL, cutoff),
			"comment_karma": gorm.Expr(commentKarmaSQL, cutoff),
		})
	if res.Error != nil {
		return 0, res.Error
	}

	logger.Log.WithFields(logrus.Fields{
		"profiles": res.RowsAffected,
		"cutoff":   cutoff,
	}).Info("karma scores updated")
	return res.RowsAffected, nil
}

// Schedule runs the aggregator once a day at hour (UTC) until ctx ends.
func (s *KarmaService) Schedule(ctx context.Context, hour int) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		logger.Log.WithField("next_run", next).Info("karma aggregator scheduled")
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.Run(ctx, time.Now().UTC()); err != nil {
			logger.Log.WithError(err).Error("karma aggregator run failed")
		}
	}
}

package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

// ActivityTracker buffers last-activity timestamps in memory so request
// handling never waits on the database; Flush writes them in one batch.
type ActivityTracker struct {
	db      *gorm.DB
	mu      sync.Mutex
	pending map[int]time.Time
	now     func() time.Time
}

func NewActivityTracker(db *gorm.DB) *ActivityTracker {
	return &ActivityTracker{
		db:      db,
		pending: make(map[int]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Touch records that the user was active now.
func (a *ActivityTracker) Touch(userID int) {
	if userID == 0 {
		return
	}
	now := a.now()
	a.mu.Lock()
	a.pending[userID] = now
	a.mu.Unlock()
}

// Flush persists buffered timestamps and returns how many users were updated.
func (a *ActivityTracker) Flush(ctx context.Context) (int, error) {
	a.mu.Lock()
	batch := a.pending
	a.pending = make(map[int]time.Time)
	a.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for userID, at := range batch {
			err := tx.Model(&models.User{}).
				Where("id = ? AND (last_activity IS NULL OR last_activity < ?)", userID, at).
				UpdateColumn("last_activity", at).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		a.requeue(batch)
		return 0, err
	}
	return len(batch), nil
}

// requeue puts back timestamps that failed to flush unless newer ones arrived.
func (a *ActivityTracker) requeue(batch map[int]time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for userID, at := range batch {
		if cur, ok := a.pending[userID]; !ok || cur.Before(at) {
			a.pending[userID] = at
		}
	}
}

// Run flushes every interval and once more when ctx ends.
func (a *ActivityTracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already done, give the last flush its own deadline
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := a.Flush(flushCtx); err != nil {
				logger.Log.WithError(err).Warn("final activity flush failed")
			}
			cancel()
			return
		case <-ticker.C:
			if _, err := a.Flush(ctx); err != nil {
				logger.Log.WithError(err).Warn("activity flush failed")
			}
		}
	}
}

package notify

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/agora/backend/internal/logger"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

const (
	defaultBatchSize  = 50
	defaultBackoff    = 30 * time.Second
	maxBackoff        = time.Hour
	defaultMaxAttempt = 5
)

// Dispatcher polls the outbox and hands due messages to the sender for
// their channel. Failed deliveries are retried with exponential backoff
// until MaxAttempts, after which the row is marked failed.
type Dispatcher struct {
	db          *gorm.DB
	senders     map[string]Sender
	interval    time.Duration
	maxAttempts int
	backoff     time.Duration
	batchSize   int
	wake        chan struct{}
	now         func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithMaxAttempts(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

func WithBackoff(base time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.backoff = base }
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

func NewDispatcher(db *gorm.DB, senders map[string]Sender, interval time.Duration, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		db:          db,
		senders:     senders,
		interval:    interval,
		maxAttempts: defaultMaxAttempt,
		backoff:     defaultBackoff,
		batchSize:   defaultBatchSize,
		wake:        make(chan struct{}, 1),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wake triggers a dispatch round without waiting for the ticker.
func (d *Dispatcher) Wake() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run dispatches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	logger.Log.WithField("interval", d.interval).Info("outbox dispatcher started")
	for {
		if _, err := d.DispatchDue(ctx); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("outbox dispatch failed")
		}
		select {
		case <-ctx.Done():
			logger.Log.Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// DispatchDue delivers pending messages whose next attempt is due and
// returns how many were sent. Messages on a channel without a sender stay
// pending until one is configured.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	channels := d.channels()
	if len(channels) == 0 {
		return 0, nil
	}

	var ids []int
	err := d.db.WithContext(ctx).Model(&models.OutboxMessage{}).
		Where("status = ? AND next_attempt_at <= ? AND channel IN ?", models.OutboxPending, d.now(), channels).
		Order("id").
		Limit(d.batchSize).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, errors.Wrap(err, "load due outbox messages")
	}

	sent := 0
	for _, id := range ids {
		ok, err := d.deliver(ctx, id)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (d *Dispatcher) deliver(ctx context.Context, id int) (bool, error) {
	delivered := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg models.OutboxMessage
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("id = ? AND status = ?", id, models.OutboxPending).
			First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// claimed by another dispatcher
			return nil
		}
		if err != nil {
			return err
		}

		sendErr := d.send(ctx, &msg)
		now := d.now()
		msg.Attempts++

		log := logger.Log.WithFields(logrus.Fields{
			"message_id": msg.MessageID,
			"channel":    msg.Channel,
			"attempts":   msg.Attempts,
		})

		if sendErr == nil {
			msg.Status = models.OutboxSent
			msg.SentAt = &now
			msg.LastError = ""
			delivered = true
			log.Debug("outbox message sent")
		} else {
			msg.LastError = sendErr.Error()
			if msg.Attempts >= d.maxAttempts {
				msg.Status = models.OutboxFailed
				log.WithError(sendErr).Error("outbox message failed permanently")
			} else {
				msg.NextAttemptAt = now.Add(d.retryDelay(msg.Attempts))
				log.WithError(sendErr).Warn("outbox message delivery failed, will retry")
			}
		}
		return tx.Save(&msg).Error
	})
	return delivered, err
}

func (d *Dispatcher) channels() []string {
	var out []string
	for channel, sender := range d.senders {
		if sender != nil {
			out = append(out, channel)
		}
	}
	return out
}

func (d *Dispatcher) send(ctx context.Context, msg *models.OutboxMessage) error {
	sender, ok := d.senders[msg.Channel]
	if !ok || sender == nil {
		return errors.Errorf("no sender for channel %q", msg.Channel)
	}
	return sender.Send(ctx, msg)
}

func (d *Dispatcher) retryDelay(attempts int) time.Duration {
	delay := d.backoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// Package notify queues user notifications in a transactional outbox and
// delivers them over email and SMS.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

// NotifyChannel is the Postgres channel the dispatcher listens on.
const NotifyChannel = "outbox"

// Sender delivers a single outbox message.
type Sender interface {
	Send(ctx context.Context, msg *models.OutboxMessage) error
}

// Outbox writes notifications using the caller's transaction so they
// commit or roll back together with the state change.
type Outbox struct {
	smsEnabled bool
}

func NewOutbox(smsEnabled bool) *Outbox {
	return &Outbox{smsEnabled: smsEnabled}
}

func (o *Outbox) Enqueue(tx *gorm.DB, channel, recipient string, m Message) (*models.OutboxMessage, error) {
	msg := &models.OutboxMessage{
		MessageID:     uuid.NewString(),
		Channel:       channel,
		Recipient:     recipient,
		Subject:       m.Subject,
		Body:          m.Body,
		Status:        models.OutboxPending,
		NextAttemptAt: time.Now().UTC(),
	}
	if err := tx.Create(msg).Error; err != nil {
		return nil, errors.Wrapf(err, "enqueue %s notification", channel)
	}

	if tx.Dialector.Name() == "postgres" {
		// Delivered on commit; wakes listening dispatchers early.
		if err := tx.Exec("SELECT pg_notify(?, ?)", NotifyChannel, msg.MessageID).Error; err != nil {
			return nil, errors.Wrap(err, "notify outbox")
		}
	}
	return msg, nil
}

// NotifyUser queues an email to the user and, when they have a phone
// number and SMS is enabled, a text message as well.
func (o *Outbox) NotifyUser(tx *gorm.DB, user *models.User, m Message) error {
	if user == nil {
		return nil
	}
	if _, err := o.Enqueue(tx, models.ChannelEmail, user.Email, m); err != nil {
		return err
	}
	if o.smsEnabled && user.Phone != "" {
		if _, err := o.Enqueue(tx, models.ChannelSMS, user.Phone, m); err != nil {
			return err
		}
	}
	return nil
}

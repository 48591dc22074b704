package models

import "time"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxMessage is a notification written in the same transaction as the
// state change that caused it and delivered later by the dispatcher.
type OutboxMessage struct {
	ID            int        `gorm:"primaryKey" json:"id"`
	MessageID     string     `gorm:"uniqueIndex;size:36;not null" json:"message_id"`
	Channel       string     `gorm:"size:10;not null" json:"channel"`
	Recipient     string     `gorm:"not null" json:"recipient"`
	Subject       string     `json:"subject"`
	Body          string     `gorm:"type:text" json:"body"`
	Status        string     `gorm:"size:10;not null;index:idx_outbox_due" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastError     string     `gorm:"type:text" json:"last_error"`
	NextAttemptAt time.Time  `gorm:"index:idx_outbox_due" json:"next_attempt_at"`
	SentAt        *time.Time `json:"sent_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

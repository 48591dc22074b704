package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/agora/backend/internal/database/dbtest"
	"github.com/emilythestrangee/agora/backend/internal/models"
)

type fakeSender struct {
	sent  []models.OutboxMessage
	fails int
}

func (f *fakeSender) Send(_ context.Context, msg *models.OutboxMessage) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, *msg)
	return nil
}

func enqueue(t *testing.T, db *gorm.DB, channel, recipient string, m Message) *models.OutboxMessage {
	t.Helper()
	msg, err := NewOutbox(true).Enqueue(db, channel, recipient, m)
	require.NoError(t, err)
	return msg
}

func TestDispatchDueSendsPendingMessages(t *testing.T) {
	db := dbtest.New(t)
	sender := &fakeSender{}
	enqueue(t, db, models.ChannelEmail, "a@example.com", PostDeleted)
	enqueue(t, db, models.ChannelEmail, "b@example.com", WarningIssued)

	d := NewDispatcher(db, map[string]Sender{models.ChannelEmail: sender}, time.Minute,
		WithClock(func() time.Time { return time.Now().UTC().Add(time.Second) }))

	sent, err := d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "Post Deleted", sender.sent[0].Subject)

	var pending int64
	require.NoError(t, db.Model(&models.OutboxMessage{}).Where("status = ?", models.OutboxPending).Count(&pending).Error)
	assert.Zero(t, pending)

	// Nothing left to send.
	sent, err = d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDispatchRetriesWithBackoffThenFails(t *testing.T) {
	db := dbtest.New(t)
	sender := &fakeSender{fails: 10}
	msg := enqueue(t, db, models.ChannelEmail, "a@example.com", AccountBanned)

	clock := time.Now().UTC().Add(time.Second)
	d := NewDispatcher(db, map[string]Sender{models.ChannelEmail: sender}, time.Minute,
		WithMaxAttempts(2),
		WithBackoff(time.Minute),
		WithClock(func() time.Time { return clock }))

	sent, err := d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)

	var stored models.OutboxMessage
	require.NoError(t, db.First(&stored, msg.ID).Error)
	assert.Equal(t, models.OutboxPending, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	assert.Equal(t, "smtp unavailable", stored.LastError)

	// Not due yet.
	sent, err = d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	require.NoError(t, db.First(&stored, msg.ID).Error)
	assert.Equal(t, 1, stored.Attempts)

	clock = clock.Add(2 * time.Minute)
	_, err = d.DispatchDue(context.Background())
	require.NoError(t, err)

	require.NoError(t, db.First(&stored, msg.ID).Error)
	assert.Equal(t, models.OutboxFailed, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
}

func TestDispatchLeavesUnsentChannelsPending(t *testing.T) {
	db := dbtest.New(t)
	email := enqueue(t, db, models.ChannelEmail, "alice@example.com", PostDeleted)
	text := enqueue(t, db, models.ChannelSMS, "+15550001", WarningIssued)

	now := time.Now().UTC()
	d := NewDispatcher(db, map[string]Sender{}, time.Minute, WithMaxAttempts(5),
		WithClock(func() time.Time { return now }))
	for i := 0; i < 6; i++ {
		now = now.Add(2 * time.Hour)
		sent, err := d.DispatchDue(context.Background())
		require.NoError(t, err)
		assert.Zero(t, sent)
	}

	for _, id := range []int{email.ID, text.ID} {
		var stored models.OutboxMessage
		require.NoError(t, db.First(&stored, id).Error)
		assert.Equal(t, models.OutboxPending, stored.Status)
		assert.Zero(t, stored.Attempts)
		assert.Empty(t, stored.LastError)
	}

	// Configuring email later delivers the backlog and leaves SMS alone.
	mailer := &fakeSender{}
	d = NewDispatcher(db, map[string]Sender{models.ChannelEmail: mailer}, time.Minute,
		WithClock(func() time.Time { return now }))
	sent, err := d.DispatchDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "alice@example.com", mailer.sent[0].Recipient)

	var stored models.OutboxMessage
	require.NoError(t, db.First(&stored, text.ID).Error)
	assert.Equal(t, models.OutboxPending, stored.Status)
}

func TestRetryDelayIsCapped(t *testing.T) {
	d := NewDispatcher(nil, nil, time.Minute, WithBackoff(time.Minute))
	assert.Equal(t, time.Minute, d.retryDelay(1))
	assert.Equal(t, 2*time.Minute, d.retryDelay(2))
	assert.Equal(t, 4*time.Minute, d.retryDelay(3))
	assert.Equal(t, time.Hour, d.retryDelay(20))
}

func TestNotifyUserChannels(t *testing.T) {
	tests := []struct {
		name       string
		smsEnabled bool
		phone      string
		want       int64
	}{
		{"email only", false, "+15550001", 1},
		{"no phone", true, "", 1},
		{"email and sms", true, "+15550001", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := dbtest.New(t)
			user := &models.User{Email: "u@example.com", Phone: tt.phone}

			require.NoError(t, NewOutbox(tt.smsEnabled).NotifyUser(db, user, WarningIssued))

			var count int64
			require.NoError(t, db.Model(&models.OutboxMessage{}).Count(&count).Error)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestMailerNotConfigured(t *testing.T) {
	m := NewMailer(MailConfig{})
	assert.False(t, m.IsConfigured())
	assert.Error(t, m.SendEmail([]string{"a@example.com"}, "s", "b"))
}

func TestMailerComposesMessage(t *testing.T) {
	m := NewMailer(MailConfig{Host: "smtp.example.com", Port: "587", From: "noreply@example.com", FromName: "Agora"})

	var gotAddr string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		return nil
	}

	err := m.Send(context.Background(), &models.OutboxMessage{Recipient: "a@example.com", Subject: "Post Deleted", Body: "gone"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Contains(t, string(gotMsg), "From: Agora <noreply@example.com>")
	assert.Contains(t, string(gotMsg), "Subject: Post Deleted")
	assert.Contains(t, string(gotMsg), "\r\n\r\ngone")
}

func TestActivation(t *testing.T) {
	m, err := Activation("https://forum.example.com", "alice", "tok123")
	require.NoError(t, err)
	assert.Equal(t, "Activate your account", m.Subject)
	assert.Contains(t, m.Body, "Hi alice")
	assert.Contains(t, m.Body, "https://forum.example.com/api/activate/tok123")
}

func TestSMSNotConfigured(t *testing.T) {
	s := NewSMS(SMSConfig{})
	assert.False(t, s.IsConfigured())
	assert.Error(t, s.Send(context.Background(), &models.OutboxMessage{Recipient: "+1555"}))
}

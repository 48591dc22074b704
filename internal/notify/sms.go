package notify

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// SMS delivers sms outbox messages through Twilio.
type SMS struct {
	config SMSConfig
	client *twilio.RestClient
}

func NewSMS(config SMSConfig) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})
	return &SMS{config: config, client: client}
}

func (s *SMS) IsConfigured() bool {
	return s.config.AccountSID != "" && s.config.AuthToken != "" && s.config.From != ""
}

// Send implements Sender.
func (s *SMS) Send(_ context.Context, msg *models.OutboxMessage) error {
	if !s.IsConfigured() {
		return errors.New("sms not configured")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.Recipient)
	params.SetFrom(s.config.From)
	params.SetBody(smsBody(msg))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return errors.Wrap(err, "twilio create message")
	}
	return nil
}

func smsBody(msg *models.OutboxMessage) string {
	if msg.Subject == "" {
		return msg.Body
	}
	return msg.Subject + ": " + msg.Body
}

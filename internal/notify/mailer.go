package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/emilythestrangee/agora/backend/internal/models"
)

// MailConfig holds SMTP configuration
type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Mailer delivers email outbox messages over SMTP.
type Mailer struct {
	config MailConfig
	server string
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(config MailConfig) *Mailer {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Mailer{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured returns true if email is configured
func (m *Mailer) IsConfigured() bool {
	return m.config.Host != "" && m.config.Port != "" && m.config.From != ""
}

// Send implements Sender.
func (m *Mailer) Send(_ context.Context, msg *models.OutboxMessage) error {
	return m.SendEmail([]string{msg.Recipient}, msg.Subject, msg.Body)
}

// SendEmail sends a plain text email
func (m *Mailer) SendEmail(to []string, subject, body string) error {
	if !m.IsConfigured() {
		return errors.New("email not configured")
	}
	return m.send(m.server, m.auth, m.config.From, to, m.compose(to, subject, body))
}

func (m *Mailer) compose(to []string, subject, body string) []byte {
	from := m.config.From
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}
	return []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		subject,
		body,
	))
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render %s", tmpl.Name())
	}
	return buf.String(), nil
}

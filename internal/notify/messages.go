package notify

import (
	"text/template"
)

// Message is the subject and body of a user notification.
type Message struct {
	Subject string
	Body    string
}

var (
	AccountBanned = Message{
		Subject: "Account Banned",
		Body:    "Your account has been banned for violating community rules, now you cannot access posts.",
	}
	PostDeleted = Message{
		Subject: "Post Deleted",
		Body:    "Your post has been deleted due to violations of community guidelines.",
	}
	WarningIssued = Message{
		Subject: "Warning Issued",
		Body:    "You have received a warning due to violations of community guidelines.",
	}
)

var activationTemplate = template.Must(template.New("activation").Parse(
	`Hi {{.Username}},

Please confirm your email address to activate your account:

{{.BaseURL}}/api/activate/{{.Token}}

If you did not sign up, you can ignore this message.
`))

// Activation builds the account activation email.
func Activation(baseURL, username, token string) (Message, error) {
	body, err := renderTemplate(activationTemplate, struct {
		BaseURL, Username, Token string
	}{baseURL, username, token})
	if err != nil {
		return Message{}, err
	}
	return Message{Subject: "Activate your account", Body: body}, nil
}

package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers plain-text emails through the SendGrid v3 API.
type SendGridMailer struct {
	client sender
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Task Keeper", from),
	}
}

func (m *SendGridMailer) SendWelcome(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name)
	return m.send(ctx, email, name, "Thanks for joining in!", body)
}

func (m *SendGridMailer) SendCancellation(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Goodbye, %s. Is there anything we could have done to have kept you on board?", name)
	return m.send(ctx, email, name, "Sorry to see you go!", body)
}

func (m *SendGridMailer) send(ctx context.Context, email, name, subject, body string) error {
	msg := mail.NewSingleEmail(m.from, subject, mail.NewEmail(name, email), body, "<p>"+html.EscapeString(body)+"</p>")

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

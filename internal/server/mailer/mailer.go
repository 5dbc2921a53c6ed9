// Package mailer sends account lifecycle emails.
package mailer

import "context"

// Mailer delivers the welcome and cancellation messages. Callers treat
// delivery as best effort.
type Mailer interface {
	SendWelcome(ctx context.Context, email, name string) error
	SendCancellation(ctx context.Context, email, name string) error
}

// NopMailer is used when no email provider is configured.
type NopMailer struct{}

func (NopMailer) SendWelcome(context.Context, string, string) error      { return nil }
func (NopMailer) SendCancellation(context.Context, string, string) error { return nil }

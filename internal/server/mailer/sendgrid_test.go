package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []*mail.SGMailV3
	resp *rest.Response
	err  error
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	return f.resp, f.err
}

func newTestMailer(s sender) *SendGridMailer {
	m := NewSendGridMailer("key", "noreply@example.com")
	m.client = s
	return m
}

func TestSendWelcome(t *testing.T) {
	s := &fakeSender{resp: &rest.Response{StatusCode: 202}}
	m := newTestMailer(s)

	require.NoError(t, m.SendWelcome(context.Background(), "ann@example.com", "Ann"))
	require.Len(t, s.sent, 1)

	msg := s.sent[0]
	assert.Equal(t, "noreply@example.com", msg.From.Address)
	assert.Equal(t, "Thanks for joining in!", msg.Subject)
	require.Len(t, msg.Personalizations, 1)
	assert.Equal(t, "ann@example.com", msg.Personalizations[0].To[0].Address)
	assert.Contains(t, msg.Content[0].Value, "Ann")
}

func TestSendCancellation(t *testing.T) {
	s := &fakeSender{resp: &rest.Response{StatusCode: 202}}
	m := newTestMailer(s)

	require.NoError(t, m.SendCancellation(context.Background(), "ann@example.com", "Ann"))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "Sorry to see you go!", s.sent[0].Subject)
}

func TestSend_Failures(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		boom := errors.New("boom")
		m := newTestMailer(&fakeSender{err: boom})
		assert.ErrorIs(t, m.SendWelcome(context.Background(), "a@b.c", "A"), boom)
	})

	t.Run("status", func(t *testing.T) {
		m := newTestMailer(&fakeSender{resp: &rest.Response{StatusCode: 401, Body: "unauthorized"}})
		err := m.SendWelcome(context.Background(), "a@b.c", "A")
		assert.ErrorContains(t, err, "unexpected status 401")
	})
}

func TestNopMailer(t *testing.T) {
	var m Mailer = NopMailer{}
	assert.NoError(t, m.SendWelcome(context.Background(), "a@b.c", "A"))
	assert.NoError(t, m.SendCancellation(context.Background(), "a@b.c", "A"))
}

package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.messages = append(d.messages, m...)
	return d.err
}

func newTestMailer(d dialer) *Mailer {
	return &Mailer{
		config: &Config{Host: "smtp.test", Port: 587, Username: "u", Password: "p", From: "alerts@healthify.app"},
		dialer: d,
	}
}

func TestMailer_SendEmail(t *testing.T) {
	d := &recordingDialer{}
	m := newTestMailer(d)

	err := m.SendEmail(context.Background(), "contact@x.com", "SOS alert", "help")
	require.NoError(t, err)
	require.Len(t, d.messages, 1)

	msg := d.messages[0]
	assert.Equal(t, []string{"alerts@healthify.app"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"contact@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"SOS alert"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "help")
}

func TestMailer_SendEmail_CanceledContext(t *testing.T) {
	d := &recordingDialer{}
	m := newTestMailer(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendEmail(ctx, "contact@x.com", "SOS alert", "help")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.messages)
}

func TestMailer_Send_NoRecipients(t *testing.T) {
	m := newTestMailer(&recordingDialer{})

	assert.Error(t, m.Send(Email{Subject: "x"}))
}

func TestMailer_Send_DialerError(t *testing.T) {
	m := newTestMailer(&recordingDialer{err: errors.New("connection refused")})

	assert.EqualError(t, m.Send(Email{To: []string{"a@x.com"}, Subject: "s", Body: "b"}), "connection refused")
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{Host: "smtp.test", Port: 587, Username: "u", Password: "p", From: "f@x.com"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Enabled())

	_, err := NewMailer(&Config{Port: 587})
	assert.EqualError(t, err, "missing SMTP_HOST environment variable")
	assert.False(t, (&Config{}).Enabled())
}

// Package sms sends text messages through Twilio.
package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

const placeholderAccountSID = "YOUR_TWILIO_ACCOUNT_SID"

// Config holds the Twilio credentials and sender number.
type Config struct {
	AccountSID string `env:"ACCOUNT_SID"`
	AuthToken  string `env:"AUTH_TOKEN"`
	From       string `env:"TWILIO_NUMBER"`
	TestNumber string `env:"TEST_PHONE_NUMBER"`
}

// Enabled reports whether real credentials were provided. The sample placeholder counts as unset.
func (c *Config) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.AccountSID != placeholderAccountSID
}

type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioSender delivers SMS messages through the Twilio REST API.
type TwilioSender struct {
	from     string
	messages messageCreator
}

// NewTwilioSender creates a sender from the given configuration.
func NewTwilioSender(cfg *Config) (*TwilioSender, error) {
	if !cfg.Enabled() {
		return nil, errors.New("twilio credentials are not configured")
	}
	if cfg.From == "" {
		return nil, errors.New("missing TWILIO_NUMBER environment variable")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioSender{
		from:     cfg.From,
		messages: client.Api,
	}, nil
}

// Send delivers body to the destination phone number. The Twilio client takes no context,
// so ctx is only checked before the request is made.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return errors.New("no destination number specified")
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.messages.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}

	return nil
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/repository"
)

const (
	sosEmailSubject = "SOS emergency alert from Healthify"
	testMessageBody = "Test message from Healthify app"
)

// SMSSender sends a text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

// EmailSender sends a plain text email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SOSUsecase defines the interface for emergency alerts.
type SOSUsecase interface {
	SendAlert(ctx context.Context, userID string, params SOSParams) error
	SendTestMessage(ctx context.Context) error
}

// SOSParams describes an emergency alert. Authenticated callers may leave UserName and
// EmergencyContact empty to fall back to their profile.
type SOSParams struct {
	UserName         string `json:"userName"`
	Location         string `json:"location"`
	EmergencyContact string `json:"emergencyContact"`
	Message          string `json:"message"`
	MedicalInfo      string `json:"medicalInfo"`
}

type sosUsecase struct {
	userRepo   repository.UserRepository
	sms        SMSSender
	email      EmailSender
	testNumber string
	logger     *zerolog.Logger
}

// NewSOSUsecase creates the SOS usecase. email may be nil when SMTP is not configured.
func NewSOSUsecase(
	userRepo repository.UserRepository,
	sms SMSSender,
	email EmailSender,
	testNumber string,
	logger *zerolog.Logger,
) SOSUsecase {
	return &sosUsecase{
		userRepo:   userRepo,
		sms:        sms,
		email:      email,
		testNumber: testNumber,
		logger:     logger,
	}
}

func (u *sosUsecase) SendAlert(ctx context.Context, userID string, params SOSParams) error {
	if u.sms == nil {
		return ErrSMSNotConfigured
	}

	name := strings.TrimSpace(params.UserName)
	location := strings.TrimSpace(params.Location)

	var contacts []model.EmergencyContact
	if contact := strings.TrimSpace(params.EmergencyContact); contact != "" {
		contacts = []model.EmergencyContact{{Phone: contact}}
	}

	if userID != "" && (name == "" || len(contacts) == 0) {
		user, err := u.userRepo.GetUser(ctx, userID)
		switch {
		case err == nil:
			if name == "" {
				name = user.FullName
			}
			if len(contacts) == 0 {
				contacts = user.EmergencyContacts
			}
		case errors.Is(err, repository.ErrUserNotFound):
		default:
			return err
		}
	}

	if name == "" || location == "" || len(contacts) == 0 {
		return invalidInput("Missing required fields")
	}

	body := alertBody(name, location, params.Message, params.MedicalInfo)

	var failed int
	var lastErr error
	for _, contact := range contacts {
		if err := u.sms.Send(ctx, contact.Phone, body); err != nil {
			failed++
			lastErr = err
			u.logger.Error().Err(err).Msg("failed to send SOS text message")
		}

		if contact.Email != "" && u.email != nil {
			if err := u.email.SendEmail(ctx, contact.Email, sosEmailSubject, body); err != nil {
				u.logger.Warn().Err(err).Msg("failed to send SOS email")
			}
		}
	}

	if failed > 0 {
		return errors.WithStack(fmt.Errorf("%w: %d of %d text messages failed: %w",
			ErrNotificationFailed, failed, len(contacts), lastErr))
	}

	u.logger.Info().
		Str("user_id", userID).
		Int("contacts", len(contacts)).
		Msg("SOS alert sent")

	return nil
}

func (u *sosUsecase) SendTestMessage(ctx context.Context) error {
	if u.sms == nil {
		return ErrSMSNotConfigured
	}
	if u.testNumber == "" {
		return invalidInput("TEST_PHONE_NUMBER environment variable is not defined")
	}

	if err := u.sms.Send(ctx, u.testNumber, testMessageBody); err != nil {
		return errors.WithStack(fmt.Errorf("%w: %w", ErrNotificationFailed, err))
	}

	return nil
}

func alertBody(name, location, message, medicalInfo string) string {
	var b strings.Builder

	if message = strings.TrimSpace(message); message != "" {
		b.WriteString(message)
	} else {
		b.WriteString("SOS! Emergency alert from team healthify.\n")
		b.WriteString(name)
		b.WriteString(" might be suffering from a heart Stroke.")
	}

	b.WriteString("\nLocation: ")
	b.WriteString(location)

	if medicalInfo = strings.TrimSpace(medicalInfo); medicalInfo != "" {
		b.WriteString("\nMedical Info: ")
		b.WriteString(medicalInfo)
	}

	return b.String()
}

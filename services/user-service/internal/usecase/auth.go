package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/healthify-api/shared/security"
	"github.com/vasapolrittideah/healthify-api/shared/validation"
)

// bcrypt limits by bytes while the validator counts characters.
const msgPasswordTooLong = "password must be at most 72 bytes in length"

// TokenIssuer issues identity tokens for a user.
type TokenIssuer interface {
	IssueToken(userID string) (string, time.Time, error)
}

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID string, params ChangePasswordParams) error
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordParams defines the parameters for a password change.
type ChangePasswordParams struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=72"`
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type authUsecase struct {
	userRepo  repository.UserRepository
	hasher    security.PasswordHasher
	tokens    TokenIssuer
	validator *validation.Validator
	logger    *zerolog.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	hasher security.PasswordHasher,
	tokens TokenIssuer,
	validator *validation.Validator,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		validator: validator,
		logger:    logger,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	params.FullName = strings.TrimSpace(params.FullName)
	params.Email = repository.NormalizeEmail(params.Email)

	if err := u.validator.Struct(params); err != nil {
		return nil, invalidInput(err.Error())
	}

	exists, err := u.userRepo.ExistsByEmail(ctx, params.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		FullName: params.FullName,
		Email:    params.Email,
		Password: &params.Password,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		if errors.Is(err, security.ErrPasswordTooLong) {
			return nil, invalidInput(msgPasswordTooLong)
		}

		return nil, err
	}

	user.PasswordHash = ""
	u.logger.Info().Str("user_id", user.ID.Hex()).Msg("user registered")

	return u.authResult(user)
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := u.validator.Struct(params); err != nil {
		return nil, invalidInput("Please provide email and password")
	}

	user, err := u.userRepo.GetUserByEmail(ctx, params.Email, repository.WithPassword())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			u.burnVerify(params.Password)
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	ok, err := u.hasher.Verify(params.Password, user.PasswordHash)
	if err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""

	return u.authResult(user)
}

func (u *authUsecase) ChangePassword(ctx context.Context, userID string, params ChangePasswordParams) error {
	if err := u.validator.Struct(params); err != nil {
		return invalidInput(err.Error())
	}

	user, err := u.userRepo.GetUser(ctx, userID, repository.WithPassword())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}

		return err
	}

	ok, err := u.hasher.Verify(params.CurrentPassword, user.PasswordHash)
	if err != nil {
		u.logger.Error().Err(err).Str("user_id", userID).Msg("stored password hash is unreadable")
		return ErrInvalidCredentials
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Password: &params.NewPassword,
	}); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		if errors.Is(err, security.ErrPasswordTooLong) {
			return invalidInput(msgPasswordTooLong)
		}

		return err
	}

	u.logger.Info().Str("user_id", userID).Msg("password changed")

	return nil
}

func (u *authUsecase) authResult(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := u.tokens.IssueToken(user.ID.Hex())
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue token")
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// burnVerify runs a verification against a throwaway hash so unknown emails take about as
// long as wrong passwords.
func (u *authUsecase) burnVerify(password string) {
	u.dummyHashOnce.Do(func() {
		hash, err := u.hasher.Hash("healthify-unknown-account")
		if err != nil {
			u.logger.Warn().Err(err).Msg("failed to prepare dummy password hash")
			return
		}
		u.dummyHash = hash
	})

	if u.dummyHash != "" {
		_, _ = u.hasher.Verify(password, u.dummyHash)
	}
}

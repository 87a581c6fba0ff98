package usecase

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/healthify-api/shared/validation"
)

// ProfileUsecase defines the interface for reading and editing a user's health profile.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)
}

// UpdateProfileParams lists the profile fields a user may change. Fields left nil are kept.
type UpdateProfileParams struct {
	FullName          *string                   `json:"fullName"          validate:"omitnil,min=1"`
	Height            *float64                  `json:"height"            validate:"omitnil,gte=0"`
	Weight            *float64                  `json:"weight"            validate:"omitnil,gte=0"`
	Age               *int                      `json:"age"               validate:"omitnil,gte=0"`
	Gender            *string                   `json:"gender"            validate:"omitnil,oneof=male female other"`
	EmergencyContacts *[]EmergencyContactParams `json:"emergencyContacts" validate:"omitnil,max=5,dive"`
}

// EmergencyContactParams describes one emergency contact in a profile update.
type EmergencyContactParams struct {
	Name  string `json:"name"  validate:"required"`
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

type profileUsecase struct {
	userRepo  repository.UserRepository
	validator *validation.Validator
	logger    *zerolog.Logger
}

func NewProfileUsecase(
	userRepo repository.UserRepository,
	validator *validation.Validator,
	logger *zerolog.Logger,
) ProfileUsecase {
	return &profileUsecase{
		userRepo:  userRepo,
		validator: validator,
		logger:    logger,
	}
}

func (u *profileUsecase) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.User, error) {
	if params.FullName != nil {
		trimmed := strings.TrimSpace(*params.FullName)
		params.FullName = &trimmed
	}

	if err := u.validator.Struct(params); err != nil {
		return nil, invalidInput(err.Error())
	}

	update := toUpdateUserParams(params)
	if update == (repository.UpdateUserParams{}) {
		return u.GetProfile(ctx, userID)
	}

	user, err := u.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func toUpdateUserParams(params UpdateProfileParams) repository.UpdateUserParams {
	update := repository.UpdateUserParams{
		FullName: params.FullName,
		Height:   params.Height,
		Weight:   params.Weight,
		Age:      params.Age,
	}

	if params.Gender != nil {
		gender := model.Gender(*params.Gender)
		update.Gender = &gender
	}

	if params.EmergencyContacts != nil {
		contacts := make([]model.EmergencyContact, 0, len(*params.EmergencyContacts))
		for _, c := range *params.EmergencyContacts {
			contacts = append(contacts, model.EmergencyContact{
				Name:  strings.TrimSpace(c.Name),
				Phone: strings.TrimSpace(c.Phone),
				Email: repository.NormalizeEmail(c.Email),
			})
		}
		update.EmergencyContacts = &contacts
	}

	return update
}

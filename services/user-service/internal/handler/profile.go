package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/middleware"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/usecase"
)

type ProfileHandler struct {
	responder
	profileUsecase usecase.ProfileUsecase
}

func NewProfileHandler(profileUsecase usecase.ProfileUsecase, logger *zerolog.Logger, exposeErrors bool) *ProfileHandler {
	return &ProfileHandler{
		responder:      responder{logger: logger, exposeErrors: exposeErrors},
		profileUsecase: profileUsecase,
	}
}

func (h *ProfileHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeErr(w, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	user, err := h.profileUsecase.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			writeErr(w, http.StatusNotFound, "User not found")
			return
		}

		h.internalError(w, r, err, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, payload.ProfileResponse{
		Status: payload.StatusSuccess,
		User:   payload.NewUserProfile(user),
	})
}

func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeErr(w, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	var params usecase.UpdateProfileParams
	if err := decodeJSON(w, r, &params); err != nil {
		writeErr(w, http.StatusBadRequest, msgBadBody)
		return
	}

	user, err := h.profileUsecase.UpdateProfile(r.Context(), identity.UserID, params)
	if err != nil {
		var validationErr *usecase.ValidationError

		switch {
		case errors.As(err, &validationErr):
			writeErr(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, usecase.ErrUserNotFound):
			writeErr(w, http.StatusNotFound, "User not found")
		default:
			h.internalError(w, r, err, "Failed to update profile")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.ProfileResponse{
		Status: payload.StatusSuccess,
		User:   payload.NewUserProfile(user),
	})
}

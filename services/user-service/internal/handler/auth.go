package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/middleware"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/usecase"
)

type AuthHandler struct {
	responder
	authUsecase usecase.AuthUsecase
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, logger *zerolog.Logger, exposeErrors bool) *AuthHandler {
	return &AuthHandler{
		responder:   responder{logger: logger, exposeErrors: exposeErrors},
		authUsecase: authUsecase,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var params usecase.RegisterParams
	if err := decodeJSON(w, r, &params); err != nil {
		writeErr(w, http.StatusBadRequest, msgBadBody)
		return
	}

	result, err := h.authUsecase.Register(r.Context(), params)
	middleware.RecordAuthAttempt("register", err == nil)
	if err != nil {
		var validationErr *usecase.ValidationError

		switch {
		case errors.As(err, &validationErr):
			writeErr(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			writeErr(w, http.StatusBadRequest, "User already exists")
		default:
			h.internalError(w, r, err, "Registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var params usecase.LoginParams
	if err := decodeJSON(w, r, &params); err != nil {
		writeErr(w, http.StatusBadRequest, msgBadBody)
		return
	}

	result, err := h.authUsecase.Login(r.Context(), params)
	middleware.RecordAuthAttempt("login", err == nil)
	if err != nil {
		var validationErr *usecase.ValidationError

		switch {
		case errors.As(err, &validationErr):
			writeErr(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeErr(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			h.internalError(w, r, err, "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeErr(w, http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
		return
	}

	var params usecase.ChangePasswordParams
	if err := decodeJSON(w, r, &params); err != nil {
		writeErr(w, http.StatusBadRequest, msgBadBody)
		return
	}

	err := h.authUsecase.ChangePassword(r.Context(), identity.UserID, params)
	middleware.RecordAuthAttempt("change_password", err == nil)
	if err != nil {
		var validationErr *usecase.ValidationError

		switch {
		case errors.As(err, &validationErr):
			writeErr(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeErr(w, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, usecase.ErrUserNotFound):
			writeErr(w, http.StatusNotFound, "User not found")
		default:
			h.internalError(w, r, err, "Failed to change password")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{
		Status:  payload.StatusSuccess,
		Message: "Password updated successfully",
	})
}

func newAuthResponse(result *usecase.AuthResult) payload.AuthResponse {
	return payload.AuthResponse{
		Status:    payload.StatusSuccess,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      payload.NewUserSummary(result.User),
	}
}

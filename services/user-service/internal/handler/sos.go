package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/middleware"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/usecase"
)

type SOSHandler struct {
	responder
	sosUsecase usecase.SOSUsecase
}

func NewSOSHandler(sosUsecase usecase.SOSUsecase, logger *zerolog.Logger, exposeErrors bool) *SOSHandler {
	return &SOSHandler{
		responder:  responder{logger: logger, exposeErrors: exposeErrors},
		sosUsecase: sosUsecase,
	}
}

func (h *SOSHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var params usecase.SOSParams
	if err := decodeJSON(w, r, &params); err != nil {
		writeErr(w, http.StatusBadRequest, msgBadBody)
		return
	}

	var userID string
	if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
		userID = identity.UserID
	}

	if err := h.sosUsecase.SendAlert(r.Context(), userID, params); err != nil {
		h.fail(w, r, err, "Failed to send emergency alert")
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{
		Status:  payload.StatusSuccess,
		Message: "Emergency alert sent successfully",
	})
}

func (h *SOSHandler) SendTestMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.sosUsecase.SendTestMessage(r.Context()); err != nil {
		h.fail(w, r, err, "Failed to send test message")
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{
		Status:  payload.StatusSuccess,
		Message: "Test message sent successfully",
	})
}

func (h *SOSHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	var validationErr *usecase.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeErr(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, usecase.ErrSMSNotConfigured):
		writeErr(w, http.StatusServiceUnavailable, "SMS service is not configured")
	default:
		h.internalError(w, r, err, message)
	}
}

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
)

const maxBodyBytes = 1 << 20

const msgBadBody = "Invalid request body"

// responder writes JSON envelopes and turns unexpected errors into logged 500s.
type responder struct {
	logger       *zerolog.Logger
	exposeErrors bool
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, payload.ErrorResponse{Status: payload.StatusError, Message: message})
}

// internalError logs err and replies 500. The stack trace is only sent when error details are exposed.
func (rs responder) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	rs.logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(message)

	body := payload.ErrorResponse{Status: payload.StatusError, Message: message}
	if rs.exposeErrors {
		body.Error = fmt.Sprintf("%+v", err)
	}

	writeJSON(w, http.StatusInternalServerError, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	return json.NewDecoder(r.Body).Decode(dst)
}

// NotFound replies to requests that match no route.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeErr(w, http.StatusNotFound, "Route not found")
}

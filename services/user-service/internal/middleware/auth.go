package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/healthify-api/shared/auth"
)

const (
	msgNotLoggedIn     = "You are not logged in. Please log in to get access."
	msgInvalidToken    = "Invalid token. Please log in again."
	msgTokenExpired    = "Your token has expired. Please log in again."
	msgUserGone        = "The user belonging to this token no longer exists."
	msgProtectFailure  = "Authentication failed due to server error"
	msgOptionalFailure = "Server error during authentication"
)

// TokenVerifier validates identity tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// UserLookup loads the user a token was issued for.
type UserLookup interface {
	GetUser(ctx context.Context, id string, opts ...repository.ReadOption) (*model.User, error)
}

type authOutcome int

const (
	outcomeAuthenticated authOutcome = iota
	outcomeNoToken
	outcomeInvalidToken
	outcomeExpiredToken
	outcomeUserGone
	outcomeFault
)

// Authenticator resolves bearer tokens into request identities.
type Authenticator struct {
	tokens       TokenVerifier
	users        UserLookup
	logger       *zerolog.Logger
	exposeErrors bool
}

// NewAuthenticator creates an Authenticator. When exposeErrors is set, server faults include
// the underlying error in the response.
func NewAuthenticator(tokens TokenVerifier, users UserLookup, logger *zerolog.Logger, exposeErrors bool) *Authenticator {
	return &Authenticator{
		tokens:       tokens,
		users:        users,
		logger:       logger,
		exposeErrors: exposeErrors,
	}
}

// Protect rejects requests without a valid token for an existing user.
func (a *Authenticator) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, outcome, err := a.authenticate(r)

		switch outcome {
		case outcomeAuthenticated:
			RecordAuthAttempt("protect", true)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
			return
		case outcomeNoToken:
			writeErr(w, http.StatusUnauthorized, msgNotLoggedIn, "")
		case outcomeInvalidToken:
			writeErr(w, http.StatusUnauthorized, msgInvalidToken, "")
		case outcomeExpiredToken:
			writeErr(w, http.StatusUnauthorized, msgTokenExpired, "")
		case outcomeUserGone:
			writeErr(w, http.StatusUnauthorized, msgUserGone, "")
		default:
			a.logger.Error().Err(err).Msg("failed to authenticate request")
			writeErr(w, http.StatusInternalServerError, msgProtectFailure, a.detail(err))
		}

		RecordAuthAttempt("protect", false)
	})
}

// Optional attaches the identity when the request carries a valid token and continues as an
// anonymous caller otherwise. Only server faults stop the request.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, outcome, err := a.authenticate(r)

		if outcome == outcomeFault {
			a.logger.Error().Err(err).Msg("failed to authenticate request")
			writeErr(w, http.StatusInternalServerError, msgOptionalFailure, a.detail(err))
			return
		}

		if outcome != outcomeAuthenticated {
			identity = nil
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (a *Authenticator) authenticate(r *http.Request) (*Identity, authOutcome, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, outcomeNoToken, nil
	}

	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, outcomeExpiredToken, nil
		}

		return nil, outcomeInvalidToken, nil
	}

	user, err := a.users.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, outcomeUserGone, nil
		}

		return nil, outcomeFault, err
	}

	return &Identity{UserID: user.ID.Hex(), Email: user.Email}, outcomeAuthenticated, nil
}

func (a *Authenticator) detail(err error) string {
	if !a.exposeErrors || err == nil {
		return ""
	}
	return err.Error()
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	return parts[1], true
}

func writeErr(w http.ResponseWriter, code int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload.ErrorResponse{Status: payload.StatusError, Message: message, Error: detail})
}

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/healthify-api/shared/auth"
	"github.com/vasapolrittideah/healthify-api/shared/logger"
	"github.com/vasapolrittideah/healthify-api/shared/security"
)

const (
	testSecret   = "middleware-secret"
	testAudience = "healthify-app"
	testIssuer   = "healthify-api"
)

type authFixture struct {
	repo    repository.UserRepository
	jwtAuth *auth.JWTAuthenticator
	mw      *Authenticator
	user    *model.User
	token   string
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hasher, err := security.NewPasswordHasher(security.Config{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	repo := repository.NewUserMemoryRepository(hasher)

	password := "secret123"
	user, err := repo.CreateUser(context.Background(), &model.User{
		FullName: "Jane Doe",
		Email:    "jane@example.com",
		Password: &password,
	})
	require.NoError(t, err)

	jwtAuth, err := auth.NewJWTAuthenticator(testSecret, testAudience, testIssuer)
	require.NoError(t, err)

	token, _, err := jwtAuth.IssueToken(user.ID.Hex())
	require.NoError(t, err)

	return &authFixture{
		repo:    repo,
		jwtAuth: jwtAuth,
		mw:      NewAuthenticator(jwtAuth, repo, logger.Nop(), false),
		user:    user,
		token:   token,
	}
}

// identityRecorder is a terminal handler that captures the identity it was called with.
type identityRecorder struct {
	called   bool
	identity *Identity
}

func (h *identityRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.identity = IdentityFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func serve(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) payload.ErrorResponse {
	t.Helper()

	var body payload.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func expiredToken(t *testing.T, userID string) string {
	t.Helper()

	past := time.Now().Add(-8 * 24 * time.Hour)
	issuer, err := auth.NewJWTAuthenticator(testSecret, testAudience, testIssuer, auth.WithClock(func() time.Time {
		return past
	}))
	require.NoError(t, err)

	token, _, err := issuer.IssueToken(userID)
	require.NoError(t, err)
	return token
}

func TestProtect(t *testing.T) {
	f := newAuthFixture(t)

	tampered := []byte(f.token)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing header", header: "", message: msgNotLoggedIn},
		{name: "wrong scheme", header: "Basic " + f.token, message: msgNotLoggedIn},
		{name: "scheme only", header: "Bearer", message: msgNotLoggedIn},
		{name: "garbage token", header: "Bearer not.a.jwt", message: msgInvalidToken},
		{name: "tampered token", header: "Bearer " + string(tampered), message: msgInvalidToken},
		{name: "expired token", header: "Bearer " + expiredToken(t, f.user.ID.Hex()), message: msgTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &identityRecorder{}
			rec := serve(f.mw.Protect(next), tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.False(t, next.called)

			body := decodeError(t, rec)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestProtect_Authenticated(t *testing.T) {
	f := newAuthFixture(t)
	before := testutil.ToFloat64(authAttempts.WithLabelValues("protect", "true"))

	next := &identityRecorder{}
	rec := serve(f.mw.Protect(next), "bearer "+f.token)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, next.called)
	require.NotNil(t, next.identity)
	assert.Equal(t, f.user.ID.Hex(), next.identity.UserID)
	assert.Equal(t, "jane@example.com", next.identity.Email)
	assert.Equal(t, before+1, testutil.ToFloat64(authAttempts.WithLabelValues("protect", "true")))
}

func TestProtect_UserDeleted(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.repo.DeleteUser(context.Background(), f.user.ID.Hex()))

	rec := serve(f.mw.Protect(&identityRecorder{}), "Bearer "+f.token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgUserGone, decodeError(t, rec).Message)
}

type failingLookup struct{}

func (failingLookup) GetUser(context.Context, string, ...repository.ReadOption) (*model.User, error) {
	return nil, errors.New("connection reset")
}

func TestProtect_DirectoryFault(t *testing.T) {
	f := newAuthFixture(t)

	hidden := NewAuthenticator(f.jwtAuth, failingLookup{}, logger.Nop(), false)
	rec := serve(hidden.Protect(&identityRecorder{}), "Bearer "+f.token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, msgProtectFailure, body.Message)
	assert.Empty(t, body.Error)

	exposed := NewAuthenticator(f.jwtAuth, failingLookup{}, logger.Nop(), true)
	rec = serve(exposed.Protect(&identityRecorder{}), "Bearer "+f.token)
	assert.Equal(t, "connection reset", decodeError(t, rec).Error)
}

func TestOptional(t *testing.T) {
	f := newAuthFixture(t)

	tests := []struct {
		name       string
		header     string
		wantUserID string
	}{
		{name: "anonymous", header: ""},
		{name: "invalid token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expiredToken(t, f.user.ID.Hex())},
		{name: "authenticated", header: "Bearer " + f.token, wantUserID: f.user.ID.Hex()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &identityRecorder{}
			rec := serve(f.mw.Optional(next), tt.header)

			assert.Equal(t, http.StatusOK, rec.Code)
			require.True(t, next.called)
			if tt.wantUserID == "" {
				assert.Nil(t, next.identity)
			} else {
				require.NotNil(t, next.identity)
				assert.Equal(t, tt.wantUserID, next.identity.UserID)
			}
		})
	}
}

func TestOptional_DirectoryFault(t *testing.T) {
	f := newAuthFixture(t)
	mw := NewAuthenticator(f.jwtAuth, failingLookup{}, logger.Nop(), false)

	next := &identityRecorder{}
	rec := serve(mw.Optional(next), "Bearer "+f.token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, next.called)
	assert.Equal(t, msgOptionalFailure, decodeError(t, rec).Message)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{header: "Bearer abc", token: "abc", ok: true},
		{header: "BEARER abc", token: "abc", ok: true},
		{header: "Bearer", ok: false},
		{header: "Bearer a b", ok: false},
		{header: "Token abc", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestIdentityFromContext_Empty(t *testing.T) {
	assert.Nil(t, IdentityFromContext(context.Background()))
	assert.Nil(t, IdentityFromContext(WithIdentity(context.Background(), nil)))
}

func TestNewIPRateLimiter(t *testing.T) {
	limit, err := NewIPRateLimiter("1-M")
	require.NoError(t, err)

	handler := limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	var body payload.ErrorResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, payload.StatusError, body.Status)
	assert.Equal(t, msgTooManyAttempts, body.Message)

	_, err = NewIPRateLimiter("lots")
	assert.Error(t, err)

	noop, err := NewIPRateLimiter("")
	require.NoError(t, err)
	assert.NotNil(t, noop)
}

func TestNewIPRateLimiter_IgnoresForwardedFor(t *testing.T) {
	limit, err := NewIPRateLimiter("2-M")
	require.NoError(t, err)

	handler := limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for _, forwarded := range []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		req.Header.Set("X-Real-IP", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := RequestLogger(&log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/v1/health", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
}

func TestSecureHeaders(t *testing.T) {
	handler := NewSecure(SecureOptions(false))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

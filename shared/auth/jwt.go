package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	// ErrTokenExpired is returned when a well-formed token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenMalformed is returned when a token fails signature or structure checks.
	ErrTokenMalformed = errors.New("invalid token")
)

// Claims are the claims carried by an identity token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTAuthenticator represents a JWT based authenticator.
type JWTAuthenticator struct {
	secret   []byte
	audience string
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a JWTAuthenticator.
type Option func(*JWTAuthenticator)

// WithTTL overrides the token validity window.
func WithTTL(ttl time.Duration) Option {
	return func(a *JWTAuthenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *JWTAuthenticator) {
		a.now = now
	}
}

// NewJWTAuthenticator creates a new JWTAuthenticator signing with the given secret.
func NewJWTAuthenticator(secret, audience, issuer string, opts ...Option) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	a := &JWTAuthenticator{
		secret:   []byte(secret),
		audience: audience,
		issuer:   issuer,
		ttl:      DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// TTL returns the validity window of issued tokens.
func (a *JWTAuthenticator) TTL() time.Duration {
	return a.ttl
}

// IssueToken signs a token for userID that expires exactly TTL from now.
func (a *JWTAuthenticator) IssueToken(userID string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    a.issuer,
			Audience:  jwt.ClaimStrings{a.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenStr, expiresAt, nil
}

// VerifyToken validates the token and returns its claims. It fails with ErrTokenExpired or
// ErrTokenMalformed.
func (a *JWTAuthenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.audience),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	// The parser already rejects expired tokens; this keeps the expired/invalid split
	// independent of parser options.
	if claims.ExpiresAt == nil || !a.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrTokenMalformed)
	}

	return claims, nil
}

package middleware

import (
	"context"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID string
	Email  string
}

// WithIdentity injects the identity into the context. A nil identity marks an anonymous caller.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity from the context, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityContextKey).(*Identity)
	return identity
}

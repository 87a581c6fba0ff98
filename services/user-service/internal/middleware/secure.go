package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"github.com/unrolled/secure"
)

// SecureOptions returns the header policy for a JSON-only API. Development relaxes it.
func SecureOptions(isDevelopment bool) secure.Options {
	return secure.Options{
		IsDevelopment:         isDevelopment,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}
}

func NewSecure(opts secure.Options) func(next http.Handler) http.Handler {
	return secure.New(opts).Handler
}

// NewCORS lets the mobile and web clients send bearer tokens from the listed origins.
func NewCORS(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		AllowedOrigins: allowedOrigins,
		MaxAge:         86400,
	}).Handler
}

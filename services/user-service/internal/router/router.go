package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/handler"
	"github.com/vasapolrittideah/healthify-api/services/user-service/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	SOSHandler     *handler.SOSHandler // nil when no SMS provider is configured
	HealthHandler  *handler.HealthHandler
	Authenticator  *middleware.Authenticator
	Logger         *zerolog.Logger
	Secure         func(http.Handler) http.Handler
	CORS           func(http.Handler) http.Handler
	AuthRateLimit  func(http.Handler) http.Handler // register/login only
	Metrics        bool                            // expose /metrics

	// TrustProxyHeaders takes the client address from X-Forwarded-For and X-Real-IP.
	// Only enable behind a proxy that overwrites them, since the rate limiter keys on it.
	TrustProxyHeaders bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimid.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.NotFound)

	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimit != nil {
					r.Use(cfg.AuthRateLimit)
				}
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/user-register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/user-login", cfg.AuthHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(cfg.Authenticator.Protect)
				r.Get("/me", cfg.ProfileHandler.GetMe)
				r.Put("/me", cfg.ProfileHandler.UpdateMe)
				r.Get("/user-me", cfg.ProfileHandler.GetMe)
				r.Put("/user-me", cfg.ProfileHandler.UpdateMe)
				r.Put("/me/password", cfg.AuthHandler.ChangePassword)
			})
		})

		if cfg.SOSHandler != nil {
			r.With(cfg.Authenticator.Optional).Post("/sos", cfg.SOSHandler.SendAlert)
			r.Post("/test-twilio", cfg.SOSHandler.SendTestMessage)
		}
	})

	return r
}

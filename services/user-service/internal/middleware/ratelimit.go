package middleware

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const msgTooManyAttempts = "Too many requests. Please try again later."

// NewIPRateLimiter caps register and login attempts per client address, e.g. "20-M".
// An empty rate turns the limiter off. Buckets are keyed on r.RemoteAddr and forwarding
// headers are ignored; the router only rewrites RemoteAddr when proxy headers are trusted.
func NewIPRateLimiter(rateFormatted string) (func(next http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), rate, limiter.WithTrustForwardHeader(false))

	m := stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusTooManyRequests, msgTooManyAttempts, "")
	}))

	return m.Handler, nil
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}

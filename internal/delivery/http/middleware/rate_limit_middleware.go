package middleware

import (
	"net/http"
	"time"

	"velure/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const defaultRateLimitExpiry = 3 * time.Minute

// NewRateLimiter limits requests per client IP. It returns nil when the
// configured rate is zero.
func NewRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = max(int(cfg.RequestsPerSecond), 1)
	}
	expiresIn := cfg.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultRateLimitExpiry
	}

	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     burst,
		ExpiresIn: expiresIn,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
		},
	})
}

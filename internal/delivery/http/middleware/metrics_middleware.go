package middleware

import (
	"github.com/labstack/echo/v4"
)

// RequestObserver records one HTTP request. StartRequest returns the function
// that completes the observation.
type RequestObserver interface {
	StartRequest() func(method, route string, status int)
}

// MetricsMiddleware records request counts, latency and in-flight requests.
type MetricsMiddleware struct {
	observer RequestObserver
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(observer RequestObserver) *MetricsMiddleware {
	return &MetricsMiddleware{observer: observer}
}

// Handle labels requests by route template, not raw path, to bound cardinality.
func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		done := m.observer.StartRequest()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		done(c.Request().Method, route, c.Response().Status)

		return err
	}
}

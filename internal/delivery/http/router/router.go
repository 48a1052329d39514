// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"net/http"

	"velure/internal/delivery/http/middleware"
	"velure/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// authPrefixes are the mount points of the auth routes. Both are served for
// clients of the older gateway.
var authPrefixes = []string{"/authentication", "/api/auth"}

type RouterParams struct {
	fx.In

	AuthHandler    *handler.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	MetricsHandler http.Handler `name:"metricsHandler"`
}

// router holds all the handlers that need to be registered.
type router struct {
	authHandler    *handler.AuthHandler
	authMiddleware *middleware.AuthMiddleware
	metricsHandler http.Handler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		authHandler:    params.AuthHandler,
		authMiddleware: params.AuthMiddleware,
		metricsHandler: params.MetricsHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)
	if r.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(r.metricsHandler))
	}

	for _, prefix := range authPrefixes {
		group := e.Group(prefix)
		group.POST("/register", r.authHandler.Register)
		group.POST("/login", r.authHandler.Login)
		group.POST("/validateToken", r.authHandler.ValidateToken)
		group.GET("/users", r.authHandler.GetUsers)
		group.GET("/user/id/:id", r.authHandler.GetUserByID)
		group.GET("/user/email/:email", r.authHandler.GetUserByEmail)
		group.DELETE("/logout/:refreshToken", r.authHandler.Logout)

		// Routes below require a bearer access token.
		group.GET("/sessions/:userId", r.authHandler.GetSession, r.authMiddleware.Authenticate)
		group.GET("/me", r.authHandler.Me, r.authMiddleware.Authenticate)
	}
}

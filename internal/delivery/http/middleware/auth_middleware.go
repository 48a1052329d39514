package middleware

import (
	"strings"

	deliverycontext "velure/internal/delivery/context"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware authenticates requests carrying a bearer access token.
type AuthMiddleware struct {
	uc usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(uc usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{uc: uc}
}

// Authenticate validates the access token and stores its user on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrInvalidToken.WrapMessage("authorization header is missing")
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return domainerrors.ErrInvalidToken.WrapMessage("authorization header must be a bearer token")
		}

		user, err := m.uc.ValidateAccessToken(c.Request().Context(), token)
		if err != nil {
			return err
		}

		deliverycontext.SetUser(c, user)

		return next(c)
	}
}

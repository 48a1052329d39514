// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"
	"strconv"
	"time"

	deliverycontext "velure/internal/delivery/context"
	"velure/internal/delivery/http/response"
	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/errors"
	"velure/internal/usecase"

	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"` // max counts characters; the 72 byte bcrypt limit is enforced by the service
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type validateTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type validateTokenResponse struct {
	IsValid bool `json:"isValid"`
}

// userResponse is the public view of a user. It never carries the password hash.
type userResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type usersPageResponse struct {
	Users      []userResponse `json:"users"`
	TotalCount int64          `json:"totalCount"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type sessionResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	uc usecase.AuthUsecase
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// Register handles the user registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.uc.CreateUser(c.Request().Context(), usecase.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, toUserResponse(user), "User registered successfully")
}

// Login handles the user login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.uc.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, pair, "Login successful")
}

// ValidateToken reports whether the token resolves to a user. Rejected tokens
// are a normal 200 answer with isValid false.
func (h *AuthHandler) ValidateToken(c echo.Context) error {
	var req validateTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.uc.ValidateAccessToken(c.Request().Context(), req.Token)
	if err != nil && !errors.Is(err, domainerrors.ErrInvalidToken) {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, validateTokenResponse{IsValid: err == nil && user != nil}, "")
}

// GetUsers lists users. With page or pageSize in the query it returns one page.
func (h *AuthHandler) GetUsers(c echo.Context) error {
	var page, pageSize int
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("pageSize", &pageSize).
		BindError(); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("page and pageSize must be integers")
	}

	ctx := c.Request().Context()

	if c.QueryParam("page") != "" || c.QueryParam("pageSize") != "" {
		result, err := h.uc.GetUsersPage(ctx, usecase.PageInput{Page: page, PageSize: pageSize})
		if err != nil {
			return errors.WithStack(err)
		}

		return response.Success(c, http.StatusOK, usersPageResponse{
			Users:      toUserResponses(result.Users),
			TotalCount: result.TotalCount,
			Page:       result.Page,
			PageSize:   result.PageSize,
			TotalPages: result.TotalPages,
		}, "")
	}

	users, err := h.uc.GetUsers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponses(users), "")
}

// GetUserByID handles GET /user/id/:id.
func (h *AuthHandler) GetUserByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid user id")
	}

	user, err := h.uc.GetUserByID(c.Request().Context(), uint(id))
	if err != nil {
		return errors.WithStack(err)
	}
	if user == nil {
		return domainerrors.ErrUserNotFound
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "")
}

// GetUserByEmail handles GET /user/email/:email.
func (h *AuthHandler) GetUserByEmail(c echo.Context) error {
	email := c.Param("email")
	if email == "" {
		return domainerrors.ErrValidationFailed.WithDetails("email is required")
	}

	user, err := h.uc.GetUserByEmail(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}
	if user == nil {
		return domainerrors.ErrUserNotFound
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "")
}

// GetSession returns the caller's own session. Requires Authenticate.
func (h *AuthHandler) GetSession(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 0)
	if err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("invalid user id")
	}

	caller, ok := deliverycontext.GetUser(c)
	if !ok {
		return domainerrors.ErrInvalidToken
	}
	if caller.ID != uint(userID) {
		return domainerrors.ErrForbidden
	}

	session, err := h.uc.GetSessionByUserID(c.Request().Context(), caller.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	if session == nil {
		return domainerrors.ErrSessionNotFound
	}

	return response.Success(c, http.StatusOK, sessionResponse{
		ID:        session.ID,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, "")
}

// Logout handles DELETE /logout/:refreshToken.
func (h *AuthHandler) Logout(c echo.Context) error {
	refreshToken := c.Param("refreshToken")
	if refreshToken == "" {
		return domainerrors.ErrValidationFailed.WithDetails("refresh token is required")
	}

	if err := h.uc.Logout(c.Request().Context(), refreshToken); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// Me returns the authenticated user. Requires Authenticate.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := deliverycontext.GetUser(c)
	if !ok {
		return domainerrors.ErrInvalidToken
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "")
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed request body")
	}

	return c.Validate(req)
}

func toUserResponse(user *entity.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toUserResponses(users []*entity.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	return out
}

// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"velure/config"
	deliverycontext "velure/internal/delivery/context"
	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"
	"velure/internal/domain/service"
	"velure/internal/errors"
	"velure/internal/usecase"

	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	sessionRepo  repository.SessionRepository
	hasher       service.PasswordHasher
	issuer       service.TokenIssuer
	cache        service.TokenCache
	metrics      service.AuthMetrics
	sessionTTL   time.Duration
	cacheEnabled bool
	cacheTTL     time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Hasher      service.PasswordHasher
	Issuer      service.TokenIssuer
	Cache       service.TokenCache
	Metrics     service.AuthMetrics
	Config      *config.Config
	Logger      *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		sessionRepo:  params.SessionRepo,
		hasher:       params.Hasher,
		issuer:       params.Issuer,
		cache:        params.Cache,
		metrics:      params.Metrics,
		sessionTTL:   params.Config.Session.ExpiresIn,
		cacheEnabled: params.Config.Cache.Enabled,
		cacheTTL:     params.Config.Cache.TTL,
		now:          time.Now,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateUser registers a new user. The email lookup and the insert share one transaction.
func (srv *authService) CreateUser(ctx context.Context, input usecase.CreateUserInput) (*entity.User, error) {
	start := time.Now()
	user, err := srv.createUser(ctx, input)
	srv.metrics.ObserveRegistration(outcomeOf(err), time.Since(start))

	return user, err
}

func (srv *authService) createUser(ctx context.Context, input usecase.CreateUserInput) (*entity.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("email and password are required")
	}
	if len(input.Password) > service.MaxPasswordBytes {
		return nil, domainerrors.ErrValidationFailed.WithDetails(fmt.Sprintf("password: max=%d bytes", service.MaxPasswordBytes))
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	var created *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		_, err := userRepo.FindByEmail(ctx, email)
		if err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email is already registered")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to look up email")
		}

		hash, err := srv.hasher.Hash(ctx, input.Password)
		if err != nil {
			srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

			return errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}

		user := &entity.User{
			Email:        email,
			PasswordHash: hash,
			Name:         input.Name,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return errors.Wrap(err, "failed to create user")
		}
		created = user

		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrUserAlreadyExists) {
			srv.log(ctx).Info("Registration rejected, email taken", slog.String("email", email))

			return nil, err
		}
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", created.ID))

	return created, nil
}

// GetUsers returns all users without password hashes.
func (srv *authService) GetUsers(ctx context.Context) ([]*entity.User, error) {
	users, err := srv.userRepo.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return stripAll(users), nil
}

// GetUsersPage returns one page of users. Out of range page sizes fall back to the defaults.
func (srv *authService) GetUsersPage(ctx context.Context, input usecase.PageInput) (*entity.UserPage, error) {
	page := max(input.Page, 1)
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	total, err := srv.userRepo.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count users")
	}

	result := &entity.UserPage{
		Users:      []*entity.User{},
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	// Pages past the last one are empty; skipping the query also keeps the offset from overflowing.
	if page > result.TotalPages {
		return result, nil
	}

	users, err := srv.userRepo.FindPage(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users page")
	}
	result.Users = stripAll(users)

	return result, nil
}

// GetUserByID returns the user without its hash, or nil when the id is unknown.
func (srv *authService) GetUserByID(ctx context.Context, id uint) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return user.WithoutPassword(), nil
}

// GetUserByEmail returns the stored user including its hash, or nil when the email is unknown.
func (srv *authService) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	user, err := srv.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return user, nil
}

// Login verifies the credentials and issues a fresh session for the user.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*entity.TokenPair, error) {
	start := time.Now()
	pair, err := srv.login(ctx, input)
	srv.metrics.ObserveLogin(outcomeOf(err), time.Since(start))

	return pair, err
}

func (srv *authService) login(ctx context.Context, input usecase.LoginInput) (*entity.TokenPair, error) {
	user, err := srv.userRepo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if errors.Is(err, repository.ErrUserNotFound) {
		srv.log(ctx).Info("Login rejected, unknown email")

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	ok, err := srv.hasher.Check(ctx, input.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to verify password")
	}
	if !ok {
		srv.log(ctx).Info("Login rejected, wrong password", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	session, err := srv.upsertSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Login completed", slog.Any("userID", user.ID), slog.Any("sessionID", session.ID))

	return &entity.TokenPair{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

// upsertSession replaces the user's session with freshly issued tokens in a
// single store operation, so concurrent logins still leave one row.
func (srv *authService) upsertSession(ctx context.Context, userID uint) (*entity.Session, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrInternalError.WrapMessage("session owner not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session owner")
	}

	var accessToken, refreshToken string
	var g errgroup.Group
	g.Go(func() error {
		var err error
		accessToken, err = srv.issuer.GenerateAccessToken(user)

		return errors.Wrap(err, "access token")
	})
	g.Go(func() error {
		var err error
		refreshToken, err = srv.issuer.GenerateRefreshToken(user)

		return errors.Wrap(err, "refresh token")
	})
	if err := g.Wait(); err != nil {
		srv.log(ctx).Error("Failed to generate session tokens", slog.Any("userID", userID), slog.Any("error", err))

		return nil, domainerrors.ErrTokenGenerationFailed.WrapMessage(err.Error())
	}

	session := &entity.Session{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    srv.now().Add(srv.sessionTTL),
	}
	if err := srv.sessionRepo.Upsert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to upsert session")
	}

	return session, nil
}

// Logout deletes the session holding refreshToken. An unknown token is a no-op.
func (srv *authService) Logout(ctx context.Context, refreshToken string) error {
	err := srv.logout(ctx, refreshToken)
	srv.metrics.ObserveLogout(outcomeOf(err))

	return err
}

func (srv *authService) logout(ctx context.Context, refreshToken string) error {
	session, err := srv.sessionRepo.FindByRefreshToken(ctx, refreshToken)
	if errors.Is(err, repository.ErrSessionNotFound) {
		srv.log(ctx).Debug("Logout for unknown session ignored")

		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to find session")
	}

	if err := srv.cache.Delete(ctx, session.AccessToken); err != nil {
		srv.log(ctx).Warn("Failed to drop cached token", slog.Any("error", err))
	}

	if err := srv.sessionRepo.DeleteByRefreshToken(ctx, refreshToken); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}

	srv.log(ctx).Debug("Logout completed", slog.Any("userID", session.UserID))

	return nil
}

// ValidateAccessToken resolves token to its user without the password hash.
func (srv *authService) ValidateAccessToken(ctx context.Context, token string) (*entity.User, error) {
	user, err := srv.validateAccessToken(ctx, token)
	srv.metrics.ObserveTokenValidation(outcomeOf(err))

	return user, err
}

func (srv *authService) validateAccessToken(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, domainerrors.ErrInvalidToken
	}

	if srv.cacheEnabled {
		cached, hit, err := srv.cache.Get(ctx, token)
		if err != nil {
			srv.log(ctx).Warn("Token cache lookup failed", slog.Any("error", err))
		}
		srv.metrics.ObserveCache(hit)
		if hit {
			return cached, nil
		}
	}

	claims, err := srv.issuer.VerifyAccessToken(token)
	if err != nil {
		srv.log(ctx).Debug("Access token rejected", slog.Any("error", err))

		return nil, domainerrors.ErrInvalidToken
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerrors.ErrInvalidToken
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find token owner")
	}

	stripped := user.WithoutPassword()

	if srv.cacheEnabled {
		ttl := srv.cacheTTL
		if claims.ExpiresAt != nil {
			ttl = min(ttl, claims.ExpiresAt.Sub(srv.now()))
		}
		if ttl > 0 {
			if err := srv.cache.Set(ctx, token, stripped, ttl); err != nil {
				srv.log(ctx).Warn("Failed to cache validated token", slog.Any("error", err))
			}
		}
	}

	return stripped, nil
}

// GetSessionByUserID returns the user's current session, or nil when there is none.
func (srv *authService) GetSessionByUserID(ctx context.Context, userID uint) (*entity.Session, error) {
	session, err := srv.sessionRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find session")
	}

	return session, nil
}

func stripAll(users []*entity.User) []*entity.User {
	stripped := make([]*entity.User, 0, len(users))
	for _, u := range users {
		stripped = append(stripped, u.WithoutPassword())
	}

	return stripped
}

// outcomeOf classifies err for metrics: rejections of the caller are
// failures, anything else is an error.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return service.OutcomeSuccess
	case errors.Is(err, domainerrors.ErrInvalidCredentials),
		errors.Is(err, domainerrors.ErrInvalidToken),
		errors.Is(err, domainerrors.ErrUserAlreadyExists),
		errors.Is(err, domainerrors.ErrValidationFailed):
		return service.OutcomeFailure
	default:
		return service.OutcomeError
	}
}

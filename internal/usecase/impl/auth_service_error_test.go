package impl

import (
	"context"
	"testing"
	"time"

	"velure/internal/domain/entity"
	domainerrors "velure/internal/domain/errors"
	"velure/internal/domain/repository"
	"velure/internal/domain/service"
	"velure/internal/errors"
	mockRepo "velure/internal/mocks/repository"
	mockSvc "velure/internal/mocks/service"
	"velure/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockFixtures holds all mocked dependencies of the auth service.
type mockFixtures struct {
	service     usecase.AuthUsecase
	txManager   *mockRepo.MockTransactionManager
	userRepo    *mockRepo.MockUserRepository
	sessionRepo *mockRepo.MockSessionRepository
	hasher      *mockSvc.MockPasswordHasher
	issuer      *mockSvc.MockTokenIssuer
	cache       *mockSvc.MockTokenCache
	metrics     *recordingMetrics
}

func createMockedAuthService(t *testing.T, cacheEnabled bool) mockFixtures {
	f := mockFixtures{
		txManager:   mockRepo.NewMockTransactionManager(t),
		userRepo:    mockRepo.NewMockUserRepository(t),
		sessionRepo: mockRepo.NewMockSessionRepository(t),
		hasher:      mockSvc.NewMockPasswordHasher(t),
		issuer:      mockSvc.NewMockTokenIssuer(t),
		cache:       mockSvc.NewMockTokenCache(t),
		metrics:     newRecordingMetrics(),
	}

	cfg := newTestConfig()
	cfg.Cache.Enabled = cacheEnabled

	f.service = NewAuthService(AuthServiceParams{
		TxManager:   f.txManager,
		UserRepo:    f.userRepo,
		SessionRepo: f.sessionRepo,
		Hasher:      f.hasher,
		Issuer:      f.issuer,
		Cache:       f.cache,
		Metrics:     f.metrics,
		Config:      cfg,
		Logger:      newDiscardLogger(),
	})

	return f
}

// runTxWith makes the transaction manager invoke fn with a factory handing out txUsers.
func (f mockFixtures) runTxWith(t *testing.T, txUsers repository.UserRepository) {
	f.txManager.EXPECT().
		Execute(mock.Anything, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(_ context.Context, fn func(repository.RepositoryFactory) error) error {
			factory := mockRepo.NewMockRepositoryFactory(t)
			factory.EXPECT().NewUserRepository().Return(txUsers)

			return fn(factory)
		})
}

func TestAuthService_CreateUser_HashFailure(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()
	txUsers := mockRepo.NewMockUserRepository(t)
	f.runTxWith(t, txUsers)

	txUsers.EXPECT().FindByEmail(ctx, "ana@velure.dev").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().Hash(ctx, "pw").Return("", context.Canceled)

	_, err := f.service.CreateUser(ctx, usecase.CreateUserInput{Email: "ana@velure.dev", Password: "pw"})

	require.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
	txUsers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.metrics.count("registration", service.OutcomeError))
}

func TestAuthService_CreateUser_LookupFailurePropagates(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()
	txUsers := mockRepo.NewMockUserRepository(t)
	f.runTxWith(t, txUsers)

	dbErr := domainerrors.NewDatabaseExecuteError(errors.New("connection reset"), "find user by email")
	txUsers.EXPECT().FindByEmail(ctx, "ana@velure.dev").Return(nil, dbErr)

	_, err := f.service.CreateUser(ctx, usecase.CreateUserInput{Email: "ana@velure.dev", Password: "pw"})

	require.Error(t, err)
	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
}

func TestAuthService_CreateUser_InsertRace(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()
	txUsers := mockRepo.NewMockUserRepository(t)
	f.runTxWith(t, txUsers)

	txUsers.EXPECT().FindByEmail(ctx, "ana@velure.dev").Return(nil, repository.ErrUserNotFound)
	f.hasher.EXPECT().Hash(ctx, "pw").Return("$2a$hash", nil)
	txUsers.EXPECT().Create(ctx, mock.AnythingOfType("*entity.User")).
		Return(domainerrors.ErrUserAlreadyExists.WrapMessage("unique constraint"))

	_, err := f.service.CreateUser(ctx, usecase.CreateUserInput{Email: "ana@velure.dev", Password: "pw"})

	assert.ErrorIs(t, err, domainerrors.ErrUserAlreadyExists)
	assert.Equal(t, 1, f.metrics.count("registration", service.OutcomeFailure))
}

func TestAuthService_Login_StoreFailureIsNotCredentials(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()

	f.userRepo.EXPECT().FindByEmail(ctx, "ana@velure.dev").Return(nil, errors.New("timeout"))

	_, err := f.service.Login(ctx, usecase.LoginInput{Email: "ana@velure.dev", Password: "pw"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, 1, f.metrics.count("login", service.OutcomeError))
}

func TestAuthService_Login_TokenFailure(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()
	user := &entity.User{ID: 7, Email: "ana@velure.dev", PasswordHash: "$2a$hash"}

	f.userRepo.EXPECT().FindByEmail(ctx, "ana@velure.dev").Return(user, nil)
	f.userRepo.EXPECT().FindByID(ctx, uint(7)).Return(user, nil)
	f.hasher.EXPECT().Check(ctx, "pw", "$2a$hash").Return(true, nil)
	f.issuer.EXPECT().GenerateAccessToken(user).Return("access", nil)
	f.issuer.EXPECT().GenerateRefreshToken(user).Return("", errors.New("signing failed"))

	_, err := f.service.Login(ctx, usecase.LoginInput{Email: "ana@velure.dev", Password: "pw"})

	require.ErrorIs(t, err, domainerrors.ErrTokenGenerationFailed)
	f.sessionRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestAuthService_Login_UpsertFailure(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()
	user := &entity.User{ID: 7, Email: "ana@velure.dev", PasswordHash: "$2a$hash"}
	dbErr := domainerrors.NewDatabaseExecuteError(errors.New("deadlock"), "upsert session")

	f.userRepo.EXPECT().FindByEmail(ctx, "ana@velure.dev").Return(user, nil)
	f.userRepo.EXPECT().FindByID(ctx, uint(7)).Return(user, nil)
	f.hasher.EXPECT().Check(ctx, "pw", "$2a$hash").Return(true, nil)
	f.issuer.EXPECT().GenerateAccessToken(user).Return("access", nil)
	f.issuer.EXPECT().GenerateRefreshToken(user).Return("refresh", nil)
	f.sessionRepo.EXPECT().Upsert(ctx, mock.MatchedBy(func(s *entity.Session) bool {
		return s.UserID == 7 && s.AccessToken == "access" && s.RefreshToken == "refresh"
	})).Return(dbErr)

	_, err := f.service.Login(ctx, usecase.LoginInput{Email: "ana@velure.dev", Password: "pw"})

	assert.ErrorIs(t, err, dbErr)
}

func TestAuthService_Logout_LookupFailure(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()

	f.sessionRepo.EXPECT().FindByRefreshToken(ctx, "refresh").Return(nil, errors.New("timeout"))

	err := f.service.Logout(ctx, "refresh")

	require.Error(t, err)
	f.sessionRepo.AssertNotCalled(t, "DeleteByRefreshToken", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.metrics.count("logout", service.OutcomeError))
}

func TestAuthService_Logout_CacheFailureDoesNotBlock(t *testing.T) {
	f := createMockedAuthService(t, true)
	ctx := context.Background()
	session := &entity.Session{UserID: 7, AccessToken: "access", RefreshToken: "refresh"}

	f.sessionRepo.EXPECT().FindByRefreshToken(ctx, "refresh").Return(session, nil)
	f.cache.EXPECT().Delete(ctx, "access").Return(errors.New("redis down"))
	f.sessionRepo.EXPECT().DeleteByRefreshToken(ctx, "refresh").Return(nil)

	require.NoError(t, f.service.Logout(ctx, "refresh"))
}

func TestAuthService_Validate_CacheHitSkipsVerification(t *testing.T) {
	f := createMockedAuthService(t, true)
	ctx := context.Background()
	cached := &entity.User{ID: 7, Email: "ana@velure.dev"}

	f.cache.EXPECT().Get(ctx, "access").Return(cached, true, nil)

	user, err := f.service.ValidateAccessToken(ctx, "access")

	require.NoError(t, err)
	assert.Equal(t, cached, user)
	f.issuer.AssertNotCalled(t, "VerifyAccessToken", mock.Anything)
}

func TestAuthService_Validate_CacheTTLBoundedByExpiry(t *testing.T) {
	f := createMockedAuthService(t, true)
	ctx := context.Background()
	user := &entity.User{ID: 7, Email: "ana@velure.dev", PasswordHash: "$2a$hash"}
	claims := &service.Claims{UserID: 7}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(10 * time.Second))

	f.cache.EXPECT().Get(ctx, "access").Return(nil, false, nil)
	f.issuer.EXPECT().VerifyAccessToken("access").Return(claims, nil)
	f.userRepo.EXPECT().FindByID(ctx, uint(7)).Return(user, nil)
	f.cache.EXPECT().Set(ctx, "access", mock.MatchedBy(func(u *entity.User) bool {
		return u.ID == 7 && u.PasswordHash == ""
	}), mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= 10*time.Second
	})).Return(nil)

	validated, err := f.service.ValidateAccessToken(ctx, "access")

	require.NoError(t, err)
	assert.Empty(t, validated.PasswordHash)
	assert.Equal(t, "$2a$hash", user.PasswordHash)
}

func TestAuthService_Validate_StoreFailurePropagates(t *testing.T) {
	f := createMockedAuthService(t, false)
	ctx := context.Background()

	f.issuer.EXPECT().VerifyAccessToken("access").Return(&service.Claims{UserID: 7}, nil)
	f.userRepo.EXPECT().FindByID(ctx, uint(7)).Return(nil, errors.New("timeout"))

	_, err := f.service.ValidateAccessToken(ctx, "access")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidToken)
	assert.Equal(t, 1, f.metrics.count("validation", service.OutcomeError))
}

package impl

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"velure/config"
	"velure/internal/domain/service"
	"velure/internal/infra/auth"
	"velure/internal/infra/cache"
	"velure/internal/infra/persistence/memory"
	"velure/internal/usecase"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-access-secret"
	cfg.JWT.RefreshSecret = "test-refresh-secret"
	cfg.JWT.ExpiresIn = time.Hour
	cfg.JWT.RefreshExpiresIn = 7 * 24 * time.Hour
	cfg.JWT.RefreshKeyDerivation = config.RefreshKeyDerivationHKDF
	cfg.Session.ExpiresIn = 24 * time.Hour
	cfg.Cache.Driver = config.CacheDriverMemory
	cfg.Cache.TTL = time.Minute

	return cfg
}

func newTestIssuer(t *testing.T, cfg *config.Config) service.TokenIssuer {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerParams{Config: cfg, Codec: auth.NewJWTCodec()})
	require.NoError(t, err)

	return issuer
}

// authFixture wires the service to in-memory stores and the real hasher and codec.
type authFixture struct {
	service usecase.AuthUsecase
	store   *memory.Store
	cache   *cache.MemoryTokenCache
	metrics *recordingMetrics
	cfg     *config.Config
}

func newAuthFixture(t *testing.T, cacheEnabled bool) authFixture {
	t.Helper()

	cfg := newTestConfig()
	cfg.Cache.Enabled = cacheEnabled

	store := memory.NewStore()
	tokenCache := cache.NewMemoryTokenCache()
	m := newRecordingMetrics()

	svc := NewAuthService(AuthServiceParams{
		TxManager:   memory.NewTransactionManager(store),
		UserRepo:    memory.NewUserRepository(store),
		SessionRepo: memory.NewSessionRepository(store),
		Hasher:      auth.NewBcryptHasherWithCost(bcrypt.MinCost, 4),
		Issuer:      newTestIssuer(t, cfg),
		Cache:       tokenCache,
		Metrics:     m,
		Config:      cfg,
		Logger:      newDiscardLogger(),
	})

	return authFixture{
		service: svc,
		store:   store,
		cache:   tokenCache,
		metrics: m,
		cfg:     cfg,
	}
}

var _ service.AuthMetrics = (*recordingMetrics)(nil)

// recordingMetrics counts observations by kind and label.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	active int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (m *recordingMetrics) inc(kind, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[kind+"/"+label]++
}

func (m *recordingMetrics) count(kind, label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counts[kind+"/"+label]
}

func (m *recordingMetrics) ObserveLogin(outcome string, _ time.Duration) { m.inc("login", outcome) }

func (m *recordingMetrics) ObserveRegistration(outcome string, _ time.Duration) {
	m.inc("registration", outcome)
}

func (m *recordingMetrics) ObserveLogout(outcome string) { m.inc("logout", outcome) }

func (m *recordingMetrics) ObserveTokenValidation(outcome string) { m.inc("validation", outcome) }

func (m *recordingMetrics) ObserveCache(hit bool) {
	if hit {
		m.inc("cache", "hit")

		return
	}
	m.inc("cache", "miss")
}

func (m *recordingMetrics) SetActiveSessions(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

func (m *recordingMetrics) ObserveExpiredSessionsRemoved(count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts["expired/removed"] += int(count)
}

func (m *recordingMetrics) activeSessions() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active
}

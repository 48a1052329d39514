package cache

import (
	"context"
	"log/slog"
	"time"

	"velure/config"
	"velure/internal/domain/entity"
	"velure/internal/domain/lifecycle"
	"velure/internal/domain/service"
	"velure/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const memoryPurgeInterval = time.Minute

// noopTokenCache is used when the validation cache is disabled
type noopTokenCache struct{}

func (noopTokenCache) Get(context.Context, string) (*entity.User, bool, error) {
	return nil, false, nil
}

func (noopTokenCache) Set(context.Context, string, *entity.User, time.Duration) error {
	return nil
}

func (noopTokenCache) Delete(context.Context, string) error {
	return nil
}

// CacheParams holds dependencies for the token cache, injected by Fx
type CacheParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewTokenCache picks the cache backend from configuration
func NewTokenCache(params CacheParams) (service.TokenCache, error) {
	cfg := params.Config.Cache
	logger := params.Logger

	if !cfg.Enabled {
		logger.Info("Token cache disabled")

		return noopTokenCache{}, nil
	}

	switch cfg.Driver {
	case config.CacheDriverMemory, "":
		logger.Info("Using in-memory token cache", slog.Duration("ttl", cfg.TTL))
		memCache := NewMemoryTokenCache()
		registerPurge(params.Lc, logger, memCache)

		return memCache, nil

	case config.CacheDriverRedis:
		redisCfg := params.Config.Redis
		if redisCfg.Addr == "" {
			return nil, errors.New("redis address is required for redis cache")
		}
		logger.Info("Using Redis token cache",
			slog.String("addr", redisCfg.Addr),
			slog.Int("db", redisCfg.DB),
		)

		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		redisCache := NewRedisTokenCache(client, redisCfg.KeyPrefix)

		params.Lc.Append(fx.Hook{
			OnStart: func(startCtx context.Context) error {
				ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
				defer cancel()

				return errors.Wrap(client.Ping(ctx).Err(), "failed to ping Redis")
			},
			OnStop: func(_ context.Context) error {
				logger.Info("Closing Redis token cache")

				return redisCache.Close()
			},
		})

		return redisCache, nil

	default:
		return nil, errors.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}

func registerPurge(lc fx.Lifecycle, logger *slog.Logger, memCache *MemoryTokenCache) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(memoryPurgeInterval)
				defer ticker.Stop()

				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if removed := memCache.Purge(); removed > 0 {
							logger.Debug("Purged expired token cache entries", slog.Int("removed", removed))
						}
					}
				}
			}()

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()

			return nil
		},
	})
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"velure/config"
	"velure/internal/delivery"
	deliveryhttp "velure/internal/delivery/http"
	"velure/internal/delivery/http/middleware"
	"velure/internal/delivery/http/router/handler"
	"velure/internal/delivery/worker"
	"velure/internal/domain/service"
	"velure/internal/infra/auth"
	"velure/internal/infra/cache"
	logs "velure/internal/infra/log"
	"velure/internal/infra/metrics"
	"velure/internal/infra/persistence/memory"
	"velure/internal/infra/persistence/postgres"
	"velure/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Logger     *slog.Logger
	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	fx.New(
		fx.Supply(cfg),
		injectInfra(),
		injectRepo(cfg),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		logs.New,
		context.Background,
		metrics.New,
		func(m *metrics.Metrics) service.AuthMetrics { return m },
		func(m *metrics.Metrics) middleware.RequestObserver { return m },
		fx.Annotate(
			func(m *metrics.Metrics) http.Handler { return m.Handler() },
			fx.ResultTags(`name:"metricsHandler"`),
		),
	)
}

// injectRepo stores data in Postgres when it is configured and in process memory otherwise.
func injectRepo(cfg *config.Config) fx.Option {
	if cfg.Postgres == nil {
		return fx.Options(
			fx.Provide(
				memory.NewStore,
				memory.NewUserRepository,
				memory.NewSessionRepository,
				memory.NewTransactionManager,
			),
			fx.Invoke(func(logger *slog.Logger) {
				logger.Warn("Postgres not configured, data is kept in memory and lost on restart")
			}),
		)
	}

	return fx.Options(
		fx.Provide(
			postgres.New,
			postgres.NewUserRepository,
			postgres.NewSessionRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTCodec,
			auth.NewTokenIssuer,
			cache.NewTokenCache,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewSessionService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				deliveryhttp.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	params.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for _, d := range params.Deliveries {
				go func() {
					if err := d.Serve(ctx); err != nil {
						params.Logger.Error("Failed to start server", slog.Any("error", err))
						os.Exit(1)
					}
				}()
			}

			return nil
		},
	})
}

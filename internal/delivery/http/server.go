package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"velure/config"
	"velure/internal/delivery"
	"velure/internal/delivery/http/middleware"
	"velure/internal/delivery/http/router"
	"velure/internal/delivery/http/validator"
	"velure/internal/domain/lifecycle"
	"velure/internal/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
)

// HTTPParams holds dependencies for HTTP server, injected by Fx.
type HTTPParams struct {
	fx.In

	Lc           fx.Lifecycle
	Config       *config.Config
	Logger       *slog.Logger
	Observer     middleware.RequestObserver
	RouterParams router.RouterParams
}

type httpServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

func NewServer(params HTTPParams) (delivery.Delivery, error) {
	echoServer := NewEcho(params.Config, params.Logger, params.Observer, params.RouterParams)

	srv := &httpServer{
		cfg:    params.Config,
		logger: params.Logger,
		server: echoServer,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// NewEcho builds the echo instance with middleware, error handling and routes.
func NewEcho(cfg *config.Config, logger *slog.Logger, observer middleware.RequestObserver, routerParams router.RouterParams) *echo.Echo {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	echoServer.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	echoServer.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	echoServer.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	// Order matters: the request ID must exist before anything logs, and the
	// logger and metrics must see the final status written by the error handler.
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(middleware.NewRequestIDMiddleware(logger).Process)
	echoServer.Use(middleware.NewLoggerMiddleware(logger, cfg).Handle)
	if observer != nil {
		echoServer.Use(middleware.NewMetricsMiddleware(observer).Handle)
	}

	corsConfig := echomiddleware.DefaultCORSConfig
	if len(cfg.HTTP.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.AllowOrigins
	}
	echoServer.Use(echomiddleware.CORSWithConfig(corsConfig))

	echoServer.Use(echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize))

	if limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit); limiter != nil {
		echoServer.Use(limiter)
	}

	echoServer.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError
	echoServer.Validator = validator.New()

	router.NewRouter(routerParams).RegisterRoutes(echoServer)

	return echoServer
}

func (s *httpServer) Serve(ctx context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting HTTP server", slog.String("hostPort", hostPort))
	h2Server := &http2.Server{
		IdleTimeout: s.cfg.HTTP.Timeouts.IdleTimeout,
	}
	if err := s.server.StartH2CServer(hostPort, h2Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve http")
	}

	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}

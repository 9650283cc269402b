package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
	"github.com/orderdash/orderdash/internal/observability"
	"github.com/orderdash/orderdash/internal/web"
)

const readHeaderTimeout = 5 * time.Second

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	web.Module,
	fx.Provide(NewEcho),
	fx.Invoke(Serve),
)

// NewEcho configures the Echo router: page renderer, panic recovery,
// request tracing, and the health and metrics endpoints.
func NewEcho(cfg config.Config, renderer *web.Renderer, obs *observability.Manager, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.HTTP.Debug
	e.Renderer = renderer
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		logger.Error("http request failed", zap.String("path", c.Path()), zap.Error(err))
		c.Echo().DefaultHTTPErrorHandler(err, c)
	}

	e.Use(middleware.Recover())
	if obs != nil && obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if obs != nil && obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(cfg.Observability.PrometheusPath, echo.WrapHandler(obs.MetricsHandler()))
	}

	return e
}

// Serve binds the router to the configured address and ties startup and
// graceful shutdown to the Fx lifecycle.
func Serve(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, logger *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting HTTP server", zap.String("addr", addr), zap.Bool("debug", cfg.HTTP.Debug))
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}

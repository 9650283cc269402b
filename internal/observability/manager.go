package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/orderdash/orderdash/internal/config"
)

const (
	serviceVersion  = "0.1.0"
	shutdownTimeout = 10 * time.Second
	otlpDialTimeout = 10 * time.Second
)

// Manager owns the tracer and meter providers for the process.
type Manager struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
	cfg            config.Observability
	logger         *zap.Logger
}

// Module exposes the observability manager to Fx.
var Module = fx.Provide(NewManager)

// NewManager builds tracing and metrics providers per the configuration and
// registers them as the process-global otel providers on startup.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg.Observability)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{cfg: cfg.Observability, logger: logger}

	if cfg.Observability.EnableTracing {
		mgr.tracerProvider, err = newTracerProvider(ctx, cfg.Observability, res, logger)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Observability.EnableMetrics {
		mgr.meterProvider, mgr.metricsHandler, err = newMeterProvider(cfg.Observability, res, logger)
		if err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			mgr.install()
			return nil
		},
		OnStop: mgr.shutdown,
	})

	return mgr, nil
}

// TracingEnabled reports whether tracing is active.
func (m *Manager) TracingEnabled() bool {
	return m.tracerProvider != nil && m.cfg.EnableTracing
}

// MetricsEnabled reports whether metrics are active.
func (m *Manager) MetricsEnabled() bool {
	return m.meterProvider != nil && m.cfg.EnableMetrics
}

// MetricsHandler exposes the Prometheus scrape handler; nil when the
// prometheus exporter is not in use.
func (m *Manager) MetricsHandler() http.Handler {
	return m.metricsHandler
}

// PrometheusPath returns the configured metrics endpoint path.
func (m *Manager) PrometheusPath() string {
	return m.cfg.PrometheusPath
}

func (m *Manager) install() {
	if tp := m.tracerProvider; tp != nil {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if mp := m.meterProvider; mp != nil {
		otel.SetMeterProvider(mp)
	}
}

func (m *Manager) shutdown(ctx context.Context) error {
	deadlineCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var err error
	if tp := m.tracerProvider; tp != nil {
		err = errors.Join(err, tp.Shutdown(deadlineCtx))
	}
	if mp := m.meterProvider; mp != nil {
		err = errors.Join(err, mp.Shutdown(deadlineCtx))
	}
	return err
}

func newResource(ctx context.Context, cfg config.Observability) (*sdkresource.Resource, error) {
	return sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("service.environment", cfg.Environment),
		),
	)
}

func newTracerProvider(ctx context.Context, cfg config.Observability, res *sdkresource.Resource, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.TraceExporter {
	case "", "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if cfg.TraceEndpoint == "" {
			return nil, fmt.Errorf("OBS_OTLP_ENDPOINT must be set for otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TraceEndpoint)}
		if cfg.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		dialCtx, cancel := context.WithTimeout(ctx, otlpDialTimeout)
		defer cancel()
		exporter, err = otlptracegrpc.New(dialCtx, opts...)
	default:
		if logger != nil {
			logger.Warn("unsupported trace exporter, tracing disabled", zap.String("exporter", cfg.TraceExporter))
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(cfg config.Observability, res *sdkresource.Resource, logger *zap.Logger) (*sdkmetric.MeterProvider, http.Handler, error) {
	switch cfg.MetricsExporter {
	case "prometheus":
		exporter, err := promexporter.New(promexporter.WithRegisterer(prometheus.DefaultRegisterer))
		if err != nil {
			return nil, nil, err
		}
		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)
		return provider, promhttp.Handler(), nil
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, nil, err
		}
		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))),
			sdkmetric.WithResource(res),
		)
		return provider, nil, nil
	default:
		if logger != nil {
			logger.Warn("unsupported metrics exporter, metrics disabled", zap.String("exporter", cfg.MetricsExporter))
		}
		return nil, nil, nil
	}
}

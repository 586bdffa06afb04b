package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Manager owns the storefront's tracer and meter providers. They become the
// otel globals on start, so the tracers and storefront.* counters that
// services resolve at construction forward to them from then on.
type Manager struct {
	cfg      config.Observability
	resource *sdkresource.Resource

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricsHandler http.Handler
}

// Module exposes the observability manager to Fx.
var Module = fx.Provide(NewManager)

// NewManager builds the providers selected by cfg.Observability. An exporter
// name it does not know leaves that signal off instead of failing startup.
func NewManager(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Manager, error) {
	ctx := context.Background()
	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	obs := cfg.Observability
	mgr := &Manager{cfg: obs, resource: res}

	if obs.EnableTracing {
		exporter, err := newSpanExporter(ctx, obs)
		switch {
		case errors.Is(err, errUnsupportedExporter):
			logger.Warn("tracing disabled", zap.Error(err))
		case err != nil:
			return nil, err
		default:
			mgr.tracerProvider = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(res),
			)
		}
	}

	if obs.EnableMetrics {
		reader, handler, err := newMetricReader(obs)
		switch {
		case errors.Is(err, errUnsupportedExporter):
			logger.Warn("metrics disabled", zap.Error(err))
		case err != nil:
			return nil, err
		default:
			mgr.meterProvider = newMeterProvider(reader, sdkmetric.WithResource(res))
			mgr.metricsHandler = handler
		}
	}

	logger.Info("observability configured",
		zap.String("environment", obs.Environment),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("tracing", mgr.TracingEnabled()),
		zap.Bool("metrics", mgr.MetricsEnabled()),
	)

	lc.Append(fx.Hook{OnStart: mgr.install, OnStop: mgr.shutdown})
	return mgr, nil
}

func (m *Manager) install(context.Context) error {
	if m.tracerProvider != nil {
		otel.SetTracerProvider(m.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	if m.meterProvider != nil {
		otel.SetMeterProvider(m.meterProvider)
	}
	return nil
}

func (m *Manager) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	var err error
	if m.tracerProvider != nil {
		err = errors.Join(err, m.tracerProvider.Shutdown(ctx))
	}
	if m.meterProvider != nil {
		err = errors.Join(err, m.meterProvider.Shutdown(ctx))
	}
	return err
}

// Resource returns the resource attached to every exported span and metric.
func (m *Manager) Resource() *sdkresource.Resource { return m.resource }

// TracingEnabled reports whether spans are exported.
func (m *Manager) TracingEnabled() bool { return m.tracerProvider != nil }

// MetricsEnabled reports whether metrics are exported.
func (m *Manager) MetricsEnabled() bool { return m.meterProvider != nil }

// MetricsHandler serves the prometheus scrape; nil for other exporters.
func (m *Manager) MetricsHandler() http.Handler { return m.metricsHandler }

// PrometheusPath returns the configured metrics endpoint path.
func (m *Manager) PrometheusPath() string { return m.cfg.PrometheusPath }

package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Additional-Code/storefront/internal/config"
)

const (
	exporterDialTimeout = 10 * time.Second
	metricsReadInterval = 30 * time.Second
)

var errUnsupportedExporter = errors.New("unsupported exporter")

func newSpanExporter(ctx context.Context, cfg config.Observability) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.TraceExporter) {
	case "", "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		if cfg.TraceEndpoint == "" {
			return nil, fmt.Errorf("OBS_OTLP_ENDPOINT must be set for otlp exporter")
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TraceEndpoint)}
		if cfg.TraceInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		dialCtx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
		defer cancel()
		return otlptracegrpc.New(dialCtx, opts...)
	default:
		return nil, fmt.Errorf("%w: trace exporter %q", errUnsupportedExporter, cfg.TraceExporter)
	}
}

// newMetricReader returns the reader for the configured exporter. The
// prometheus exporter also returns the scrape handler, backed by a registry
// private to this reader.
func newMetricReader(cfg config.Observability) (sdkmetric.Reader, http.Handler, error) {
	switch strings.ToLower(cfg.MetricsExporter) {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(
			promexporter.WithRegisterer(registry),
			promexporter.WithoutScopeInfo(),
		)
		if err != nil {
			return nil, nil, err
		}
		return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}), nil
	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint(), stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, nil, err
		}
		return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricsReadInterval)), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: metrics exporter %q", errUnsupportedExporter, cfg.MetricsExporter)
	}
}

package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
)

func TestPrometheusMetricsAreServed(t *testing.T) {
	var cfg config.Config
	cfg.Observability = config.Observability{
		ServiceName:     "storefront",
		ServiceVersion:  "test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}

	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	lc.RequireStart()
	defer lc.RequireStop()

	if mgr.TracingEnabled() {
		t.Fatal("tracing should stay disabled")
	}
	if !mgr.MetricsEnabled() || mgr.MetricsHandler() == nil {
		t.Fatal("expected metrics to be enabled with a handler")
	}

	counter, err := mgr.meterProvider.Meter("test").Int64Counter("storefront.test.events")
	if err != nil {
		t.Fatalf("create counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, mgr.PrometheusPath(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "storefront_test_events") {
		t.Fatalf("counter missing from scrape:\n%s", rec.Body.String())
	}
}

func TestUnknownExportersDisableSignals(t *testing.T) {
	var cfg config.Config
	cfg.Observability = config.Observability{
		ServiceName:     "storefront",
		EnableTracing:   true,
		TraceExporter:   "zipkin",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}

	mgr, err := NewManager(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	if mgr.TracingEnabled() || mgr.MetricsEnabled() {
		t.Fatal("unsupported exporters should leave signals disabled")
	}
}

func TestResourceDescribesDeployment(t *testing.T) {
	var cfg config.Config
	cfg.Observability = config.Observability{ServiceName: "storefront", ServiceVersion: "1.2.3", Environment: "staging"}
	cfg.Database.Driver = config.DriverPostgres
	cfg.Cache = config.Cache{Enabled: true, Driver: "redis"}

	mgr, err := NewManager(fxtest.NewLifecycle(t), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	attrs := mgr.Resource().Set()
	want := map[string]string{
		string(semconv.ServiceNameKey):           "storefront",
		string(semconv.ServiceVersionKey):        "1.2.3",
		string(semconv.DeploymentEnvironmentKey): "staging",
		string(AttrDatabaseDriver):               "postgres",
		string(AttrCacheDriver):                  "redis",
	}
	got := make(map[string]string, len(want))
	for key := range want {
		if v, ok := attrs.Value(attribute.Key(key)); ok {
			got[key] = v.Emit()
		}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resource mismatch (-want +got):\n%s", diff)
	}
	if _, ok := attrs.Value(AttrMessagingDriver); ok {
		t.Fatal("disabled messaging should not be described")
	}
}

func TestStorefrontCountersCarryUnits(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := newMeterProvider(reader)
	ctx := context.Background()
	meter := mp.Meter("test")

	for _, name := range []string{"storefront.users.created", "storefront.users.deleted", "storefront.orders.created", "other.requests"} {
		counter, err := meter.Int64Counter(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		counter.Add(ctx, 1)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := map[string]string{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			got[m.Name] = m.Unit
		}
	}
	want := map[string]string{
		"storefront.users.created":  UnitUser,
		"storefront.users.deleted":  UnitUser,
		"storefront.orders.created": UnitOrder,
		"other.requests":            "",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}
}

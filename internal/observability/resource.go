package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/Additional-Code/storefront/internal/config"
)

// Resource attribute keys describing how this storefront instance is wired.
const (
	AttrDatabaseDriver  = attribute.Key("storefront.db.driver")
	AttrCacheDriver     = attribute.Key("storefront.cache.driver")
	AttrMessagingDriver = attribute.Key("storefront.messaging.driver")
)

const serviceNamespace = "storefront"

// newResource describes the running service. Backend drivers are recorded so
// traces and scrapes from mysql and postgres deployments can be told apart.
func newResource(ctx context.Context, cfg config.Config) (*sdkresource.Resource, error) {
	obs := cfg.Observability
	attrs := []attribute.KeyValue{
		semconv.ServiceName(obs.ServiceName),
		semconv.ServiceNamespace(serviceNamespace),
		semconv.ServiceVersion(obs.ServiceVersion),
		semconv.DeploymentEnvironment(obs.Environment),
		AttrDatabaseDriver.String(cfg.Database.Driver),
	}
	if cfg.Cache.Enabled {
		attrs = append(attrs, AttrCacheDriver.String(cfg.Cache.Driver))
	}
	if cfg.Messaging.Enabled {
		attrs = append(attrs, AttrMessagingDriver.String(cfg.Messaging.Driver))
	}

	return sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithHost(),
		sdkresource.WithProcessRuntimeName(),
		sdkresource.WithProcessRuntimeVersion(),
		sdkresource.WithAttributes(attrs...),
	)
}

package observability

import (
	"go.opentelemetry.io/otel/sdk/metric"
)

// Units attached to the storefront.* counters recorded by the services.
const (
	UnitUser  = "{user}"
	UnitOrder = "{order}"
)

func storefrontViews() []metric.View {
	return []metric.View{
		metric.NewView(
			metric.Instrument{Name: "storefront.users.*", Kind: metric.InstrumentKindCounter},
			metric.Stream{Unit: UnitUser},
		),
		metric.NewView(
			metric.Instrument{Name: "storefront.orders.*", Kind: metric.InstrumentKindCounter},
			metric.Stream{Unit: UnitOrder},
		),
	}
}

func newMeterProvider(reader metric.Reader, opts ...metric.Option) *metric.MeterProvider {
	opts = append(opts, metric.WithReader(reader), metric.WithView(storefrontViews()...))
	return metric.NewMeterProvider(opts...)
}

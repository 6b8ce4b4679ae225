package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider initializes the Prometheus exporter and sets the global
// MeterProvider. It returns the /metrics handler and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	mp, err := newMeterProvider(prometheus.DefaultRegisterer, serviceName, serviceVersion)
	if err != nil {
		return nil, nil, err
	}
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// NewRegistryMeterProvider builds a MeterProvider on a private registry and
// leaves global state alone.
func NewRegistryMeterProvider(serviceName, serviceVersion string) (*metric.MeterProvider, http.Handler, error) {
	reg := prometheus.NewRegistry()
	mp, err := newMeterProvider(reg, serviceName, serviceVersion)
	if err != nil {
		return nil, nil, err
	}
	return mp, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func newMeterProvider(reg prometheus.Registerer, serviceName, serviceVersion string) (*metric.MeterProvider, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	return metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(newResource(serviceName, serviceVersion)),
	), nil
}

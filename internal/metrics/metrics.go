package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Transaction outcomes recorded by RecordTransaction.
const (
	OutcomeCommit   = "commit"
	OutcomeRollback = "rollback"
)

type Metrics struct {
	HTTPRequests   metric.Int64Counter
	HTTPDuration   metric.Float64Histogram
	DBTransactions metric.Int64Counter
}

// Setup registers the blog meters and returns the handler serving them.
// A nil registry uses the process-wide default registerer.
func Setup(serviceName string, registry *prometheus.Registry) (*Metrics, http.Handler, error) {
	opts := []otelprom.Option{}
	handler := promhttp.Handler()
	if registry != nil {
		opts = append(opts, otelprom.WithRegisterer(registry))
		handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	exporter, err := otelprom.New(opts...)
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	if registry == nil {
		otel.SetMeterProvider(provider)
	}

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"blog_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"blog_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.DBTransactions, err = meter.Int64Counter(
		"blog_db_transactions_total",
		metric.WithDescription("Database transactions by outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, handler, nil
}

// RecordHTTPRequest records one served request. route should be the
// matched route pattern rather than the raw path to keep cardinality low.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordTransaction(ctx context.Context, outcome string) {
	m.DBTransactions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

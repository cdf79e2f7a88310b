package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/besofuls/EVTrade/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// AppMetrics holds all client metrics
type AppMetrics struct {
	// Outbound HTTP metrics
	APIRequestsTotal   metric.Int64Counter
	APIRequestsErrors  metric.Int64Counter
	APIRequestDuration metric.Float64Histogram

	// Business metrics
	LoginsTotal       metric.Int64Counter
	OrdersCreated     metric.Int64Counter
	ListingsModerated metric.Int64Counter
	ReviewsSubmitted  metric.Int64Counter
	ToastsShown       metric.Int64Counter

	// Session metrics
	SessionReloads metric.Int64Counter

	// Service name for adding to all metrics
	serviceName string
}

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(ctx context.Context, cfg *config.Config) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	// Environment resource first, explicit attributes take precedence.
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}

	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}

	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// OTLP HTTP exporter. WithEndpoint expects host:port without a scheme;
	// WithInsecure is for http:// endpoints (local collectors).
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPHeaders != "" {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(parseHeaders(cfg.OTELExporterOTLPHeaders)))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Periodic reader, exports every 10 seconds
	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(10*time.Second),
	)

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	appMetrics, err := NewAppMetrics(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}
	return appMetrics, meterProvider, nil
}

// NewAppMetrics creates the instrument set on the given meter. Tests pass a
// noop meter here to avoid standing up an exporter.
func NewAppMetrics(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	// SigNoz default histogram buckets in milliseconds, expanded to 60s
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

	apiRequestsTotal, err := meter.Int64Counter(
		"http.client.request.count",
		metric.WithDescription("Total number of outbound API requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api requests counter: %w", err)
	}

	apiRequestsErrors, err := meter.Int64Counter(
		"http.client.request.error.count",
		metric.WithDescription("Total number of failed API requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api errors counter: %w", err)
	}

	apiRequestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Outbound API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api duration histogram: %w", err)
	}

	loginsTotal, err := meter.Int64Counter(
		"logins_total",
		metric.WithDescription("Total number of successful logins"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	ordersCreated, err := meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	listingsModerated, err := meter.Int64Counter(
		"listings_moderated_total",
		metric.WithDescription("Total number of listing moderation actions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create moderation counter: %w", err)
	}

	reviewsSubmitted, err := meter.Int64Counter(
		"reviews_submitted_total",
		metric.WithDescription("Total number of reviews submitted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reviews counter: %w", err)
	}

	toastsShown, err := meter.Int64Counter(
		"toasts_shown_total",
		metric.WithDescription("Total number of toast notifications shown"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create toasts counter: %w", err)
	}

	sessionReloads, err := meter.Int64Counter(
		"session_reloads_total",
		metric.WithDescription("Total number of session store reloads"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session reloads counter: %w", err)
	}

	return &AppMetrics{
		APIRequestsTotal:   apiRequestsTotal,
		APIRequestsErrors:  apiRequestsErrors,
		APIRequestDuration: apiRequestDuration,
		LoginsTotal:        loginsTotal,
		OrdersCreated:      ordersCreated,
		ListingsModerated:  listingsModerated,
		ReviewsSubmitted:   reviewsSubmitted,
		ToastsShown:        toastsShown,
		SessionReloads:     sessionReloads,
		serviceName:        serviceName,
	}, nil
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// RecordAPIRequest records one outbound request against the backend.
func (m *AppMetrics) RecordAPIRequest(ctx context.Context, method, operation string, status int, start time.Time) {
	if m == nil {
		return
	}
	duration := time.Since(start).Milliseconds()

	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("api.operation", operation),
		attribute.Int("http.status_code", status),
	}

	m.APIRequestsTotal.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
	if status == 0 || status >= 400 {
		m.APIRequestsErrors.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
	}
	m.APIRequestDuration.Record(ctx, float64(duration), metric.WithAttributes(m.WithServiceName(attrs)...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
// and returns a map of headers
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	pairs := strings.Split(headerStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}

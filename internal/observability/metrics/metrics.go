package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	pipelineRuns     metric.Int64Counter
	pipelineDuration metric.Float64Histogram
	emailDispatches  metric.Int64Counter
	loginAttempts    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "invoicedesk"
	}
	meter := provider.Meter(name)

	pipelineRuns, err := meter.Int64Counter("invoicedesk_pdf_pipeline_runs_total")
	if err != nil {
		return nil, err
	}
	pipelineDuration, err := meter.Float64Histogram("invoicedesk_pdf_pipeline_duration_seconds")
	if err != nil {
		return nil, err
	}
	emailDispatches, err := meter.Int64Counter("invoicedesk_email_dispatches_total")
	if err != nil {
		return nil, err
	}
	loginAttempts, err := meter.Int64Counter("invoicedesk_login_attempts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pipelineRuns:     pipelineRuns,
		pipelineDuration: pipelineDuration,
		emailDispatches:  emailDispatches,
		loginAttempts:    loginAttempts,
	}, nil
}

// RecordPipelineRun counts one pipeline invocation. stage is empty on success.
func (m *Metrics) RecordPipelineRun(ctx context.Context, stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if stage != "" {
		outcome = "failure"
	}
	attrs := FilterAttributes(
		attribute.String("outcome", outcome),
		attribute.String("stage", strings.TrimSpace(stage)),
	)
	m.pipelineRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.pipelineDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordEmailDispatch counts one send-email call and the attachments it carried.
func (m *Metrics) RecordEmailDispatch(ctx context.Context, outcome string, attachments int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.Int("attachments", attachments),
	)
	m.emailDispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLoginAttempt counts login attempts by outcome.
func (m *Metrics) RecordLoginAttempt(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.loginAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome":     {},
	"stage":       {},
	"endpoint":    {},
	"status_code": {},
	"attachments": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

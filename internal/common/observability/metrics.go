package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the otel meter and the service's instruments. A nil
// *Observability is a valid no-op recorder.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	llmCalls      otelmetric.Int64Counter
	llmDuration   otelmetric.Float64Histogram
	graphQueries  otelmetric.Int64Counter
	graphDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	llmCalls, _ := meter.Int64Counter(
		"llm.calls",
		otelmetric.WithDescription("Number of LLM provider calls"),
	)

	llmDuration, _ := meter.Float64Histogram(
		"llm.duration",
		otelmetric.WithDescription("LLM provider call duration"),
		otelmetric.WithUnit("ms"),
	)

	graphQueries, _ := meter.Int64Counter(
		"graph.queries",
		otelmetric.WithDescription("Number of graph store queries"),
	)

	graphDuration, _ := meter.Float64Histogram(
		"graph.query.duration",
		otelmetric.WithDescription("Graph store query duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		llmCalls:      llmCalls,
		llmDuration:   llmDuration,
		graphQueries:  graphQueries,
		graphDuration: graphDuration,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o == nil {
		return
	}
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o == nil {
		return
	}
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordLLMCall(ctx context.Context, provider, status string, duration time.Duration) {
	if o == nil {
		return
	}
	if o.llmCalls != nil {
		o.llmCalls.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		))
	}
	if o.llmDuration != nil {
		o.llmDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordGraphQuery(ctx context.Context, queryType, status string, duration time.Duration) {
	if o == nil {
		return
	}
	if o.graphQueries != nil {
		o.graphQueries.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("query_type", queryType),
			attribute.String("status", status),
		))
	}
	if o.graphDuration != nil {
		o.graphDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("query_type", queryType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}

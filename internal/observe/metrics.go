// Package observe содержит метрики клиента синтеза речи (OpenTelemetry) и
// мост в Prometheus для их экспорта.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "SupertonicClient"

// Границы гистограммы задержки синтеза, в секундах. Синтез на CPU: секунды, не миллисекунды.
var latencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Metrics инструменты метрик. Nil-получатель допустим: методы ничего не делают.
type Metrics struct {
	SynthesisDuration metric.Float64Histogram
	SynthesisRequests metric.Int64Counter
	SynthesisErrors   metric.Int64Counter
	AudioBytes        metric.Int64Histogram
	PlaybackLoads     metric.Int64Counter
}

// NewMetrics создаёт инструменты на заданном MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("supertonic.synthesis.duration",
		metric.WithDescription("Latency of a synthesis request, including body download."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisRequests, err = m.Int64Counter("supertonic.synthesis.requests",
		metric.WithDescription("Synthesis requests by backend, mode and outcome."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisErrors, err = m.Int64Counter("supertonic.synthesis.errors",
		metric.WithDescription("Synthesis errors by backend and error kind."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytes, err = m.Int64Histogram("supertonic.synthesis.audio_bytes",
		metric.WithDescription("Size of returned audio payloads."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.PlaybackLoads, err = m.Int64Counter("supertonic.playback.loads",
		metric.WithDescription("Audio payloads handed to the playback decoder by outcome."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordSynthesis фиксирует завершённый запрос синтеза. kind: класс ошибки или "" при успехе.
func (m *Metrics) RecordSynthesis(ctx context.Context, backend, mode string, took time.Duration, size int, kind string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if kind != "" {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	)
	m.SynthesisRequests.Add(ctx, 1, attrs)
	m.SynthesisDuration.Record(ctx, took.Seconds(), attrs)
	if kind != "" {
		m.SynthesisErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("kind", kind),
		))
		return
	}
	m.AudioBytes.Record(ctx, int64(size), metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordPlaybackLoad фиксирует попытку загрузки аудио в декодер.
func (m *Metrics) RecordPlaybackLoad(ctx context.Context, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.PlaybackLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

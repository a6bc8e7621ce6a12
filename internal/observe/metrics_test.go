package observe

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func sumOf(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				return 0, false
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total, true
		}
	}
	return 0, false
}

func TestRecordSynthesis(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSynthesis(ctx, "supertonic", "local", 2*time.Second, 1024, "")
	m.RecordSynthesis(ctx, "supertonic", "local", time.Second, 0, "server")

	rm := collect(t, reader)
	if got, ok := sumOf(rm, "supertonic.synthesis.requests"); !ok || got != 2 {
		t.Errorf("requests = %d (found=%v), want 2", got, ok)
	}
	if got, ok := sumOf(rm, "supertonic.synthesis.errors"); !ok || got != 1 {
		t.Errorf("errors = %d (found=%v), want 1", got, ok)
	}
}

func TestRecordPlaybackLoad(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordPlaybackLoad(ctx, nil)
	m.RecordPlaybackLoad(ctx, errors.New("bad header"))

	if got, ok := sumOf(collect(t, reader), "supertonic.playback.loads"); !ok || got != 2 {
		t.Errorf("loads = %d (found=%v), want 2", got, ok)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordSynthesis(context.Background(), "x", "local", time.Second, 1, "")
	m.RecordPlaybackLoad(context.Background(), nil)
}

package telemetry

import (
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
)

func TestServerExposesMetricsAndHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler, shutdown, err := observe.InitProvider(ctx, "supertonic-test", "test")
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	m, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		t.Fatal(err)
	}
	m.RecordSynthesis(ctx, "supertonic", "local", 1200*time.Millisecond, 4096, "")

	srv := NewServer(config.TelemetryConfig{BindAddr: "127.0.0.1:0"}, handler, func() map[string]any {
		return map[string]any{"player": "ready"}
	}, zaptest.NewLogger(t).Sugar())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = srv.Stop(context.Background()) }()
	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "supertonic_synthesis_requests_total") {
		t.Fatalf("status=%d body does not contain synthesis counter:\n%s", resp.StatusCode, body)
	}

	resp, err = http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" || health["player"] != "ready" {
		t.Errorf("health = %v", health)
	}

	resp, err = http.Post(base+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz status = %d", resp.StatusCode)
	}
}

func TestStartTwiceAndStopIdempotent(t *testing.T) {
	srv := NewServer(config.TelemetryConfig{BindAddr: "127.0.0.1:0"}, nil, nil, zaptest.NewLogger(t).Sugar())
	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatal(err)
	}
	addr := srv.Addr()
	if err := srv.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if srv.Addr() != addr {
		t.Errorf("second Start rebound to %s", srv.Addr())
	}
	if err := srv.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := srv.Stop(ctx); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

package main

import (
	"SupertonicClient/internal/app/screen"
	"SupertonicClient/internal/app/shell"
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/notify"
	"SupertonicClient/internal/service/telemetry"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/player"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
)

var version = "dev"

// Интерактивный клиент: форма ввода, синтез и воспроизведение из терминала.
func main() {
	cfg := config.NewConfig()

	logger, err := observe.NewLogger(cfg.DebugMode, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	// Graceful shutdown on Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Infow("Starting app",
		"version", version,
		"DebugMode", cfg.DebugMode,
		"service", cfg.TTSService,
		"mode", cfg.Mode,
	)

	var (
		metrics        *observe.Metrics
		metricsHandler http.Handler
	)
	if cfg.Telemetry.Enabled {
		h, shutdown, err := observe.InitProvider(ctx, "supertonic-client", version)
		if err != nil {
			sugar.Errorw("Failed to init metrics provider", "error", err)
			return
		}
		defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()
		if metrics, err = observe.NewMetrics(otel.GetMeterProvider()); err != nil {
			sugar.Errorw("Failed to create metrics", "error", err)
			return
		}
		metricsHandler = h
	}

	gender, err := tts.ParseGender(cfg.VoiceGender)
	if err != nil {
		sugar.Errorw("Invalid voice gender", "error", err)
		return
	}

	ep := cfg.Endpoint()
	ctrl := player.NewController(player.NewSpeaker(cfg.PlayerVolumeDB, cfg.PlayerTickInterval, sugar), sugar, metrics)
	defer func() { _ = ctrl.Close() }()

	scr := screen.New(
		screen.NewForm(gender, cfg.Quality, cfg.Speed),
		screen.NewSynthesizer(ctx, cfg, ep, sugar, metrics),
		ctrl,
		ep,
		notify.NewConsole(os.Stdout, sugar),
		sugar,
		cfg.RequestTimeout,
	)

	if cfg.Telemetry.Enabled {
		srv := telemetry.NewServer(cfg.Telemetry, metricsHandler, statusOf(scr), sugar)
		if err := srv.Start(ctx); err != nil {
			sugar.Errorw("Failed to start telemetry server", "error", err)
			return
		}
		defer func() { _ = srv.Stop(context.WithoutCancel(ctx)) }()
	}

	fmt.Println("Supertonic TTS client. Type help for commands.")
	sh := shell.New(scr, os.Stdout, cfg.DownloadDir, sugar)
	if err := sh.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("Shell stopped with error", "error", err)
	}
	sugar.Infow("Bye")
}

// statusOf отдаёт состояние экрана для /healthz.
func statusOf(scr *screen.Screen) telemetry.StatusFunc {
	return func() map[string]any {
		snap := scr.Controller().Snapshot()
		return map[string]any{
			"mode":        string(scr.Mode()),
			"loading":     scr.IsLoading(),
			"player":      snap.State.String(),
			"position_ms": snap.PositionMs,
			"duration_ms": snap.DurationMs,
		}
	}
}

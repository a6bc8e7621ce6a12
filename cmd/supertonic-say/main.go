package main

import (
	"SupertonicClient/internal/app/screen"
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/player"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// Утилита для однократного синтеза: текст из флага (или stdin при "-"), результат
// воспроизводится и/или сохраняется в файл.
func main() {
	var (
		text    string
		out     string
		play    bool
		dataURI bool
	)
	// Свои флаги регистрируем до config.NewConfig: он разбирает flag.CommandLine
	flag.StringVar(&text, "text", "Hello! This is Supertonic speaking.", "Текст для синтеза речи; \"-\": читать из stdin")
	flag.StringVar(&out, "out", "", "Файл или каталог для сохранения результата (пусто: не сохранять)")
	flag.BoolVar(&play, "play", true, "Сразу воспроизвести результат")
	flag.BoolVar(&dataURI, "data-uri", false, "Напечатать аудио как base64 data URI")

	cfg := config.NewConfig()

	logger, err := observe.NewLogger(cfg.DebugMode, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	if text == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Println("Не удалось прочитать stdin:", err)
			os.Exit(1)
		}
		text = strings.TrimRight(string(b), "\r\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gender, err := tts.ParseGender(cfg.VoiceGender)
	if err != nil {
		fmt.Println("Ошибка:", err)
		os.Exit(1)
	}
	form := screen.NewForm(gender, cfg.Quality, cfg.Speed)
	form.SetText(text)
	req := form.Request()

	ep := cfg.Endpoint()
	synth := screen.NewSynthesizer(ctx, cfg, ep, sugar, nil)

	reqCtx, cancel := context.WithTimeoutCause(ctx, cfg.RequestTimeout, errors.New("synthesis request timeout"))
	audio, err := synth.Synthesize(reqCtx, req)
	cancel()
	if err != nil {
		fmt.Println("Ошибка синтеза:", tts.UserMessage(err))
		os.Exit(1)
	}
	fmt.Printf("Получено %d байт (%s)\n", len(audio.Data), audio.MediaType())

	if dataURI {
		fmt.Println(audio.DataURI())
	}

	if out != "" {
		path := out
		if st, err := os.Stat(out); err == nil && st.IsDir() {
			path = filepath.Join(out, fmt.Sprintf("supertonic-speech-%d%s", time.Now().UnixMilli(), audio.Extension()))
		}
		if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
			fmt.Println("Не удалось сохранить файл:", err)
			os.Exit(1)
		}
		fmt.Println("Аудио сохранено в", path)
	}

	if !play {
		return
	}
	ctrl := player.NewController(player.NewSpeaker(cfg.PlayerVolumeDB, cfg.PlayerTickInterval, sugar), sugar, nil)
	defer func() { _ = ctrl.Close() }()
	if err := ctrl.Load(ctx, audio); err != nil {
		fmt.Println("Ошибка воспроизведения:", tts.UserMessage(err))
		os.Exit(1)
	}
	if err := ctrl.Play(); err != nil {
		fmt.Println("Ошибка воспроизведения:", err)
		os.Exit(1)
	}
	waitFinished(ctx, ctrl, cfg.PlayerTickInterval)
}

// waitFinished ждёт окончания воспроизведения или отмены контекста.
func waitFinished(ctx context.Context, ctrl *player.Controller, tick time.Duration) {
	if tick <= 0 {
		tick = 250 * time.Millisecond
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			snap := ctrl.Snapshot()
			if snap.State != player.StatePlaying {
				fmt.Printf("\r%s / %s\n", player.FormatTime(snap.PositionMs), player.FormatTime(snap.DurationMs))
				return
			}
			fmt.Printf("\r%s / %s", player.FormatTime(snap.PositionMs), player.FormatTime(snap.DurationMs))
		}
	}
}

package main

import (
	"SupertonicClient/internal/app/screen"
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/supertonic"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

// Небольшая утилита: печатает список голосов настроенного бэкенда (и его состояние для Supertonic).
func main() {
	var health bool
	flag.BoolVar(&health, "health", false, "Дополнительно запросить состояние бэкенда (только supertonic)")

	cfg := config.NewConfig()

	logger, err := observe.NewLogger(cfg.DebugMode, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	// Подготовим контекст с таймаутом.
	ctx, cancel := context.WithTimeoutCause(context.Background(), 15*time.Second, errors.New("voices request timeout"))
	defer cancel()

	synth := screen.NewSynthesizer(ctx, cfg, cfg.Endpoint(), sugar, nil)

	if health {
		sc, ok := synth.(*supertonic.Client)
		if !ok {
			fmt.Println("проверка состояния поддерживается только для supertonic")
			os.Exit(1)
		}
		h, err := sc.Health(ctx)
		if err != nil {
			fmt.Println("бэкенд недоступен:", tts.UserMessage(err))
			os.Exit(1)
		}
		fmt.Printf("%s: %s (models loaded: %t)\n", h.Status, h.Message, h.ModelsLoaded)
	}

	voices, err := synth.ListVoices(ctx)
	if err != nil {
		fmt.Println("не удалось получить список голосов:", tts.UserMessage(err))
		os.Exit(1)
	}

	// Успех: выводим JSON с голосами
	b, err := json.MarshalIndent(struct {
		Voices []tts.Voice `json:"voices"`
	}{voices}, "", "  ")
	if err != nil {
		fmt.Println("не удалось сериализовать ответ:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}

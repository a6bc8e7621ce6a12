package tts

import "context"

// Synthesizer абстракция TTS-бэкенда. Один вызов Synthesize: ровно один запрос к бэкенду;
// результат: непрозрачное аудио, которое клиент не разбирает.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Audio, error)
	ListVoices(ctx context.Context) ([]Voice, error)
}

// Voice описание голоса, как его отдаёт бэкенд.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

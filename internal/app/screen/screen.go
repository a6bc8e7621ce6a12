package screen

import (
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/service/notify"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/player"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrBusy возвращается, если Generate вызван во время уже идущего запроса.
	ErrBusy = errors.New("screen: generation already in progress")
	// ErrNoAudio нечего сохранять: аудио ещё не сгенерировано.
	ErrNoAudio = errors.New("screen: no generated audio")
)

const defaultTimeout = 120 * time.Second

// Screen связывает форму ввода, клиент синтеза и контроллер воспроизведения.
// Одновременно выполняется не больше одного запроса синтеза.
type Screen struct {
	form     *Form
	synth    tts.Synthesizer
	ctrl     *player.Controller
	endpoint *config.Endpoint
	notifier notify.Notifier
	logger   *zap.SugaredLogger
	timeout  time.Duration

	loading atomic.Bool

	mu    sync.Mutex
	audio tts.Audio

	now func() time.Time
}

func New(form *Form, synth tts.Synthesizer, ctrl *player.Controller, endpoint *config.Endpoint,
	notifier notify.Notifier, logger *zap.SugaredLogger, timeout time.Duration) *Screen {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Screen{
		form:     form,
		synth:    synth,
		ctrl:     ctrl,
		endpoint: endpoint,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (s *Screen) Form() *Form { return s.form }
func (s *Screen) Controller() *player.Controller { return s.ctrl }
func (s *Screen) Synthesizer() tts.Synthesizer { return s.synth }
func (s *Screen) IsLoading() bool { return s.loading.Load() }

// Audio последний полученный от бэкенда payload.
func (s *Screen) Audio() tts.Audio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// Generate выполняет один цикл: проверка, один запрос к бэкенду, загрузка в плеер.
// Пока предыдущий вызов не завершён, повторный ничего не делает и возвращает ErrBusy.
// Любая ошибка превращается в уведомление и возвращается вызывающему.
func (s *Screen) Generate(ctx context.Context) error {
	if !s.loading.CompareAndSwap(false, true) {
		s.logger.Infow("Skipping generate due to request in flight")
		return ErrBusy
	}
	defer s.loading.Store(false)

	req := s.form.Request()
	if err := req.Validate(); err != nil {
		s.report(ctx, err)
		return err
	}

	// Предыдущая сессия воспроизведения освобождается до нового запроса
	if err := s.ctrl.Close(); err != nil {
		s.logger.Warnw("Failed to release previous playback", "error", err)
	}
	s.mu.Lock()
	s.audio = tts.Audio{}
	s.mu.Unlock()

	reqCtx, cancel := context.WithTimeoutCause(ctx, s.timeout, errors.New("synthesis request timeout"))
	defer cancel()

	start := time.Now()
	audio, err := s.synth.Synthesize(reqCtx, req)
	if err != nil {
		s.report(ctx, err)
		return err
	}

	s.mu.Lock()
	s.audio = audio
	s.mu.Unlock()

	if err := s.ctrl.Load(ctx, audio); err != nil {
		s.report(ctx, err)
		return err
	}
	s.logger.Infow("Speech generated",
		"voice", req.VoiceStyle,
		"steps", req.TotalStep,
		"speed", req.Speed,
		"bytes", len(audio.Data),
		"took", time.Since(start).String(),
	)
	return nil
}

// Save записывает последнее аудио в dir под именем supertonic-speech-<unixms><ext>.
func (s *Screen) Save(dir string) (string, error) {
	audio := s.Audio()
	if audio.Empty() {
		return "", ErrNoAudio
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save audio: %w", err)
	}
	name := fmt.Sprintf("supertonic-speech-%d%s", s.now().UnixMilli(), audio.Extension())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
		return "", fmt.Errorf("save audio: %w", err)
	}
	s.logger.Infow("Audio saved", "path", path, "bytes", len(audio.Data))
	return path, nil
}

// Mode текущий режим бэкенда.
func (s *Screen) Mode() config.Mode {
	if s.endpoint == nil {
		return ""
	}
	return s.endpoint.Mode()
}

// SetMode переключает режим; следующий запрос уйдёт на адрес нового режима.
func (s *Screen) SetMode(m config.Mode) {
	if s.endpoint == nil {
		return
	}
	s.endpoint.SetMode(m)
	s.logger.Infow("Mode switched", "mode", m, "base_url", s.endpoint.BaseURL())
}

func (s *Screen) report(ctx context.Context, err error) {
	n := notify.FromError(err)
	s.logger.Warnw("Generate failed", "title", n.Title, "error", err)
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

package player

import (
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/tts"
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Если при нажатии Play позиция ближе к концу, чем на replayThresholdMs, воспроизведение начинается сначала.
const replayThresholdMs = 100

// ErrNotReady: команда транспорта без загруженного аудио.
var ErrNotReady = errors.New("player: no audio loaded")

// State состояние контроллера воспроизведения.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	// StateFinished разновидность Ready после конца трека: isPlaying=false, позиция равна
	// длительности, Play доступен и начинает сначала.
	StateFinished
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot согласованный срез состояния контроллера.
type Snapshot struct {
	State      State
	PositionMs int64
	DurationMs int64
	IsPlaying  bool
	Err        error
}

// CanPlay сообщает, доступна ли кнопка Play.
func (s Snapshot) CanPlay() bool {
	return s.State == StateReady || s.State == StateFinished
}

// Controller машина состояний воспроизведения поверх платформенного Backend.
// Владеет единственным загруженным ресурсом; новая загрузка сначала освобождает предыдущий.
type Controller struct {
	backend Backend
	logger  *zap.SugaredLogger
	metrics *observe.Metrics

	mu         sync.Mutex
	gen        uint64 // поколение загрузки; статусы от старых загрузок игнорируются
	seeks      uint64 // перемотки текущей загрузки; сверяется с Status.Seeks
	loaded     bool
	state      State
	positionMs int64
	durationMs int64
	isPlaying  bool
	err        error
}

func NewController(b Backend, logger *zap.SugaredLogger, m *observe.Metrics) *Controller {
	return &Controller{backend: b, logger: logger, metrics: m, state: StateIdle}
}

// Load передаёт аудио декодеру. Предыдущий ресурс освобождается до загрузки нового.
// При ошибке контроллер переходит в StateError. Ошибки декодера приходят как tts.KindDecode,
// прочие отказы бэкенда (нет устройства вывода) возвращаются как tts.KindPlayback.
func (c *Controller) Load(ctx context.Context, audio tts.Audio) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseLocked()
	c.gen++
	gen := c.gen
	c.seeks = 0
	c.state = StateLoading
	c.positionMs, c.durationMs, c.isPlaying, c.err = 0, 0, false, nil

	var err error
	if audio.Empty() {
		err = tts.Decode(errors.New("empty audio payload"))
	} else {
		err = c.backend.Load(audio, func(st Status) { c.onStatus(gen, st) })
	}
	c.metrics.RecordPlaybackLoad(ctx, err)
	if err != nil {
		if tts.KindOf(err) == 0 {
			err = tts.Playback(err)
		}
		// Бэкенд мог успеть выделить ресурсы до ошибки
		if uerr := c.backend.Unload(); uerr != nil && c.logger != nil {
			c.logger.Warnw("Failed to release audio after load error", "error", uerr)
		}
		c.state = StateError
		c.err = err
		if c.logger != nil {
			c.logger.Errorw("Audio load failed", "bytes", len(audio.Data), "content_type", audio.ContentType, "kind", tts.KindOf(err).String(), "error", err)
		}
		return err
	}

	c.loaded = true
	c.state = StateReady
	c.durationMs = c.backend.Duration()
	if c.logger != nil {
		c.logger.Infow("Audio loaded", "duration", FormatTime(c.durationMs), "bytes", len(audio.Data))
	}
	return nil
}

// Play запускает воспроизведение. Если позиция в конце (не дальше 100мс), сначала перематывает на 0.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StatePlaying:
		return nil
	case StateReady, StateFinished:
	default:
		return ErrNotReady
	}

	if c.positionMs >= c.durationMs-replayThresholdMs {
		if err := c.backend.Seek(0); err != nil {
			return err
		}
		c.seeks++
		c.positionMs = 0
	}
	if err := c.backend.Play(); err != nil {
		return err
	}
	c.isPlaying = true
	c.state = StatePlaying
	return nil
}

// Pause ставит на паузу; вне воспроизведения ничего не делает.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return nil
	}
	if err := c.backend.Pause(); err != nil {
		return err
	}
	c.isPlaying = false
	c.state = StateReady
	if pos := c.backend.Position(); pos >= 0 {
		c.positionMs = pos
	}
	return nil
}

// Toggle: Play или Pause в зависимости от текущего состояния.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	playing := c.isPlaying
	c.mu.Unlock()
	if playing {
		return c.Pause()
	}
	return c.Play()
}

// Seek перематывает на ms. Позиция обновляется сразу, не дожидаясь статуса от бэкенда.
func (c *Controller) Seek(ms int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateReady, StatePlaying, StateFinished:
	default:
		return ErrNotReady
	}
	ms = max(0, ms)
	if c.durationMs > 0 {
		ms = min(ms, c.durationMs)
	}
	if err := c.backend.Seek(ms); err != nil {
		return err
	}
	c.seeks++
	c.positionMs = ms
	if c.state == StateFinished {
		c.state = StateReady
	}
	return nil
}

// Close освобождает ресурс и возвращает контроллер в Idle.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.releaseLocked()
	c.state = StateIdle
	c.positionMs, c.durationMs, c.isPlaying, c.err = 0, 0, false, nil
	return nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:      c.state,
		PositionMs: c.positionMs,
		DurationMs: c.durationMs,
		IsPlaying:  c.isPlaying,
		Err:        c.err,
	}
}

func (c *Controller) State() State { return c.Snapshot().State }

func (c *Controller) releaseLocked() {
	if !c.loaded {
		return
	}
	if err := c.backend.Unload(); err != nil && c.logger != nil {
		c.logger.Warnw("Failed to unload audio", "error", err)
	}
	c.loaded = false
}

func (c *Controller) onStatus(gen uint64, st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || !c.loaded {
		return
	}
	if st.DurationMs > 0 {
		c.durationMs = st.DurationMs
	}
	// Вне воспроизведения позицией управляют команды (Seek/Pause), а не тики
	if c.state != StatePlaying {
		return
	}
	// Конец трека принимаем всегда: поток уже выпал из вывода
	if st.DidJustFinish {
		c.finishLocked()
		return
	}
	// Позиция снята до последней перемотки
	if st.Seeks != c.seeks {
		return
	}
	c.positionMs = max(0, st.PositionMs)
	if c.durationMs > 0 && c.positionMs >= c.durationMs {
		c.finishLocked()
	}
}

func (c *Controller) finishLocked() {
	c.isPlaying = false
	c.state = StateFinished
	if c.durationMs > 0 {
		c.positionMs = c.durationMs
	}
}

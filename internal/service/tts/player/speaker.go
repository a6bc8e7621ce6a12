package player

import (
	"SupertonicClient/internal/service/tts"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"
)

const defaultTick = 250 * time.Millisecond

var _ Backend = (*Speaker)(nil)

// Speaker реализует Backend поверх beep/speaker: декодирует wav и mp3 целиком из памяти
// и играет через системное аудиоустройство.
type Speaker struct {
	volumeDB float64
	tick     time.Duration
	logger   *zap.SugaredLogger

	mu         sync.Mutex
	sampleRate beep.SampleRate // частота, с которой инициализирован speaker
	stream     beep.StreamSeekCloser
	format     beep.Format
	ctrl       *beep.Ctrl
	attached   bool // поток сейчас в микшере speaker
	onStatus   func(Status)
	stop       chan struct{}
	gen        uint64
	seeks      uint64
}

// NewSpeaker создаёт бэкенд с громкостью volumeDB (отрицательные: тише) и периодом статусов tick.
func NewSpeaker(volumeDB float64, tick time.Duration, logger *zap.SugaredLogger) *Speaker {
	if tick <= 0 {
		tick = defaultTick
	}
	return &Speaker{volumeDB: volumeDB, tick: tick, logger: logger}
}

func (s *Speaker) Load(audio tts.Audio, onStatus func(Status)) error {
	stream, format, err := decode(audio)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		s.unloadLocked()
	}
	if s.sampleRate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			_ = stream.Close()
			return tts.Playback(fmt.Errorf("speaker init: %w", err))
		}
		s.sampleRate = format.SampleRate
	}

	vol := &effects.Volume{
		Streamer: stream,
		Base:     2,
		Volume:   s.volumeDB,
		Silent:   false,
	}
	s.gen++
	s.stream = stream
	s.format = format
	s.ctrl = &beep.Ctrl{Streamer: vol, Paused: true}
	s.attached = false
	s.seeks = 0
	s.onStatus = onStatus
	s.stop = make(chan struct{})
	go s.report(s.stop)
	return nil
}

func (s *Speaker) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotReady
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	if !s.attached {
		gen := s.gen
		// Колбэк вызывается под блокировкой speaker, поэтому уходим в отдельную горутину
		speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() { go s.finished(gen) })))
		s.attached = true
	}
	return nil
}

func (s *Speaker) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotReady
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (s *Speaker) Seek(ms int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return ErrNotReady
	}
	n := s.format.SampleRate.N(time.Duration(ms) * time.Millisecond)
	speaker.Lock()
	defer speaker.Unlock()
	n = min(max(n, 0), s.stream.Len())
	if err := s.stream.Seek(n); err != nil {
		return err
	}
	s.seeks++
	return nil
}

func (s *Speaker) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return 0
	}
	speaker.Lock()
	p := s.stream.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(p).Milliseconds()
}

func (s *Speaker) Duration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return 0
	}
	return s.format.SampleRate.D(s.stream.Len()).Milliseconds()
}

// Unload останавливает вывод и закрывает декодер. Повторный вызов безопасен.
func (s *Speaker) Unload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloadLocked()
}

func (s *Speaker) unloadLocked() error {
	if s.stream == nil {
		return nil
	}
	// Горутину статусов не ждём: она может стоять на блокировке контроллера
	close(s.stop)
	s.gen++
	speaker.Clear()
	err := s.stream.Close()
	s.stream, s.ctrl, s.onStatus, s.stop = nil, nil, nil, nil
	s.attached = false
	return err
}

func (s *Speaker) report(stop <-chan struct{}) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		s.mu.Lock()
		if s.stream == nil || !s.attached {
			s.mu.Unlock()
			continue
		}
		speaker.Lock()
		playing := !s.ctrl.Paused
		pos := s.stream.Position()
		speaker.Unlock()
		cb := s.onStatus
		st := Status{
			PositionMs: s.format.SampleRate.D(pos).Milliseconds(),
			DurationMs: s.format.SampleRate.D(s.stream.Len()).Milliseconds(),
			IsPlaying:  playing,
			Seeks:      s.seeks,
		}
		s.mu.Unlock()

		select {
		case <-stop:
			return
		default:
		}
		if playing && cb != nil {
			cb(st)
		}
	}
}

func (s *Speaker) finished(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stream == nil {
		s.mu.Unlock()
		return
	}
	// Поток выпал из микшера; следующий Play добавит его снова
	s.attached = false
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	dur := s.format.SampleRate.D(s.stream.Len()).Milliseconds()
	seeks := s.seeks
	cb := s.onStatus
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debugw("Playback finished", "duration", FormatTime(dur))
	}
	if cb != nil {
		cb(Status{PositionMs: dur, DurationMs: dur, DidJustFinish: true, Seeks: seeks})
	}
}

// readSeekNopCloser нужен go-mp3: перемотка работает только поверх io.Seeker.
type readSeekNopCloser struct{ *bytes.Reader }

func (readSeekNopCloser) Close() error { return nil }

type audioFormat int

const (
	formatUnknown audioFormat = iota
	formatWAV
	formatMP3
)

// sniff определяет контейнер по сигнатуре, а при её отсутствии по Content-Type.
func sniff(a tts.Audio) audioFormat {
	b := a.Data
	switch {
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE":
		return formatWAV
	case len(b) >= 3 && string(b[0:3]) == "ID3":
		return formatMP3
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return formatMP3
	}
	switch ct := strings.ToLower(a.MediaType()); {
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return formatMP3
	case strings.Contains(ct, "wav"):
		return formatWAV
	}
	return formatUnknown
}

func decode(a tts.Audio) (beep.StreamSeekCloser, beep.Format, error) {
	if a.Empty() {
		return nil, beep.Format{}, tts.Decode(errors.New("empty audio payload"))
	}
	r := readSeekNopCloser{bytes.NewReader(a.Data)}
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch sniff(a) {
	case formatWAV:
		stream, format, err = wav.Decode(r)
	case formatMP3:
		stream, format, err = mp3.Decode(r)
	default:
		err = fmt.Errorf("unsupported audio format %q", a.ContentType)
	}
	if err != nil {
		return nil, beep.Format{}, tts.Decode(err)
	}
	return stream, format, nil
}

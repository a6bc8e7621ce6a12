package shell

import (
	"SupertonicClient/internal/app/screen"
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/player"
	"SupertonicClient/internal/service/tts/supertonic"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const prompt = "> "

const helpText = `Commands:
  text <words...>       set the text to synthesize
  voice female|male     choose the voice
  quality <5..15>       inference steps
  speed <0.9..1.5>      speech length factor (step 0.05)
  mode local|cloud      switch backend
  generate              synthesize the current text (runs in background)
  play | pause | toggle playback transport
  seek <m:ss|ms>        jump to position
  status                show form and playback state
  save [dir]            write the last audio to a file
  voices                list backend voices
  health                check backend health
  help                  show this help
  quit                  exit`

// ErrUnknownCommand неизвестная команда.
var ErrUnknownCommand = errors.New("unknown command")

// healthChecker бэкенды, которые умеют сообщать о своём состоянии.
type healthChecker interface {
	Health(ctx context.Context) (supertonic.Health, error)
}

// Shell построчный интерфейс к Screen, одна строка на команду.
type Shell struct {
	screen  *screen.Screen
	logger  *zap.SugaredLogger
	saveDir string

	mu  sync.Mutex
	out io.Writer

	wg sync.WaitGroup
}

func New(s *screen.Screen, out io.Writer, saveDir string, logger *zap.SugaredLogger) *Shell {
	return &Shell{screen: s, out: out, saveDir: saveDir, logger: logger}
}

// Run читает команды из in до quit, EOF или отмены контекста.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 64<<10), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	sh.printf("%s", prompt)
	for {
		select {
		case <-ctx.Done():
			sh.Wait()
			return context.Cause(ctx)
		case line, ok := <-lines:
			if !ok {
				sh.Wait()
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit, err := sh.Exec(ctx, line)
			if err != nil {
				sh.printf("error: %v\n", err)
			}
			if quit {
				sh.Wait()
				return nil
			}
			sh.printf("%s", prompt)
		}
	}
}

// Wait дожидается фоновой генерации.
func (sh *Shell) Wait() { sh.wg.Wait() }

// Exec выполняет одну команду. quit=true: пользователь попросил выйти.
func (sh *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	form := sh.screen.Form()
	ctrl := sh.screen.Controller()
	sh.logger.Debugw("Shell command", "cmd", cmd)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return true, nil
	case "help":
		sh.printf("%s\n", helpText)
	case "text":
		form.SetText(rest)
		sh.printf("text set (%d characters)\n", tts.TextLength(rest))
	case "voice":
		g, err := tts.ParseGender(rest)
		if err != nil {
			return false, err
		}
		form.SetGender(g)
		sh.printf("voice %s (%s)\n", g, tts.StyleFor(g))
	case "quality":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return false, fmt.Errorf("quality: %w", err)
		}
		sh.printf("quality %d\n", form.SetQuality(n))
	case "speed":
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return false, fmt.Errorf("speed: %w", err)
		}
		sh.printf("speed %s\n", strconv.FormatFloat(form.SetSpeed(v), 'f', 2, 64))
	case "mode":
		m, err := config.ParseMode(rest)
		if err != nil {
			return false, err
		}
		sh.screen.SetMode(m)
		sh.printf("mode %s\n", m)
	case "generate", "gen":
		sh.generate(ctx)
	case "play":
		return false, ctrl.Play()
	case "pause":
		return false, ctrl.Pause()
	case "toggle":
		return false, ctrl.Toggle()
	case "seek":
		ms, err := ParsePosition(rest)
		if err != nil {
			return false, err
		}
		return false, ctrl.Seek(ms)
	case "status":
		sh.status()
	case "save":
		dir := rest
		if dir == "" {
			dir = sh.saveDir
		}
		path, err := sh.screen.Save(dir)
		if err != nil {
			return false, err
		}
		sh.printf("saved %s\n", path)
	case "voices":
		voices, err := sh.screen.Synthesizer().ListVoices(ctx)
		if err != nil {
			return false, errors.New(tts.UserMessage(err))
		}
		for _, v := range voices {
			sh.printf("%-20s %s\n", v.ID, v.Gender)
		}
	case "health":
		hc, ok := sh.screen.Synthesizer().(healthChecker)
		if !ok {
			return false, errors.New("health check is not supported by this backend")
		}
		h, err := hc.Health(ctx)
		if err != nil {
			return false, errors.New(tts.UserMessage(err))
		}
		sh.printf("%s (models loaded: %t) %s\n", h.Status, h.ModelsLoaded, h.Message)
	default:
		return false, fmt.Errorf("%w %q, type help", ErrUnknownCommand, cmd)
	}
	return false, nil
}

// generate запускает синтез в фоне, чтобы во время запроса можно было смотреть status.
func (sh *Shell) generate(ctx context.Context) {
	if sh.screen.IsLoading() {
		sh.printf("already generating\n")
		return
	}
	sh.printf("generating...\n")
	sh.wg.Add(1)
	go func() {
		defer sh.wg.Done()
		err := sh.screen.Generate(ctx)
		switch {
		case errors.Is(err, screen.ErrBusy):
			sh.printf("already generating\n")
		case err == nil:
			snap := sh.screen.Controller().Snapshot()
			sh.printf("ready %s, type play\n", player.FormatTime(snap.DurationMs))
		}
		// Остальные ошибки уже показаны уведомлением
	}()
}

func (sh *Shell) status() {
	form := sh.screen.Form()
	snap := sh.screen.Controller().Snapshot()
	sh.printf("mode=%s voice=%s quality=%d speed=%s\n",
		sh.screen.Mode(), form.Gender(), form.Quality(), strconv.FormatFloat(form.Speed(), 'f', 2, 64))
	line := fmt.Sprintf("%s %s/%s", snap.State, player.FormatTime(snap.PositionMs), player.FormatTime(snap.DurationMs))
	if sh.screen.IsLoading() {
		line += " (generating)"
	}
	if snap.Err != nil {
		line += " error: " + tts.UserMessage(snap.Err)
	}
	sh.printf("%s\n", line)
}

func (sh *Shell) printf(format string, args ...any) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, _ = fmt.Fprintf(sh.out, format, args...)
}

// ParsePosition разбирает позицию как m:ss или как число миллисекунд.
func ParsePosition(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if m, sec, ok := strings.Cut(s, ":"); ok {
		mi, err1 := strconv.Atoi(m)
		si, err2 := strconv.Atoi(sec)
		if err1 != nil || err2 != nil || mi < 0 || si < 0 || si >= 60 {
			return 0, fmt.Errorf("seek: bad position %q (m:ss or ms)", s)
		}
		return (time.Duration(mi)*time.Minute + time.Duration(si)*time.Second).Milliseconds(), nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("seek: bad position %q (m:ss or ms)", s)
	}
	return ms, nil
}

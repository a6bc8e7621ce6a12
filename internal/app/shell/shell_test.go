package shell

import (
	"SupertonicClient/internal/app/screen"
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/service/notify"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/player"
	"SupertonicClient/internal/service/tts/supertonic"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type safeBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *safeBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// silentBackend Backend без звука с длительностью 3 секунды.
type silentBackend struct{}

func (silentBackend) Load(tts.Audio, func(player.Status)) error { return nil }
func (silentBackend) Play() error { return nil }
func (silentBackend) Pause() error { return nil }
func (silentBackend) Seek(int64) error { return nil }
func (silentBackend) Position() int64 { return 0 }
func (silentBackend) Duration() int64 { return 3000 }
func (silentBackend) Unload() error { return nil }

// newBackendServer поднимает фейковый Supertonic: аудио на /api/tts, голоса и здоровье.
func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tts":
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write([]byte("RIFF----WAVE"))
		case "/api/voices":
			_, _ = w.Write([]byte(`{"voices":[{"id":"F1","name":"F1","gender":"Female"}]}`))
		case "/":
			_, _ = w.Write([]byte(`{"message":"Supertonic TTS API is running","status":"healthy","models_loaded":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newShell(t *testing.T, baseURL string) (*Shell, *screen.Screen, *safeBuffer) {
	t.Helper()
	logger := zaptest.NewLogger(t).Sugar()
	out := &safeBuffer{}
	ep := config.NewEndpoint(config.ModeLocal, baseURL, "http://cloud.invalid")
	scr := screen.New(
		screen.NewForm(tts.Female, 5, 1.05),
		supertonic.New(ep, logger),
		player.NewController(silentBackend{}, logger, nil),
		ep,
		notify.NewConsole(out, logger),
		logger,
		time.Second,
	)
	return New(scr, out, t.TempDir(), logger), scr, out
}

func exec(t *testing.T, sh *Shell, line string) {
	t.Helper()
	if _, err := sh.Exec(context.Background(), line); err != nil {
		t.Fatalf("%q: %v", line, err)
	}
}

func TestFormCommands(t *testing.T) {
	sh, scr, out := newShell(t, "http://127.0.0.1:1")
	exec(t, sh, "text  Hello   there ")
	exec(t, sh, "voice male")
	exec(t, sh, "quality 20")
	exec(t, sh, "speed 1.07")

	r := scr.Form().Request()
	if r.Text != "Hello   there" || r.VoiceStyle != tts.StyleM1 || r.TotalStep != 15 || r.Speed != 1.05 {
		t.Errorf("request = %+v", r)
	}
	for _, want := range []string{"quality 15", "speed 1.05", "voice male (M1)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestGeneratePlaySeekStatus(t *testing.T) {
	srv := newBackendServer(t)
	sh, scr, out := newShell(t, srv.URL)

	exec(t, sh, "text Hello world")
	exec(t, sh, "generate")
	sh.Wait()
	if !strings.Contains(out.String(), "ready 0:03") {
		t.Fatalf("output:\n%s", out.String())
	}

	exec(t, sh, "play")
	if s := scr.Controller().Snapshot(); s.State != player.StatePlaying {
		t.Fatalf("state = %v", s.State)
	}
	exec(t, sh, "pause")
	exec(t, sh, "seek 0:02")
	exec(t, sh, "status")
	if !strings.Contains(out.String(), "ready 0:02/0:03") {
		t.Errorf("status output:\n%s", out.String())
	}

	exec(t, sh, "save")
	if !strings.Contains(out.String(), "supertonic-speech-") {
		t.Errorf("save output:\n%s", out.String())
	}
}

func TestGenerateValidationNotifies(t *testing.T) {
	srv := newBackendServer(t)
	sh, _, out := newShell(t, srv.URL)
	exec(t, sh, "generate")
	sh.Wait()
	if !strings.Contains(out.String(), "[Error] Please enter some text") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestVoicesHealthAndMode(t *testing.T) {
	srv := newBackendServer(t)
	sh, scr, out := newShell(t, srv.URL)
	exec(t, sh, "voices")
	exec(t, sh, "health")
	exec(t, sh, "mode cloud")
	if scr.Mode() != config.ModeCloud {
		t.Errorf("mode = %v", scr.Mode())
	}
	for _, want := range []string{"F1", "healthy (models loaded: true)", "mode cloud"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestExecErrors(t *testing.T) {
	sh, _, _ := newShell(t, "http://127.0.0.1:1")
	if _, err := sh.Exec(context.Background(), "dance"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown = %v", err)
	}
	if _, err := sh.Exec(context.Background(), "play"); !errors.Is(err, player.ErrNotReady) {
		t.Errorf("play without audio = %v", err)
	}
	if _, err := sh.Exec(context.Background(), "voice robot"); err == nil {
		t.Error("expected error for unknown voice")
	}
	if _, err := sh.Exec(context.Background(), "save"); !errors.Is(err, screen.ErrNoAudio) {
		t.Errorf("save = %v", err)
	}
	if quit, _ := sh.Exec(context.Background(), "quit"); !quit {
		t.Error("quit did not request exit")
	}
}

func TestRunReadsUntilQuit(t *testing.T) {
	sh, scr, out := newShell(t, "http://127.0.0.1:1")
	in := strings.NewReader("text hi\nbogus\nquit\ntext never\n")
	if err := sh.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if scr.Form().Text() != "hi" {
		t.Errorf("text = %q", scr.Form().Text())
	}
	if !strings.Contains(out.String(), "error: unknown command") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		err  bool
	}{
		{"1:05", 65000, false},
		{"0:00", 0, false},
		{"2500", 2500, false},
		{"1:75", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("ParsePosition(%q) = %d, %v", tt.in, got, err)
		}
	}
}

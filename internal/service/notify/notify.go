package notify

import (
	"SupertonicClient/internal/service/tts"
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Заголовки уведомлений об ошибках.
const (
	TitleError            = "Error"
	TitleGenerationFailed = "Generation Failed"
	TitlePlaybackFailed   = "Playback Failed"
)

// Notification сообщение, видимое пользователю.
type Notification struct {
	Title   string
	Message string
	Kind    tts.Kind // 0 для информационных сообщений
}

func (n Notification) String() string { return n.Title + ": " + n.Message }

// Notifier доставляет уведомления пользователю.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// FromError переводит ошибку синтеза или воспроизведения в уведомление.
// Текст берётся из tts.UserMessage, поэтому detail бэкенда показывается как есть.
func FromError(err error) Notification {
	kind := tts.KindOf(err)
	title := TitleGenerationFailed
	switch kind {
	case tts.KindValidation:
		title = TitleError
	case tts.KindDecode, tts.KindPlayback:
		title = TitlePlaybackFailed
	}
	return Notification{Title: title, Message: tts.UserMessage(err), Kind: kind}
}

// Info информационное уведомление.
func Info(title, msg string) Notification { return Notification{Title: title, Message: msg} }

// Console печатает уведомления в терминал и дублирует их в лог.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.SugaredLogger
}

func NewConsole(out io.Writer, logger *zap.SugaredLogger) *Console {
	return &Console{out: out, logger: logger}
}

func (c *Console) Notify(_ context.Context, n Notification) {
	if c.logger != nil {
		if n.Kind != 0 {
			c.logger.Warnw("Notification", "title", n.Title, "message", n.Message, "kind", n.Kind.String())
		} else {
			c.logger.Infow("Notification", "title", n.Title, "message", n.Message)
		}
	}
	if c.out == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, "[%s] %s\n", n.Title, n.Message)
}

// Recorder запоминает уведомления; удобен в тестах и для вывода последней ошибки.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Multi рассылает уведомление нескольким получателям.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, x := range m {
		x.Notify(ctx, n)
	}
}

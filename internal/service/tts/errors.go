package tts

import (
	"errors"
	"fmt"
)

// GenericFailure сообщение по умолчанию, когда бэкенд не объяснил причину.
const GenericFailure = "Failed to generate speech"

// Kind класс ошибки синтеза/воспроизведения.
type Kind int

const (
	KindValidation Kind = iota + 1 // пустой или слишком длинный текст, параметры вне диапазона
	KindTransport                  // сеть недоступна, таймаут, битый ответ
	KindServer                     // не-2xx ответ бэкенда
	KindDecode                     // аудио не удалось декодировать
	KindPlayback                   // аудио корректно, но вывод звука недоступен
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	case KindPlayback:
		return "playback"
	default:
		return "unknown"
	}
}

// Error типизированная ошибка. Message показывается пользователю как есть.
type Error struct {
	Kind    Kind
	Message string
	Status  int // HTTP-статус для KindServer, иначе 0
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func Transport(msg string, err error) error {
	return &Error{Kind: KindTransport, Message: msg, Err: err}
}

func Server(status int, msg string) error {
	return &Error{Kind: KindServer, Message: msg, Status: status}
}

func Decode(err error) error {
	return &Error{Kind: KindDecode, Message: "Generated audio could not be decoded", Err: err}
}

// Playback ошибка устройства вывода: данные в порядке, проблема на стороне клиента.
func Playback(err error) error {
	return &Error{Kind: KindPlayback, Message: "Audio output is unavailable", Err: err}
}

// IsKind сообщает, является ли err ошибкой указанного класса.
func IsKind(err error, k Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == k
}

// KindOf возвращает класс ошибки; для нетипизированных ошибок: 0.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

// UserMessage строка для показа пользователю. Для нетипизированных ошибок: общий текст.
func UserMessage(err error) string {
	var te *Error
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return GenericFailure
}

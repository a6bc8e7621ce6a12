package tts

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Ограничения формы ввода.
const (
	MaxTextLength = 5000

	MinQuality = 5
	MaxQuality = 15

	MinSpeed  = 0.9
	MaxSpeed  = 1.5
	SpeedStep = 0.05
)

// Gender выбор пола голоса в интерфейсе.
type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// ParseGender разбирает пол голоса.
func ParseGender(s string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(s))) {
	case Female:
		return Female, nil
	case Male:
		return Male, nil
	default:
		return "", fmt.Errorf("unknown voice gender %q (female|male)", s)
	}
}

// VoiceStyle код голоса, который понимает бэкенд.
type VoiceStyle string

const (
	StyleF1 VoiceStyle = "F1"
	StyleF2 VoiceStyle = "F2"
	StyleM1 VoiceStyle = "M1"
	StyleM2 VoiceStyle = "M2"
)

// StyleFor сопоставляет выбор пола со стилем голоса: female → F1, male → M1.
func StyleFor(g Gender) VoiceStyle {
	if g == Male {
		return StyleM1
	}
	return StyleF1
}

// Valid сообщает, известен ли стиль бэкенду.
func (s VoiceStyle) Valid() bool {
	switch s {
	case StyleF1, StyleF2, StyleM1, StyleM2:
		return true
	}
	return false
}

// Female сообщает, женский ли это голос (F1/F2).
func (s VoiceStyle) Female() bool { return strings.HasPrefix(string(s), "F") }

// Request параметры одного запроса синтеза. Создаётся заново на каждое действие «Generate».
type Request struct {
	Text       string
	VoiceStyle VoiceStyle
	TotalStep  int
	Speed      float64
}

// Validate проверяет запрос до любого сетевого вызова.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return Validation("Please enter some text")
	}
	if TextLength(r.Text) > MaxTextLength {
		return Validation(fmt.Sprintf("Text is too long (max %d characters)", MaxTextLength))
	}
	if !r.VoiceStyle.Valid() {
		return Validation(fmt.Sprintf("Unknown voice style %q", r.VoiceStyle))
	}
	if r.TotalStep < MinQuality || r.TotalStep > MaxQuality {
		return Validation(fmt.Sprintf("Quality must be between %d and %d steps", MinQuality, MaxQuality))
	}
	// Небольшой допуск на погрешность float при шаге 0.05
	if r.Speed < MinSpeed-1e-9 || r.Speed > MaxSpeed+1e-9 {
		return Validation(fmt.Sprintf("Speed must be between %.2f and %.2f", MinSpeed, MaxSpeed))
	}
	return nil
}

// TextLength длина текста в единицах UTF-16, как считает поле ввода клиента:
// символ вне BMP (эмодзи) занимает две единицы.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

// Field одно поле формы запроса.
type Field struct {
	Name  string
	Value string
}

// Fields возвращает поля формы в порядке отправки: text, voice_style, total_step, speed.
func (r Request) Fields() []Field {
	return []Field{
		{Name: "text", Value: r.Text},
		{Name: "voice_style", Value: string(r.VoiceStyle)},
		{Name: "total_step", Value: strconv.Itoa(r.TotalStep)},
		{Name: "speed", Value: strconv.FormatFloat(r.Speed, 'f', -1, 64)},
	}
}

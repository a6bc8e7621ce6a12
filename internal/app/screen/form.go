package screen

import (
	"SupertonicClient/internal/service/tts"
	"math"
	"sync"
)

// Form текущие значения полей ввода. Значения вне диапазона приводятся к границам,
// поэтому невалидным запрос может оказаться только из-за текста.
type Form struct {
	mu      sync.Mutex
	text    string
	gender  tts.Gender
	quality int
	speed   float64
}

// NewForm создаёт форму с начальными значениями (обычно из конфигурации).
func NewForm(gender tts.Gender, quality int, speed float64) *Form {
	f := &Form{gender: tts.Female}
	f.SetGender(gender)
	f.SetQuality(quality)
	f.SetSpeed(speed)
	return f
}

func (f *Form) SetText(s string) {
	f.mu.Lock()
	f.text = s
	f.mu.Unlock()
}

func (f *Form) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

func (f *Form) SetGender(g tts.Gender) {
	if g != tts.Male {
		g = tts.Female
	}
	f.mu.Lock()
	f.gender = g
	f.mu.Unlock()
}

func (f *Form) Gender() tts.Gender {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gender
}

// SetQuality задаёт число шагов инференса и возвращает фактически установленное значение.
func (f *Form) SetQuality(n int) int {
	n = min(max(n, tts.MinQuality), tts.MaxQuality)
	f.mu.Lock()
	f.quality = n
	f.mu.Unlock()
	return n
}

func (f *Form) Quality() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quality
}

// SetSpeed задаёт длину речи с шагом 0.05 и возвращает фактически установленное значение.
func (f *Form) SetSpeed(v float64) float64 {
	if math.IsNaN(v) {
		v = tts.MinSpeed
	}
	v = min(max(v, tts.MinSpeed), tts.MaxSpeed)
	v = math.Round(v/tts.SpeedStep) * tts.SpeedStep
	// Убираем хвосты вида 1.0500000000000003, чтобы в запрос ушло "1.05"
	v = math.Round(v*100) / 100
	f.mu.Lock()
	f.speed = v
	f.mu.Unlock()
	return v
}

func (f *Form) Speed() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.speed
}

// Request собирает новый запрос из текущих значений.
func (f *Form) Request() tts.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return tts.Request{
		Text:       f.text,
		VoiceStyle: tts.StyleFor(f.gender),
		TotalStep:  f.quality,
		Speed:      f.speed,
	}
}

package config

import (
	"fmt"
	"strings"
	"sync"
)

// Mode режим бэкенда синтеза.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

// ParseMode разбирает строковое значение режима. Пустая строка: local.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLocal, "":
		return ModeLocal, nil
	case ModeCloud:
		return ModeCloud, nil
	default:
		return "", fmt.Errorf("config: unknown mode %q (local|cloud)", s)
	}
}

// Endpoint: переключатель режима и фиксированные адреса для каждого режима.
// Один экземпляр на процесс, передаётся клиенту синтеза при создании; читается
// при каждом запросе и может быть изменён из настроек.
type Endpoint struct {
	mu       sync.RWMutex
	mode     Mode
	localURL string
	cloudURL string
}

func NewEndpoint(mode Mode, localURL, cloudURL string) *Endpoint {
	return &Endpoint{
		mode:     mode,
		localURL: strings.TrimRight(strings.TrimSpace(localURL), "/"),
		cloudURL: strings.TrimRight(strings.TrimSpace(cloudURL), "/"),
	}
}

// Endpoint создаёт переключатель режима из конфигурации.
func (c *Config) Endpoint() *Endpoint {
	return NewEndpoint(c.Mode, c.LocalAPIURL, c.CloudAPIURL)
}

func (e *Endpoint) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

func (e *Endpoint) SetMode(m Mode) {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
}

// BaseURL возвращает адрес бэкенда для текущего режима (без завершающего '/').
func (e *Endpoint) BaseURL() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.mode == ModeCloud {
		return e.cloudURL
	}
	return e.localURL
}

package supertonic

import (
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/tts"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ttsPath    = "/api/tts"
	voicesPath = "/api/voices"
	healthPath = "/"

	defaultTimeout = 120 * time.Second
	// Тело ошибки читаем не целиком: нам нужен только detail
	errorBodyLimit = 64 << 10
	// Ответ со списком голосов/здоровьем: маленький JSON
	jsonBodyLimit = 1 << 20
)

var _ tts.Synthesizer = (*Client)(nil)

// Option функциональная опция клиента.
type Option func(*Client)

// WithHTTPClient задаёт HTTP-клиент для локального режима (и облачного, если отдельный не задан).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCloudHTTPClient задаёт HTTP-клиент только для облачного режима (например, с OAuth2).
func WithCloudHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.cloudHTTP = hc }
}

// WithTimeout задаёт таймаут HTTP-клиента. Применяется к копии клиента,
// переданный через WithHTTPClient клиент не меняется.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client реализует синтез речи через HTTP-бэкенд Supertonic.
// Адрес бэкенда берётся из переключателя режима при каждом запросе.
type Client struct {
	endpoint  *config.Endpoint
	http      *http.Client
	cloudHTTP *http.Client
	timeout   time.Duration
	logger    *zap.SugaredLogger
	metrics   *observe.Metrics
}

func New(endpoint *config.Endpoint, logger *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   logger,
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 && c.http.Timeout != c.timeout {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// Synthesize отправляет один multipart-запрос POST {baseUrl}/api/tts и возвращает тело ответа как есть.
// Невалидный запрос отклоняется без сетевого вызова.
func (c *Client) Synthesize(ctx context.Context, req tts.Request) (tts.Audio, error) {
	if err := req.Validate(); err != nil {
		return tts.Audio{}, err
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("supertonic tts: encode form: %w", err)
	}

	mode := c.endpoint.Mode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.BaseURL()+ttsPath, body)
	if err != nil {
		return tts.Audio{}, tts.Transport("Invalid TTS service URL", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "audio/*, application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	audio, err := c.do(httpReq, mode)
	took := time.Since(started)
	if err != nil {
		c.metrics.RecordSynthesis(ctx, "supertonic", string(mode), took, 0, tts.KindOf(err).String())
		if c.logger != nil {
			c.logger.Warnw("Supertonic TTS synthesize failed", "request_id", requestID, "mode", mode, "took", took.String(), "error", err)
		}
		return tts.Audio{}, err
	}
	c.metrics.RecordSynthesis(ctx, "supertonic", string(mode), took, len(audio.Data), "")
	if c.logger != nil {
		c.logger.Infow("Supertonic TTS synthesize completed",
			"request_id", requestID,
			"mode", mode,
			"voice", req.VoiceStyle,
			"steps", req.TotalStep,
			"bytes", len(audio.Data),
			"took", took.String(),
		)
	}
	return audio, nil
}

func (c *Client) do(httpReq *http.Request, mode config.Mode) (tts.Audio, error) {
	resp, err := c.client(mode).Do(httpReq)
	if err != nil {
		return tts.Audio{}, transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tts.Audio{}, serverError(resp)
	}

	// Тело: непрозрачное аудио: не разбираем и не проверяем
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tts.Audio{}, transportError(err)
	}
	return tts.Audio{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// ListVoices запрашивает GET {baseUrl}/api/voices.
func (c *Client) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	var payload struct {
		Voices []tts.Voice `json:"voices"`
	}
	if err := c.getJSON(ctx, voicesPath, &payload); err != nil {
		return nil, err
	}
	return payload.Voices, nil
}

// Health состояние бэкенда из GET {baseUrl}/.
type Health struct {
	Message      string `json:"message"`
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
}

// Health запрашивает состояние бэкенда.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.getJSON(ctx, healthPath, &h); err != nil {
		return Health{}, err
	}
	return h, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	mode := c.endpoint.Mode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.BaseURL()+path, nil)
	if err != nil {
		return tts.Transport("Invalid TTS service URL", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.client(mode).Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return serverError(resp)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, jsonBodyLimit)).Decode(out); err != nil {
		return tts.Transport("Malformed response from the TTS service", err)
	}
	return nil
}

func (c *Client) client(mode config.Mode) *http.Client {
	if mode == config.ModeCloud && c.cloudHTTP != nil {
		return c.cloudHTTP
	}
	return c.http
}

func encodeForm(req tts.Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range req.Fields() {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// transportError приводит сетевую ошибку к строке для пользователя.
func transportError(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return tts.Transport("Request timed out", err)
	case errors.Is(err, context.Canceled):
		return tts.Transport("Request cancelled", err)
	default:
		return tts.Transport("Unable to reach the TTS service", err)
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// serverError разбирает {"detail": ...} из не-2xx ответа. Если разобрать не удалось, общий текст.
func serverError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	msg := detailMessage(b)
	if msg == "" {
		msg = tts.GenericFailure
	}
	return tts.Server(resp.StatusCode, msg)
}

func detailMessage(b []byte) string {
	var eb errorBody
	if err := json.Unmarshal(b, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	// FastAPI отдаёт ошибки валидации списком: [{"loc": [...], "msg": "...", "type": "..."}]
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if m := strings.TrimSpace(it.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

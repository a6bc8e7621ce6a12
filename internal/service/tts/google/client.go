package google

import (
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/tts"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const userAgent = "supertonic-client"

var _ tts.Synthesizer = (*Client)(nil)

// Client реализует синтез речи через Google Cloud Text-to-Speech.
// Стиль голоса сводится к настроенному женскому или мужскому голосу Google, TotalStep не используется.
type Client struct {
	cfg     config.GoogleTTSConfig
	logger  *zap.SugaredLogger
	metrics *observe.Metrics
}

func New(cfg config.GoogleTTSConfig, logger *zap.SugaredLogger, m *observe.Metrics) *Client {
	return &Client{cfg: cfg, logger: logger, metrics: m}
}

func (c *Client) Synthesize(ctx context.Context, req tts.Request) (tts.Audio, error) {
	if err := req.Validate(); err != nil {
		return tts.Audio{}, err
	}

	// Создаём клиента SDK
	ttsClient, err := gctts.NewClient(ctx, option.WithUserAgent(userAgent))
	if err != nil {
		return tts.Audio{}, tts.Transport("Unable to reach the TTS service", err)
	}
	defer ttsClient.Close()

	started := time.Now()
	resp, err := ttsClient.SynthesizeSpeech(ctx, buildRequest(c.cfg, req))
	took := time.Since(started)
	if err != nil {
		err = sdkError(err)
		c.metrics.RecordSynthesis(ctx, "google", "", took, 0, tts.KindOf(err).String())
		if c.logger != nil {
			c.logger.Warnw("Google TTS synthesize failed", "took", took.String(), "error", err)
		}
		return tts.Audio{}, err
	}

	audio := tts.Audio{Data: resp.GetAudioContent(), ContentType: "audio/wav"}
	c.metrics.RecordSynthesis(ctx, "google", "", took, len(audio.Data), "")
	if c.logger != nil {
		c.logger.Infow("Google TTS synthesize completed", "voice", req.VoiceStyle, "bytes", len(audio.Data), "took", took.String())
	}
	return audio, nil
}

// ListVoices возвращает голоса Google для настроенного языка.
func (c *Client) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	ttsClient, err := gctts.NewClient(ctx, option.WithUserAgent(userAgent))
	if err != nil {
		return nil, tts.Transport("Unable to reach the TTS service", err)
	}
	defer ttsClient.Close()

	resp, err := ttsClient.ListVoices(ctx, &ttspb.ListVoicesRequest{LanguageCode: c.cfg.Language})
	if err != nil {
		return nil, sdkError(err)
	}
	return convertVoices(resp.GetVoices()), nil
}

// buildRequest переводит запрос синтеза в запрос Google. Speed: множитель длительности речи,
// поэтому скорость произнесения обратна ему.
func buildRequest(cfg config.GoogleTTSConfig, req tts.Request) *ttspb.SynthesizeSpeechRequest {
	name := cfg.FemaleVoice
	if !req.VoiceStyle.Female() {
		name = cfg.MaleVoice
	}
	rate := 1.0
	if req.Speed > 0 {
		rate = 1 / req.Speed
	}

	audio := &ttspb.AudioConfig{
		AudioEncoding: ttspb.AudioEncoding_LINEAR16,
		SpeakingRate:  rate,
		Pitch:         cfg.Pitch,
		VolumeGainDb:  cfg.VolumeGainDb,
	}
	if ep := strings.TrimSpace(cfg.EffectsProfileID); ep != "" {
		audio.EffectsProfileId = []string{ep}
	}
	return &ttspb.SynthesizeSpeechRequest{
		Input:       &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Text{Text: req.Text}},
		Voice:       &ttspb.VoiceSelectionParams{LanguageCode: cfg.Language, Name: name},
		AudioConfig: audio,
	}
}

func convertVoices(in []*ttspb.Voice) []tts.Voice {
	out := make([]tts.Voice, 0, len(in))
	for _, v := range in {
		var gender string
		switch v.GetSsmlGender() {
		case ttspb.SsmlVoiceGender_FEMALE:
			gender = "Female"
		case ttspb.SsmlVoiceGender_MALE:
			gender = "Male"
		default:
			gender = "Neutral"
		}
		out = append(out, tts.Voice{ID: v.GetName(), Name: v.GetName(), Gender: gender})
	}
	return out
}

// sdkError раскладывает gRPC-ошибку SDK по классам: сеть и таймауты отдельно, остальное: ответ сервера.
func sdkError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return tts.Transport("Request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return tts.Transport("Request cancelled", err)
	}
	st, ok := status.FromError(err)
	if !ok {
		return tts.Transport("Unable to reach the TTS service", err)
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return tts.Transport("Request timed out", err)
	case codes.Canceled:
		return tts.Transport("Request cancelled", err)
	case codes.Unavailable:
		return tts.Transport("Unable to reach the TTS service", err)
	}
	msg := strings.TrimSpace(st.Message())
	if msg == "" {
		msg = tts.GenericFailure
	}
	return tts.Server(httpStatus(st.Code()), msg)
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

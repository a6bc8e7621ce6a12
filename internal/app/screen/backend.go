package screen

import (
	"SupertonicClient/internal/config"
	"SupertonicClient/internal/observe"
	"SupertonicClient/internal/service/tts"
	"SupertonicClient/internal/service/tts/google"
	"SupertonicClient/internal/service/tts/supertonic"
	"context"
	"strings"

	"go.uber.org/zap"
)

// NewSynthesizer выбирает клиент синтеза по cfg.TTSService. Для supertonic адрес берётся из endpoint
// при каждом запросе; в облачном режиме при настроенном OAuth2 используется отдельный HTTP-клиент.
func NewSynthesizer(ctx context.Context, cfg *config.Config, endpoint *config.Endpoint, logger *zap.SugaredLogger, m *observe.Metrics) tts.Synthesizer {
	service := strings.ToLower(strings.TrimSpace(cfg.TTSService))
	switch service {
	case "google":
		logger.Infow("TTS selected", "service", service, "language", cfg.GoogleTTS.Language)
		return google.New(cfg.GoogleTTS, logger, m)
	default:
		opts := []supertonic.Option{
			supertonic.WithTimeout(cfg.RequestTimeout),
			supertonic.WithMetrics(m),
		}
		if hc := supertonic.NewCloudHTTPClient(ctx, cfg.CloudAuth, cfg.RequestTimeout, logger); hc != nil {
			opts = append(opts, supertonic.WithCloudHTTPClient(hc))
		}
		logger.Infow("TTS selected", "service", "supertonic", "mode", endpoint.Mode(), "base_url", endpoint.BaseURL())
		return supertonic.New(endpoint, logger, opts...)
	}
}

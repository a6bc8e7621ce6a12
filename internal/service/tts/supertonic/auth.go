package supertonic

import (
	"SupertonicClient/internal/config"
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// NewCloudHTTPClient создаёт HTTP‑клиент для облачного бэкенда с авторизацией.
// Client credentials имеют приоритет над Google ADC. Если авторизация не настроена
// или ADC недоступны, возвращает nil, и клиент использует обычный http.Client.
func NewCloudHTTPClient(ctx context.Context, auth config.CloudAuthConfig, timeout time.Duration, logger *zap.SugaredLogger) *http.Client {
	var hc *http.Client
	switch {
	case auth.ClientCredentials():
		cc := clientcredentials.Config{
			ClientID:     strings.TrimSpace(auth.ClientID),
			ClientSecret: auth.ClientSecret,
			TokenURL:     strings.TrimSpace(auth.TokenURL),
			Scopes:       auth.Scopes,
		}
		hc = cc.Client(ctx)
	case auth.GoogleADC:
		scopes := auth.Scopes
		if len(scopes) == 0 {
			scopes = []string{cloudPlatformScope}
		}
		// Учётные данные ищутся по ADC: GOOGLE_APPLICATION_CREDENTIALS, gcloud, метаданные GCE
		c, err := google.DefaultClient(ctx, scopes...)
		if err != nil {
			if logger != nil {
				logger.Warnw("Google ADC not available, cloud requests go unauthenticated", "error", err)
			}
			return nil
		}
		hc = c
	default:
		return nil
	}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return hc
}

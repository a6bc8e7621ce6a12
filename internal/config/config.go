package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv: переменная окружения с путём к YAML-файлу конфигурации (опционально).
const ConfigFileEnv = "SUPERTONIC_CONFIG"

type Config struct {
	DebugMode bool   `env:"DEBUG_MODE" yaml:"debug_mode"` //Режим дебага
	LogFormat string `env:"LOG_FORMAT" yaml:"log_format"` // console|json

	// Режим работы и адреса бэкенда синтеза
	Mode           Mode          `env:"TTS_MODE" yaml:"mode"`                       // local|cloud
	LocalAPIURL    string        `env:"TTS_LOCAL_API_URL" yaml:"local_api_url"`     // Адрес локального сервера разработки
	CloudAPIURL    string        `env:"TTS_CLOUD_API_URL" yaml:"cloud_api_url"`     // Адрес облачного бэкенда
	RequestTimeout time.Duration `env:"TTS_REQUEST_TIMEOUT" yaml:"request_timeout"` // Таймаут одного запроса синтеза
	TTSService     string        `env:"TTS_SERVICE" yaml:"tts_service"`             // supertonic|google, по умолчанию supertonic

	// Начальные значения формы ввода
	VoiceGender string  `env:"TTS_VOICE_GENDER" yaml:"voice_gender"` // female|male
	Quality     int     `env:"TTS_QUALITY" yaml:"quality"`           // Количество шагов инференса, 5..15
	Speed       float64 `env:"TTS_SPEED" yaml:"speed"`               // Множитель длины речи, 0.9..1.5

	// Воспроизведение
	PlayerVolumeDB     float64       `env:"PLAYER_VOLUME_DB" yaml:"player_volume_db"`         // Громкость в dB (отрицательные: тише)
	PlayerTickInterval time.Duration `env:"PLAYER_TICK_INTERVAL" yaml:"player_tick_interval"` // Периодичность обновления позиции
	DownloadDir        string        `env:"DOWNLOAD_DIR" yaml:"download_dir"`                 // Куда сохранять сгенерированное аудио

	CloudAuth CloudAuthConfig `yaml:"cloud_auth"`
	GoogleTTS GoogleTTSConfig `yaml:"google_tts"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CloudAuthConfig авторизация запросов к облачному бэкенду: OAuth2 client credentials
// либо Google Application Default Credentials (бэкенд за Google-прокси).
// Если ничего не настроено, запросы уходят без авторизации.
type CloudAuthConfig struct {
	TokenURL     string   `env:"CLOUD_OAUTH_TOKEN_URL" yaml:"token_url"`
	ClientID     string   `env:"CLOUD_OAUTH_CLIENT_ID" yaml:"client_id"`
	ClientSecret string   `env:"CLOUD_OAUTH_CLIENT_SECRET" yaml:"client_secret"`
	Scopes       []string `env:"CLOUD_OAUTH_SCOPES" envSeparator:"," yaml:"scopes"`
	GoogleADC    bool     `env:"CLOUD_AUTH_GOOGLE_ADC" yaml:"google_adc"` // Токен из ADC вместо client credentials
}

// Enabled сообщает, настроена ли авторизация.
func (c CloudAuthConfig) Enabled() bool {
	return c.GoogleADC || c.ClientCredentials()
}

// ClientCredentials сообщает, заданы ли параметры client credentials.
func (c CloudAuthConfig) ClientCredentials() bool {
	return strings.TrimSpace(c.TokenURL) != "" && strings.TrimSpace(c.ClientID) != ""
}

// GoogleTTSConfig конфигурация для синтеза речи через Google Cloud Text-to-Speech.
type GoogleTTSConfig struct {
	// Путь к файлу ключа сервисного аккаунта. Фактически читается из ENV GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsPath string  `env:"GOOGLE_APPLICATION_CREDENTIALS" yaml:"credentials_path"`
	Language        string  `env:"GOOGLE_TTS_LANGUAGE" yaml:"language"`
	FemaleVoice     string  `env:"GOOGLE_TTS_FEMALE_VOICE" yaml:"female_voice"` // Голос для стилей F1/F2
	MaleVoice       string  `env:"GOOGLE_TTS_MALE_VOICE" yaml:"male_voice"`     // Голос для стилей M1/M2
	Pitch           float64 `env:"GOOGLE_TTS_PITCH" yaml:"pitch"`
	VolumeGainDb    float64 `env:"GOOGLE_TTS_VOLUME_DB" yaml:"volume_gain_db"`
	// Эффект профиля устройства воспроизведения, напр. large-home-entertainment-class-device
	EffectsProfileID string `env:"GOOGLE_TTS_EFFECTS_PROFILE_ID" yaml:"effects_profile_id"`
}

// TelemetryConfig конфигурация HTTP-сервера метрик.
type TelemetryConfig struct {
	Enabled  bool   `env:"TELEMETRY_ENABLED" yaml:"enabled"`     // Главный флаг включения/выключения
	BindAddr string `env:"TELEMETRY_BIND_ADDR" yaml:"bind_addr"` // Адрес слушателя, напр. 127.0.0.1:9464
	Path     string `env:"TELEMETRY_PATH" yaml:"path"`           // HTTP‑путь метрик, напр. "/metrics"
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются YAML-файлом, .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:      false,
		LogFormat:      "console",
		Mode:           ModeLocal,
		LocalAPIURL:    "http://localhost:8000",
		CloudAPIURL:    "https://api.snowedge.com",
		RequestTimeout: 120 * time.Second, // синтез длинного текста на CPU может занимать десятки секунд
		TTSService:     "supertonic",
		// Форма ввода
		VoiceGender: "female",
		Quality:     5,
		Speed:       1.05,
		// Плеер
		PlayerVolumeDB:     0,
		PlayerTickInterval: 250 * time.Millisecond,
		DownloadDir:        ".",
		GoogleTTS: GoogleTTSConfig{
			CredentialsPath:  "service-account.json",
			Language:         "en-US",
			FemaleVoice:      "en-US-Standard-C",
			MaleVoice:        "en-US-Standard-D",
			EffectsProfileID: "large-home-entertainment-class-device",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			BindAddr: "127.0.0.1:9464",
			Path:     "/metrics",
		},
	}
}

// Load загружает конфигурацию: дефолты → YAML → .env/окружение → флаги из args.
// Флаги регистрируются в fs, поэтому вызывающий может добавить свои до вызова Load.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	mode := string(cfg.Mode)
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "формат логов: console|json")
	fs.StringVar(&mode, "mode", mode, "режим бэкенда: local|cloud")
	fs.StringVar(&cfg.LocalAPIURL, "local-api-url", cfg.LocalAPIURL, "адрес локального сервера синтеза")
	fs.StringVar(&cfg.CloudAPIURL, "cloud-api-url", cfg.CloudAPIURL, "адрес облачного сервера синтеза")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "таймаут одного запроса синтеза, напр. 90s")
	fs.StringVar(&cfg.TTSService, "tts-service", cfg.TTSService, "выбор сервиса TTS: supertonic|google")
	fs.StringVar(&cfg.VoiceGender, "voice", cfg.VoiceGender, "голос по умолчанию: female|male")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "качество (шаги инференса), 5..15")
	fs.Float64Var(&cfg.Speed, "speed", cfg.Speed, "длина речи, 0.9..1.5 с шагом 0.05")
	fs.Float64Var(&cfg.PlayerVolumeDB, "volume-db", cfg.PlayerVolumeDB, "громкость воспроизведения в dB")
	fs.DurationVar(&cfg.PlayerTickInterval, "player-tick", cfg.PlayerTickInterval, "периодичность обновления позиции плеера")
	fs.StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "каталог для сохранения аудио")
	// Авторизация облачного бэкенда
	fs.StringVar(&cfg.CloudAuth.TokenURL, "cloud-oauth-token-url", cfg.CloudAuth.TokenURL, "OAuth2 token URL облачного бэкенда")
	fs.StringVar(&cfg.CloudAuth.ClientID, "cloud-oauth-client-id", cfg.CloudAuth.ClientID, "OAuth2 client id")
	fs.StringVar(&cfg.CloudAuth.ClientSecret, "cloud-oauth-client-secret", cfg.CloudAuth.ClientSecret, "OAuth2 client secret")
	fs.BoolVar(&cfg.CloudAuth.GoogleADC, "cloud-auth-google-adc", cfg.CloudAuth.GoogleADC, "авторизация облачного бэкенда через Google ADC")
	// Параметры Google TTS
	fs.StringVar(&cfg.GoogleTTS.CredentialsPath, "google-tts-credentials", cfg.GoogleTTS.CredentialsPath, "путь к service-account.json (также читается из ENV GOOGLE_APPLICATION_CREDENTIALS)")
	fs.StringVar(&cfg.GoogleTTS.Language, "google-tts-language", cfg.GoogleTTS.Language, "язык синтеза, напр. en-US")
	fs.StringVar(&cfg.GoogleTTS.FemaleVoice, "google-tts-female-voice", cfg.GoogleTTS.FemaleVoice, "женский голос Google")
	fs.StringVar(&cfg.GoogleTTS.MaleVoice, "google-tts-male-voice", cfg.GoogleTTS.MaleVoice, "мужской голос Google")
	// Телеметрия
	fs.BoolVar(&cfg.Telemetry.Enabled, "telemetry-enabled", cfg.Telemetry.Enabled, "включить HTTP-сервер метрик")
	fs.StringVar(&cfg.Telemetry.BindAddr, "telemetry-bind-addr", cfg.Telemetry.BindAddr, "адрес сервера метрик")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	cfg.Mode = m

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfig загружает конфигурацию приложения из os.Args. Ошибка конфигурации фатальна.
func NewConfig() *Config {
	cfg, err := Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.LocalAPIURL) == "" || strings.TrimSpace(c.CloudAPIURL) == "" {
		return errors.New("config: local and cloud API URLs must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(c.VoiceGender)) {
	case "female", "male":
	default:
		return fmt.Errorf("config: unknown voice gender %q (female|male)", c.VoiceGender)
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = Defaults().RequestTimeout
	}
	if c.PlayerTickInterval <= 0 {
		c.PlayerTickInterval = Defaults().PlayerTickInterval
	}

	// Валидация и подготовка окружения для Google TTS.
	// Если ENV пуст, но в конфиге указан путь, устанавливаем ENV.
	if strings.EqualFold(c.TTSService, "google") {
		cred := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
		if cred == "" {
			if cp := strings.TrimSpace(c.GoogleTTS.CredentialsPath); cp != "" {
				_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cp)
				cred = cp
			}
		}
		if cred == "" {
			return errors.New("google tts: GOOGLE_APPLICATION_CREDENTIALS is not set; use ENV or -google-tts-credentials")
		}
		if _, err := os.Stat(cred); err != nil {
			return fmt.Errorf("google tts: credentials file not found: %s", cred)
		}
	}
	return nil
}

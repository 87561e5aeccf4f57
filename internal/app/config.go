package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/meetingdesk-backend/internal/data/db"
	"github.com/yungbote/meetingdesk-backend/internal/platform/envutil"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

// Config is read from an optional YAML file (CONFIG_FILE); environment
// variables override any value it sets.
type Config struct {
	Port        string `yaml:"port"`
	LogMode     string `yaml:"log_mode"`
	Environment string `yaml:"environment"`

	Database      DatabaseConfig      `yaml:"database"`
	Storage       StorageConfig       `yaml:"storage"`
	AssemblyAI    AssemblyAIConfig    `yaml:"assemblyai"`
	GCPSpeech     GCPSpeechConfig     `yaml:"gcp_speech"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Redis         RedisConfig         `yaml:"redis"`
	Auth          AuthConfig          `yaml:"auth"`
	HTTP          HTTPConfig          `yaml:"http"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	SSLMode      string `yaml:"ssl_mode"`
	SQLitePath   string `yaml:"sqlite_path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type StorageConfig struct {
	Mode             string `yaml:"mode"`
	EmulatorHost     string `yaml:"emulator_host"`
	PublicBaseURL    string `yaml:"public_base_url"`
	Bucket           string `yaml:"bucket"`
	Credentials      string `yaml:"credentials"`
	UploadURLSeconds int    `yaml:"signed_upload_url_ttl_seconds"`
	ReadURLSeconds   int    `yaml:"signed_read_url_ttl_seconds"`
}

type AssemblyAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
	MaxWaitMS      int    `yaml:"max_wait_ms"`
	DirectURL      bool   `yaml:"direct_url"`
	MaxRetries     int    `yaml:"max_retries"`
}

type GCPSpeechConfig struct {
	Enabled   bool `yaml:"enabled"`
	MaxWaitMS int  `yaml:"max_wait_ms"`
}

type TranscriptionConfig struct {
	DefaultProvider string `yaml:"default_provider"`
	DefaultLanguage string `yaml:"default_language"`
	Background      bool   `yaml:"background"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type AuthConfig struct {
	JWTSecretKey      string `yaml:"jwt_secret_key"`
	AccessTokenTTL    int    `yaml:"access_token_ttl_seconds"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
	Disabled          bool   `yaml:"disabled"`
	SecureCookie      bool   `yaml:"secure_cookie"`
}

type HTTPConfig struct {
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

type TelemetryConfig struct {
	MetricsEnabled  bool    `yaml:"metrics_enabled"`
	OtelEnabled     bool    `yaml:"otel_enabled"`
	OtelServiceName string  `yaml:"otel_service_name"`
	OtelEndpoint    string  `yaml:"otel_endpoint"`
	OtelHeaders     string  `yaml:"otel_headers"`
	OtelInsecure    bool    `yaml:"otel_insecure"`
	OtelSampleRatio float64 `yaml:"otel_sample_ratio"`
}

func defaultConfig() Config {
	return Config{
		Port:        "8080",
		LogMode:     "development",
		Environment: "dev",
		Database: DatabaseConfig{
			Driver:  db.DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "meetingdesk",
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			UploadURLSeconds: 3600,
			ReadURLSeconds:   900,
		},
		AssemblyAI: AssemblyAIConfig{
			PollIntervalMS: 5000,
			MaxWaitMS:      300000,
			MaxRetries:     3,
		},
		Transcription: TranscriptionConfig{
			DefaultProvider: "assemblyai",
			DefaultLanguage: "en",
		},
		Redis: RedisConfig{Channel: "meetingdesk:artefacts"},
		Auth:  AuthConfig{AccessTokenTTL: 12 * 3600},
		HTTP:  HTTPConfig{ShutdownTimeoutSeconds: 20},
		Telemetry: TelemetryConfig{
			MetricsEnabled:  true,
			OtelServiceName: "meetingdesk",
			OtelSampleRatio: 1,
		},
	}
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_FILE", "", log); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		log.Info("Loaded config file", "path", path)
	}
	applyEnv(&cfg, log)
	return cfg, nil
}

func applyEnv(cfg *Config, log *logger.Logger) {
	cfg.Port = envutil.String("PORT", cfg.Port, log)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode, log)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment, log)

	d := &cfg.Database
	d.Driver = envutil.String("DB_DRIVER", d.Driver, log)
	d.Host = envutil.String("POSTGRES_HOST", d.Host, log)
	d.Port = envutil.String("POSTGRES_PORT", d.Port, log)
	d.User = envutil.String("POSTGRES_USER", d.User, log)
	d.Password = envutil.String("POSTGRES_PASSWORD", d.Password, log)
	d.Name = envutil.String("POSTGRES_NAME", d.Name, log)
	d.SSLMode = envutil.String("POSTGRES_SSLMODE", d.SSLMode, log)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath, log)
	d.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", d.MaxOpenConns, log)
	d.MaxIdleConns = envutil.Int("DB_MAX_IDLE_CONNS", d.MaxIdleConns, log)

	s := &cfg.Storage
	s.Mode = envutil.String("OBJECT_STORAGE_MODE", s.Mode, log)
	s.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", s.EmulatorHost, log)
	s.PublicBaseURL = envutil.String("STORAGE_PUBLIC_BASE_URL", s.PublicBaseURL, log)
	s.Bucket = envutil.String("ASSET_GCS_BUCKET_NAME", s.Bucket, log)
	s.Credentials = envutil.String("GCP_CREDENTIALS", s.Credentials, log)
	s.UploadURLSeconds = envutil.Int("SIGNED_UPLOAD_URL_TTL_SECONDS", s.UploadURLSeconds, log)
	s.ReadURLSeconds = envutil.Int("SIGNED_READ_URL_TTL_SECONDS", s.ReadURLSeconds, log)

	a := &cfg.AssemblyAI
	a.APIKey = envutil.String("ASSEMBLYAI_API_KEY", a.APIKey, log)
	a.BaseURL = envutil.String("ASSEMBLYAI_BASE_URL", a.BaseURL, log)
	a.PollIntervalMS = envutil.Int("ASSEMBLYAI_POLL_INTERVAL_MS", a.PollIntervalMS, log)
	a.MaxWaitMS = envutil.Int("ASSEMBLYAI_MAX_WAIT_MS", a.MaxWaitMS, log)
	a.DirectURL = envutil.Bool("ASSEMBLYAI_DIRECT_URL", a.DirectURL, log)
	a.MaxRetries = envutil.Int("ASSEMBLYAI_MAX_RETRIES", a.MaxRetries, log)

	cfg.GCPSpeech.Enabled = envutil.Bool("GCP_SPEECH_ENABLED", cfg.GCPSpeech.Enabled, log)
	cfg.GCPSpeech.MaxWaitMS = envutil.Int("GCP_SPEECH_MAX_WAIT_MS", cfg.GCPSpeech.MaxWaitMS, log)

	t := &cfg.Transcription
	t.DefaultProvider = envutil.String("TRANSCRIPTION_DEFAULT_PROVIDER", t.DefaultProvider, log)
	t.DefaultLanguage = envutil.String("TRANSCRIPTION_DEFAULT_LANGUAGE", t.DefaultLanguage, log)
	t.Background = envutil.Bool("TRANSCRIPTION_BACKGROUND", t.Background, log)

	cfg.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", cfg.OpenAI.APIKey, log)
	cfg.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", cfg.OpenAI.BaseURL, log)
	cfg.OpenAI.Model = envutil.String("OPENAI_MODEL", cfg.OpenAI.Model, log)

	r := &cfg.Redis
	r.Addr = envutil.String("REDIS_ADDR", r.Addr, log)
	r.Password = envutil.String("REDIS_PASSWORD", r.Password, log)
	r.DB = envutil.Int("REDIS_DB", r.DB, log)
	r.Channel = envutil.String("REDIS_CHANNEL", r.Channel, log)

	au := &cfg.Auth
	au.JWTSecretKey = envutil.String("JWT_SECRET_KEY", au.JWTSecretKey, log)
	au.AccessTokenTTL = envutil.Int("ACCESS_TOKEN_TTL", au.AccessTokenTTL, log)
	au.AdminPasswordHash = envutil.String("ADMIN_PASSWORD_HASH", au.AdminPasswordHash, log)
	au.Disabled = envutil.Bool("AUTH_DISABLED", au.Disabled, log)
	au.SecureCookie = envutil.Bool("AUTH_SECURE_COOKIE", au.SecureCookie, log)

	if raw := envutil.String("CORS_ALLOWED_ORIGINS", "", log); raw != "" {
		cfg.HTTP.CORSOrigins = splitList(raw)
	}
	cfg.HTTP.ShutdownTimeoutSeconds = envutil.Int("SHUTDOWN_TIMEOUT_SECONDS", cfg.HTTP.ShutdownTimeoutSeconds, log)

	tel := &cfg.Telemetry
	tel.MetricsEnabled = envutil.Bool("METRICS_ENABLED", tel.MetricsEnabled, log)
	tel.OtelEnabled = envutil.Bool("OTEL_ENABLED", tel.OtelEnabled, log)
	tel.OtelServiceName = envutil.String("OTEL_SERVICE_NAME", tel.OtelServiceName, log)
	tel.OtelEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", tel.OtelEndpoint, log)
	tel.OtelHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", tel.OtelHeaders, log)
	tel.OtelInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", tel.OtelInsecure, log)
	tel.OtelSampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", tel.OtelSampleRatio, log)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) dbConfig() db.Config {
	return db.Config{
		Driver:           c.Database.Driver,
		PostgresHost:     c.Database.Host,
		PostgresPort:     c.Database.Port,
		PostgresUser:     c.Database.User,
		PostgresPassword: c.Database.Password,
		PostgresName:     c.Database.Name,
		PostgresSSLMode:  c.Database.SSLMode,
		SQLitePath:       c.Database.SQLitePath,
		MaxOpenConns:     c.Database.MaxOpenConns,
		MaxIdleConns:     c.Database.MaxIdleConns,
	}
}

func (c Config) accessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTL) * time.Second
}

func (c Config) shutdownTimeout() time.Duration {
	if c.HTTP.ShutdownTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.HTTP.ShutdownTimeoutSeconds) * time.Second
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cancelsaga/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App            AppConfig            `yaml:"app"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Monitoring     MonitoringConfig     `yaml:"monitoring"`
	Logging        LoggingConfig        `yaml:"logging"`
	API            APIConfig            `yaml:"api"`
	Payment        PaymentConfig        `yaml:"payment"`
	Email          EmailConfig          `yaml:"email"`
	Calendar       CalendarConfig       `yaml:"calendar"`
	Notifications  NotificationsConfig  `yaml:"notifications"`
	Alerts         AlertsConfig         `yaml:"alerts"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
}

type APIConfig struct {
	Enabled         bool               `yaml:"enabled"`
	HTTP            APIHTTPConfig      `yaml:"http"`
	GRPC            APIGRPCConfig      `yaml:"grpc"`
	Auth            APIAuthConfig      `yaml:"auth"`
	RateLimit       APIRateLimitConfig `yaml:"rate_limit"`
	RequesterHeader string             `yaml:"requester_header"`
	CancelLimit     CancelLimitConfig  `yaml:"cancel_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool         `yaml:"enabled"`
	Port       int          `yaml:"port"`
	Reflection bool         `yaml:"reflection"`
	TLS        APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CancelLimitConfig caps cancel requests per requester identity.
type CancelLimitConfig struct {
	Limit         int `yaml:"limit"`
	WindowSeconds int `yaml:"window_seconds"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	OutcomeTTL int    `yaml:"outcome_ttl_seconds"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
	Caller   bool   `yaml:"caller"`
}

const (
	PaymentProviderOmise    = "omise"
	PaymentProviderMidtrans = "midtrans"
)

type PaymentConfig struct {
	Provider    string `yaml:"provider"`
	PublicKey   string `yaml:"public_key"`
	SecretKey   string `yaml:"secret_key"`
	ServerKey   string `yaml:"server_key"`
	Environment string `yaml:"environment"` // sandbox | production (midtrans)
	// PlaceholderPrefixes mark charge references that never reached the processor.
	PlaceholderPrefixes []string `yaml:"placeholder_prefixes"`
}

type EmailConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	From         string `yaml:"from"`
	SupportEmail string `yaml:"support_email"`
}

type CalendarConfig struct {
	EventsMarker    string `yaml:"events_marker"`
	CalendarsMarker string `yaml:"calendars_marker"`
	Endpoint        string `yaml:"endpoint"`
	SendUpdates     string `yaml:"send_updates"`
}

type NotificationsConfig struct {
	Timezone   string `yaml:"timezone"`
	DateFormat string `yaml:"date_format"`
	BrandName  string `yaml:"brand_name"`
}

type AlertsConfig struct {
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
}

type ReconciliationConfig struct {
	QueueKey  string `yaml:"queue_key"`
	ExportDir string `yaml:"export_dir"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Payment.Provider {
	case PaymentProviderOmise:
		if c.Payment.PublicKey == "" || c.Payment.SecretKey == "" {
			return errors.New("omise public_key and secret_key are required")
		}
	case PaymentProviderMidtrans:
		if c.Payment.ServerKey == "" {
			return errors.New("midtrans server_key is required")
		}
	default:
		return fmt.Errorf("unknown payment provider %q", c.Payment.Provider)
	}

	if c.Email.Host == "" || c.Email.From == "" {
		return errors.New("email host and from are required")
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RequesterHeader == "" {
		c.API.RequesterHeader = "x-user-id"
	}
	if c.API.CancelLimit.Limit == 0 {
		c.API.CancelLimit.Limit = models.CancelRateLimit
	}
	if c.API.CancelLimit.WindowSeconds == 0 {
		c.API.CancelLimit.WindowSeconds = models.CancelRateWindow
	}

	if c.Payment.Provider == "" {
		c.Payment.Provider = PaymentProviderOmise
	}
	if c.Payment.Environment == "" {
		c.Payment.Environment = "sandbox"
	}
	if len(c.Payment.PlaceholderPrefixes) == 0 {
		c.Payment.PlaceholderPrefixes = []string{"test_", "free_", "manual_", "placeholder"}
	}

	if c.Email.Port == 0 {
		c.Email.Port = 587
	}

	if c.Calendar.EventsMarker == "" {
		c.Calendar.EventsMarker = "/events/"
	}
	if c.Calendar.CalendarsMarker == "" {
		c.Calendar.CalendarsMarker = "/calendars/"
	}
	if c.Calendar.SendUpdates == "" {
		c.Calendar.SendUpdates = "all"
	}

	if c.Notifications.Timezone == "" {
		c.Notifications.Timezone = "UTC"
	}
	if c.Notifications.DateFormat == "" {
		c.Notifications.DateFormat = "Monday, 2 January 2006 at 15:04 MST"
	}

	if c.Redis.OutcomeTTL == 0 {
		c.Redis.OutcomeTTL = models.DefaultOutcomeTTL
	}
	if c.Reconciliation.QueueKey == "" {
		c.Reconciliation.QueueKey = "reconcile:queue"
	}
	if c.Reconciliation.ExportDir == "" {
		c.Reconciliation.ExportDir = "exports"
	}
}

// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"funnelgate/internal/logger"
)

// Config carries every externally-configured value the binaries need.
// It is resolved once at process start and passed explicitly to each
// component; no endpoint or credential lives inside control flow.
type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Gate     GateConfig
	SMTP     SMTPConfig
	Snapshot SnapshotConfig
	Data     DataConfig
	Redis    RedisConfig
	Email    EmailConfig
	Logs     logger.Config

	AllowedOrigin string
}

type ServerConfig struct {
	Host string
	Port string
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// ProviderConfig covers the hosted checkout provider.
type ProviderConfig struct {
	SecretKey  string
	APIBase    string // empty = provider default; tests point this at a mock
	Currency   string
	SuccessURL string
	CancelURL  string
}

// GateConfig covers the access gate and its verification round-trip.
type GateConfig struct {
	SessionParam  string
	CookieName    string
	RedirectURL   string // where a denied visitor is sent to purchase
	VerifyURL     string // base URL of the check-payment endpoint
	VerifyTimeout time.Duration
	DefaultFunnel string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

type SnapshotConfig struct {
	ResultsURL     string
	ScreenshotPath string
	PDFPath        string
	SettleDelay    time.Duration
	NavTimeout     time.Duration
}

type DataConfig struct {
	DatabasePath string
}

type RedisConfig struct {
	URL string // empty = cookie store only
}

type EmailConfig struct {
	MockMode          bool
	AdminNotification bool
}

// Load reads .env (when present), then the environment, into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnvOrDefault("SERVER_HOST", "127.0.0.1"),
			Port: getEnvOrDefault("SERVER_PORT", "5052"),
		},
		Provider: ProviderConfig{
			SecretKey:  os.Getenv("PROVIDER_SECRET_KEY"),
			APIBase:    os.Getenv("PROVIDER_API_BASE"),
			Currency:   getEnvOrDefault("CHECKOUT_CURRENCY", "usd"),
			SuccessURL: getEnvOrDefault("CHECKOUT_SUCCESS_URL", "https://example.org/results?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:  getEnvOrDefault("CHECKOUT_CANCEL_URL", "https://example.org/pricing"),
		},
		Gate: GateConfig{
			SessionParam:  getEnvOrDefault("GATE_SESSION_PARAM", "session_id"),
			CookieName:    getEnvOrDefault("GATE_COOKIE_NAME", "fg_session"),
			RedirectURL:   getEnvOrDefault("GATE_REDIRECT_URL", "/pricing"),
			VerifyURL:     getEnvOrDefault("GATE_VERIFY_URL", "http://127.0.0.1:5052/api/check-payment"),
			VerifyTimeout: getEnvDuration("GATE_VERIFY_TIMEOUT", 10*time.Second),
			DefaultFunnel: getEnvOrDefault("GATE_DEFAULT_FUNNEL", "assessment"),
		},
		SMTP: SMTPConfig{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      getEnvInt("SMTP_PORT", 587),
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			Sender:    getEnvOrDefault("SMTP_SENDER", "Results Bot <results@example.org>"),
			Recipient: os.Getenv("SMTP_RECIPIENT"),
		},
		Snapshot: SnapshotConfig{
			ResultsURL:     os.Getenv("SNAPSHOT_RESULTS_URL"),
			ScreenshotPath: getEnvOrDefault("SNAPSHOT_IMAGE_PATH", "./artifacts/results.png"),
			PDFPath:        getEnvOrDefault("SNAPSHOT_PDF_PATH", "./artifacts/results.pdf"),
			SettleDelay:    getEnvDuration("SNAPSHOT_SETTLE_DELAY", 5*time.Second),
			NavTimeout:     getEnvDuration("SNAPSHOT_NAV_TIMEOUT", 60*time.Second),
		},
		Data: DataConfig{
			DatabasePath: getEnvOrDefault("DATABASE_PATH", "./data/funnelgate.db"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Email: EmailConfig{
			MockMode:          getEnvOrDefault("EMAIL_MOCK_MODE", "false") == "true",
			AdminNotification: getEnvOrDefault("EMAIL_ADMIN_NOTIFICATIONS", "true") == "true",
		},
		Logs: logger.Config{
			LogsDirectory: getEnvOrDefault("LOGS_DIRECTORY", "./logs"),
			LogFileFormat: getEnvOrDefault("LOG_FILE_FORMAT", "server_%s.log"),
			TimeZone:      getEnvOrDefault("TIME_ZONE", "Local"),
		},
		AllowedOrigin: getEnvOrDefault("ALLOWED_ORIGIN", "*"),
	}

	return cfg, nil
}

// RequireProvider reports an error when provider credentials are missing.
// The server needs them; the snapshot binary does not.
func (c *Config) RequireProvider() error {
	if c.Provider.SecretKey == "" {
		return fmt.Errorf("provider credentials are missing or incomplete")
	}
	return nil
}

// RequireSMTP reports an error when SMTP settings are missing.
func (c *Config) RequireSMTP() error {
	if c.SMTP.Host == "" || c.SMTP.Recipient == "" {
		return fmt.Errorf("SMTP host or recipient is missing")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}

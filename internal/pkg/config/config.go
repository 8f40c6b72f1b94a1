package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, secrets)
// - default: Values common across all environments (timeouts, retry schedule)
// -----------------------------------------------------------------------------

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	CORS    CORSConfig
	Log     LogConfig
	Webhook WebhookConfig
	PMS     PMSConfig
	PayGate PayGateConfig
	Saga    SagaConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"Asia/Tokyo"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,Idempotency-Key"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"Asia/Tokyo"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"32400"` // 9*60*60
}

// WebhookConfig carries the shared secret used to verify payment gateway
// event signatures (HMAC-SHA256 over the raw request body).
type WebhookConfig struct {
	Secret string `envconfig:"WEBHOOK_SECRET" required:"true"`
}

type PMSConfig struct {
	BaseURL     string        `envconfig:"PMS_BASE_URL" required:"true"`
	APIKey      string        `envconfig:"PMS_API_KEY" required:"true"`
	CallTimeout time.Duration `envconfig:"PMS_CALL_TIMEOUT" default:"10s"`
}

type PayGateConfig struct {
	BaseURL     string        `envconfig:"PAYGATE_BASE_URL" required:"true"`
	APIKey      string        `envconfig:"PAYGATE_API_KEY" required:"true"`
	CallTimeout time.Duration `envconfig:"PAYGATE_CALL_TIMEOUT" default:"10s"`
}

type SagaConfig struct {
	// Delays between reservation-create attempts; length defines the retry budget.
	RetryDelays    []time.Duration `envconfig:"SAGA_RETRY_DELAYS" default:"1s,2s,5s,10s,30s"`
	WatchdogWindow time.Duration   `envconfig:"SAGA_WATCHDOG_WINDOW" default:"10m"`
	SweepInterval  time.Duration   `envconfig:"SAGA_SWEEP_INTERVAL" default:"5m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "Asia/Tokyo",
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "Asia/Tokyo",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 32400,
		},
		Webhook: WebhookConfig{
			Secret: "test-webhook-secret",
		},
		PMS: PMSConfig{
			BaseURL:     "http://localhost:18080",
			APIKey:      "test-pms-key",
			CallTimeout: 2 * time.Second,
		},
		PayGate: PayGateConfig{
			BaseURL:     "http://localhost:18081",
			APIKey:      "test-paygate-key",
			CallTimeout: 2 * time.Second,
		},
		Saga: SagaConfig{
			RetryDelays:    []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond, time.Millisecond},
			WatchdogWindow: 10 * time.Minute,
			SweepInterval:  time.Minute,
		},
	}
}

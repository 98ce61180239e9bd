package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Processing ProcessingConfig
	Webhook    WebhookConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// ProcessingConfig drives the simulated settlement workers. In test mode
// delays are fixed and the payment outcome is forced by ForceFailure;
// in production mode delays are random within the min/max window and the
// outcome is probabilistic per method.
type ProcessingConfig struct {
	TestMode        bool
	TestDelay       time.Duration
	PaymentDelayMin time.Duration
	PaymentDelayMax time.Duration
	RefundDelayMin  time.Duration
	RefundDelayMax  time.Duration
	ForceFailure    bool
	UPISuccessRate  float64
	CardSuccessRate float64
}

// WebhookConfig drives the delivery engine
type WebhookConfig struct {
	Timeout     time.Duration
	MaxAttempts int
	// BackoffSchedule is indexed by the attempt number just completed and
	// clamped at the last entry. Index 0 is unused (no immediate retry).
	BackoffSchedule []time.Duration
}

// Backoff schedules. The test schedule keeps retry tests fast and
// deterministic.
var (
	ProdBackoffSchedule = []time.Duration{0, 60 * time.Second, 300 * time.Second, 1800 * time.Second, 7200 * time.Second}
	TestBackoffSchedule = []time.Duration{0, 5 * time.Second, 10 * time.Second, 15 * time.Second, 20 * time.Second}
)

// Load loads configuration from environment variables
func Load() *Config {
	testMode := getEnvAsBool("TEST_MODE", false)

	backoff := ProdBackoffSchedule
	if testMode || getEnvAsBool("WEBHOOK_RETRY_INTERVALS_TEST", false) {
		backoff = TestBackoffSchedule
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "paylane"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Processing: ProcessingConfig{
			TestMode:        testMode,
			TestDelay:       getEnvAsDuration("TEST_PROCESSING_DELAY", time.Second),
			PaymentDelayMin: 5 * time.Second,
			PaymentDelayMax: 10 * time.Second,
			RefundDelayMin:  3 * time.Second,
			RefundDelayMax:  5 * time.Second,
			ForceFailure:    os.Getenv("TEST_PAYMENT_SUCCESS") == "false",
			UPISuccessRate:  0.90,
			CardSuccessRate: 0.95,
		},
		Webhook: WebhookConfig{
			Timeout:         getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
			MaxAttempts:     getEnvAsInt("WEBHOOK_MAX_ATTEMPTS", 5),
			BackoffSchedule: backoff,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

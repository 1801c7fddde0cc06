package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr string

	Database Database

	LoanPeriod   time.Duration
	ScanInterval time.Duration

	Notify Notify
}

type Database struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SQLitePath     string
	ConnectRetries int
	ConnectBackoff time.Duration
	LogLevel       string
}

type Notify struct {
	WebhookURL         string
	Timeout            time.Duration
	RetryInterval      time.Duration
	MaxAttempts        int
	Concurrency        int
	BreakerMaxFailures int
	BreakerTimeout     time.Duration
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var (
		cfg Config
		err error
	)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8060")

	cfg.Database = Database{
		Driver:     getEnv("DB_DRIVER", "postgres"),
		Host:       getEnv("DB_HOST", "postgres"),
		Port:       getEnv("DB_PORT", "5432"),
		User:       getEnv("DB_USER", "program"),
		Password:   getEnv("DB_PASSWORD", "test"),
		Name:       getEnv("DB_NAME", "library"),
		SQLitePath: getEnv("SQLITE_PATH", "data/library.db"),
		LogLevel:   getEnv("DB_LOG_LEVEL", "warn"),
	}
	if cfg.Database.ConnectRetries, err = getEnvInt("DB_CONNECT_RETRIES", 10); err != nil {
		return Config{}, err
	}
	if cfg.Database.ConnectBackoff, err = getEnvDuration("DB_CONNECT_BACKOFF", 5*time.Second); err != nil {
		return Config{}, err
	}

	days, err := getEnvInt("LOAN_PERIOD_DAYS", 14)
	if err != nil {
		return Config{}, err
	}
	if days <= 0 {
		return Config{}, fmt.Errorf("LOAN_PERIOD_DAYS must be positive, got %d", days)
	}
	cfg.LoanPeriod = time.Duration(days) * 24 * time.Hour

	if cfg.ScanInterval, err = getEnvDuration("SCAN_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}

	cfg.Notify.WebhookURL = getEnv("NOTIFY_WEBHOOK_URL", "")
	if cfg.Notify.Timeout, err = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Notify.RetryInterval, err = getEnvDuration("NOTIFY_RETRY_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Notify.MaxAttempts, err = getEnvInt("NOTIFY_MAX_ATTEMPTS", 5); err != nil {
		return Config{}, err
	}
	if cfg.Notify.Concurrency, err = getEnvInt("NOTIFY_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if cfg.Notify.BreakerMaxFailures, err = getEnvInt("BREAKER_MAX_FAILURES", 5); err != nil {
		return Config{}, err
	}
	if cfg.Notify.BreakerTimeout, err = getEnvDuration("BREAKER_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

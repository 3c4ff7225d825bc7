package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"
)

// App holds runtime configuration derived from an optional YAML file and env vars.
type App struct {
	DatabaseDriver string   `yaml:"database_driver"`
	DatabaseURL    string   `yaml:"database_url"`
	KafkaBrokers   string   `yaml:"kafka_brokers"`
	KafkaTopic     string   `yaml:"kafka_topic"`
	APIPort        string   `yaml:"api_port"`
	Environment    string   `yaml:"environment"`
	LogLevel       string   `yaml:"log_level"`
	LogEncoding    string   `yaml:"log_encoding"`
	CORSOrigins    []string `yaml:"cors_origins"`

	// Presenter selects the presentation surface: "kafka" or "log".
	Presenter         string `yaml:"presenter"`
	PresentRatePerSec int    `yaml:"present_rate_per_sec"`

	// Timezone is the default calendar for interval patterns without their own timezone.
	Timezone string `yaml:"timezone"`

	TimerPreciseAllowed    bool          `yaml:"timer_precise_allowed"`
	TimerApproximateWindow time.Duration `yaml:"timer_approximate_window"`
	TimerMaxArmed          int           `yaml:"timer_max_armed"`
}

// Brokers splits KafkaBrokers into a trimmed broker list.
func (a App) Brokers() []string {
	return splitList(a.KafkaBrokers)
}

// Defaults returns the configuration used when nothing is set.
func Defaults() App {
	return App{
		DatabaseDriver:         "mysql",
		KafkaBrokers:           "localhost:9092",
		KafkaTopic:             "notification-deliveries",
		APIPort:                "8080",
		Environment:            "production",
		LogLevel:               "info",
		LogEncoding:            "json",
		CORSOrigins:            []string{"*"},
		Presenter:              "kafka",
		PresentRatePerSec:      50,
		Timezone:               "UTC",
		TimerPreciseAllowed:    true,
		TimerApproximateWindow: time.Minute,
		TimerMaxArmed:          500,
	}
}

// FromEnv loads the application configuration from environment variables on top of Defaults.
func FromEnv() App {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then applies environment variable overrides.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return App{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return App{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *App, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *App) {
	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.KafkaBrokers = getEnv("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.APIPort = getEnv("API_PORT", cfg.APIPort)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogEncoding = getEnv("LOG_ENCODING", cfg.LogEncoding)
	if os.Getenv("CORS_ORIGINS") != "" {
		cfg.CORSOrigins = getCORSOrigins()
	}
	cfg.Presenter = getEnv("PRESENTER", cfg.Presenter)
	cfg.PresentRatePerSec = getInt("PRESENT_RATE_PER_SEC", cfg.PresentRatePerSec)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)
	cfg.TimerPreciseAllowed = getBool("TIMER_PRECISE_ALLOWED", cfg.TimerPreciseAllowed)
	cfg.TimerApproximateWindow = getDuration("TIMER_APPROXIMATE_WINDOW", cfg.TimerApproximateWindow)
	cfg.TimerMaxArmed = getInt("TIMER_MAX_ARMED", cfg.TimerMaxArmed)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getCORSOrigins parses CORS_ORIGINS; an unset or empty value allows every origin.
func getCORSOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	return splitList(raw)
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

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
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Name           string        `yaml:"name"`
		Port           string        `yaml:"port"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		SecureCookie   bool          `yaml:"secure_cookie"`
	} `yaml:"app"`

	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Invoice struct {
		TaxRate string `yaml:"tax_rate"`
	} `yaml:"invoice"`

	Session struct {
		TTL       time.Duration `yaml:"ttl"`
		RedisAddr string        `yaml:"redis_addr"`
	} `yaml:"session"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	TaxRate  decimal.Decimal `yaml:"-"`
	LogLevel zerolog.Level   `yaml:"-"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "order-portal"
	cfg.App.Port = "8080"
	cfg.App.RequestTimeout = 30 * time.Second
	cfg.API.Timeout = 10 * time.Second
	cfg.Invoice.TaxRate = "0.15"
	cfg.Session.TTL = 24 * time.Hour
	cfg.Kafka.Topic = "portal.activity"
	cfg.Log.Level = "info"
	return cfg
}

// Load builds the configuration from defaults, then the YAML file at
// yamlPath, then the .env file at envPath, then the process environment.
// Either path may be empty; a missing .env file is not an error.
func Load(yamlPath, envPath string) (*Config, error) {
	cfg := defaults()

	if yamlPath != "" {
		file, err := os.Open(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("config: failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: invalid config file %s: %w", yamlPath, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to load .env: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.API.BaseURL, "API_BASE_URL")
	setString(&cfg.Invoice.TaxRate, "TAX_RATE")
	setString(&cfg.Session.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Log.Level, "LOG_LEVEL")

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = splitCSV(v)
	}

	if v, ok := lookup("APP_SECURE_COOKIE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: APP_SECURE_COOKIE: %w", err)
		}
		cfg.App.SecureCookie = b
	}

	for key, dst := range map[string]*time.Duration{
		"API_TIMEOUT":     &cfg.API.Timeout,
		"SESSION_TTL":     &cfg.Session.TTL,
		"REQUEST_TIMEOUT": &cfg.App.RequestTimeout,
	} {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func (cfg *Config) finalize() error {
	if cfg.API.BaseURL == "" {
		return errors.New("config: API_BASE_URL is required")
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.Invoice.TaxRate))
	if err != nil {
		return fmt.Errorf("config: invalid tax rate %q: %w", cfg.Invoice.TaxRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("config: tax rate %s cannot be negative", rate)
	}
	cfg.TaxRate = rate

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("config: invalid log level %q: %w", cfg.Log.Level, err)
	}
	cfg.LogLevel = level

	if _, err := strconv.Atoi(cfg.App.Port); err != nil {
		return fmt.Errorf("config: invalid port %q", cfg.App.Port)
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

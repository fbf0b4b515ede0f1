// Package config loads storefront and emulator settings from an optional
// .env file, an optional YAML file and the environment, in increasing
// order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glowempire/storefront/internal/localstore"
	"github.com/glowempire/storefront/internal/patterns"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the storefront service configuration
type Config struct {
	BackendURL     string        `yaml:"backend_url"`
	AnonKey        string        `yaml:"anon_key"`
	Bucket         string        `yaml:"storage_bucket"`
	StateBackend   string        `yaml:"state_backend"`
	StateDir       string        `yaml:"state_dir"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPrefix    string        `yaml:"redis_prefix"`
	HTTPAddr       string        `yaml:"http_addr"`
	LogLevel       string        `yaml:"log_level"`
	RemoteTimeout  time.Duration `yaml:"remote_timeout"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// EmulatorConfig is the backend emulator configuration
type EmulatorConfig struct {
	Addr          string        `yaml:"addr"`
	AnonKey       string        `yaml:"anon_key"`
	JWTSecret     string        `yaml:"jwt_secret"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
	PublicURL     string        `yaml:"public_url"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	LogLevel      string        `yaml:"log_level"`
}

// Defaults runs the storefront against a local emulator
func Defaults() Config {
	return Config{
		BackendURL:     "http://localhost:54321",
		AnonKey:        "local-anon-key",
		Bucket:         "product-images",
		StateBackend:   localstore.BackendFile,
		StateDir:       ".glow-state",
		RedisAddr:      "localhost:6379",
		RedisPrefix:    "glow:",
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		RemoteTimeout:  patterns.DefaultTimeout,
		UploadTimeout:  patterns.SlowServiceTimeout,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func EmulatorDefaults() EmulatorConfig {
	return EmulatorConfig{
		Addr:          ":54321",
		AnonKey:       "local-anon-key",
		JWTSecret:     "local-jwt-secret",
		AdminEmail:    "admin@glowempire.local",
		AdminPassword: "glow-admin",
		PublicURL:     "http://localhost:54321",
		TokenTTL:      time.Hour,
		LogLevel:      "info",
	}
}

// Load reads .env, then GLOW_CONFIG_FILE if set, then GLOW_* variables
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("GLOW_CONFIG_FILE"); path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.BackendURL = getEnv("GLOW_BACKEND_URL", cfg.BackendURL)
	cfg.AnonKey = getEnv("GLOW_ANON_KEY", cfg.AnonKey)
	cfg.Bucket = getEnv("GLOW_STORAGE_BUCKET", cfg.Bucket)
	cfg.StateBackend = getEnv("GLOW_STATE_BACKEND", cfg.StateBackend)
	cfg.StateDir = getEnv("GLOW_STATE_DIR", cfg.StateDir)
	cfg.RedisAddr = getEnv("GLOW_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPrefix = getEnv("GLOW_REDIS_PREFIX", cfg.RedisPrefix)
	cfg.HTTPAddr = getEnv("GLOW_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("GLOW_LOG_LEVEL", cfg.LogLevel)
	if origins := getEnv("GLOW_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	var err error
	if cfg.RemoteTimeout, err = getDuration("GLOW_REMOTE_TIMEOUT", cfg.RemoteTimeout); err != nil {
		return cfg, err
	}
	if cfg.UploadTimeout, err = getDuration("GLOW_UPLOAD_TIMEOUT", cfg.UploadTimeout); err != nil {
		return cfg, err
	}

	if cfg.BackendURL == "" {
		return cfg, fmt.Errorf("GLOW_BACKEND_URL is required")
	}
	if cfg.AnonKey == "" {
		return cfg, fmt.Errorf("GLOW_ANON_KEY is required")
	}
	return cfg, nil
}

// LoadEmulator reads .env, then EMULATOR_CONFIG_FILE if set, then
// EMULATOR_* variables
func LoadEmulator() (EmulatorConfig, error) {
	_ = godotenv.Load()

	cfg := EmulatorDefaults()
	if path := os.Getenv("EMULATOR_CONFIG_FILE"); path != "" {
		if err := readYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Addr = getEnv("EMULATOR_ADDR", cfg.Addr)
	cfg.AnonKey = getEnv("EMULATOR_ANON_KEY", cfg.AnonKey)
	cfg.JWTSecret = getEnv("EMULATOR_JWT_SECRET", cfg.JWTSecret)
	cfg.AdminEmail = getEnv("EMULATOR_ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("EMULATOR_ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.PublicURL = getEnv("EMULATOR_PUBLIC_URL", cfg.PublicURL)
	cfg.LogLevel = getEnv("EMULATOR_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.TokenTTL, err = getDuration("EMULATOR_TOKEN_TTL", cfg.TokenTTL); err != nil {
		return cfg, err
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("EMULATOR_JWT_SECRET is required")
	}
	return cfg, nil
}

// SetupLogging switches logrus to JSON output at level
func SetupLogging(level string) error {
	log.SetFormatter(&log.JSONFormatter{})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.SetLevel(log.InfoLevel)
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	return nil
}

func readYAML(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

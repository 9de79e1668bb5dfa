// Package config loads application configuration from .env files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// Expense platform.
	AppKey       string
	AppSecurity  string
	BaseURL      string
	PowerCode    string
	SubmitterID  string
	TemplateType string
	TemplateName string
	RateLimit    float64

	// Language model.
	DeepSeekAPIKey string
	DeepSeekAPIURL string
	DeepSeekModel  string

	ListenAddr     string
	TokenCacheFile string
	DBPath         string
	HTTPTimeout    time.Duration
	LogLevel       slog.Level
}

// Load reads configuration and returns a validated Config. The first .env
// file found in the working directory or its parent is loaded first;
// variables already set in the environment take precedence over it.
//
// Required: EK_APP_KEY, EK_APP_SECURITY, EK_SUBMITTER_ID, DEEPSEEK_API_KEY.
func Load() (*Config, error) {
	loadDotEnv(envPaths())

	rateLimit, err := getEnvFloat("EK_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}

	timeout, err := getEnvDuration("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	port := getEnvString("SERVER_PORT", "8000")
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("SERVER_PORT has invalid port %q: %w", port, err)
	}

	level, err := parseLevel(getEnvString("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppKey:       os.Getenv("EK_APP_KEY"),
		AppSecurity:  os.Getenv("EK_APP_SECURITY"),
		BaseURL:      strings.TrimRight(getEnvString("EK_BASE_URL", "https://app.ekuaibao.com/api/openapi"), "/"),
		PowerCode:    getEnvString("EK_POWER_CODE", "219904"),
		SubmitterID:  os.Getenv("EK_SUBMITTER_ID"),
		TemplateType: getEnvString("EK_TEMPLATE_TYPE", "requisition"),
		TemplateName: getEnvString("EK_TEMPLATE_NAME", "AI申请单"),
		RateLimit:    rateLimit,

		DeepSeekAPIKey: os.Getenv("DEEPSEEK_API_KEY"),
		DeepSeekAPIURL: getEnvString("DEEPSEEK_API_URL", "https://api.deepseek.com/chat/completions"),
		DeepSeekModel:  getEnvString("DEEPSEEK_MODEL", "deepseek-chat"),

		ListenAddr:     net.JoinHostPort(getEnvString("SERVER_HOST", "0.0.0.0"), port),
		TokenCacheFile: getEnvString("TOKEN_CACHE_FILE", ".token_cache.json"),
		DBPath:         getEnvString("DB_PATH", "requisitionbot.db"),
		HTTPTimeout:    timeout,
		LogLevel:       level,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for _, kv := range []struct{ key, value string }{
		{"EK_APP_KEY", c.AppKey},
		{"EK_APP_SECURITY", c.AppSecurity},
		{"EK_SUBMITTER_ID", c.SubmitterID},
		{"DEEPSEEK_API_KEY", c.DeepSeekAPIKey},
	} {
		if kv.value == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.RateLimit <= 0 {
		return errors.New("EK_RATE_LIMIT must be positive")
	}
	return nil
}

// envPaths returns the candidate .env locations, most specific first.
func envPaths() []string {
	cwd, err := os.Getwd()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
	}
}

// loadDotEnv loads the first existing file of paths. godotenv never
// overrides variables that are already set.
func loadDotEnv(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				slog.Warn("failed to load .env file", "path", path, "error", err)
			}
			return
		}
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid number %q: %w", key, v, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("30s", "1m") or a bare number of
// seconds.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("%s has invalid duration %q", key, v)
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL has invalid level %q: %w", v, err)
	}
	return level, nil
}

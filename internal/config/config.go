package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr        string
	AllowedOrigins    []string
	BotAPIBase        string
	BotAPIKey         string
	BotTimeout        time.Duration
	DatabasePath      string
	SessionSecret     string
	SessionCookieName string
	SessionMaxAge     time.Duration
	DataDir           string
	LogLevel          string
	LogFilePath       string
	LogMaxSizeMB      int
	LogMaxBackups     int
	LogMaxAgeDays     int
}

// fileConfig mirrors the optional YAML config file. Every value it carries
// can be overridden from the environment; secrets usually arrive via env.
type fileConfig struct {
	Server struct {
		ListenAddr     string   `yaml:"listen_addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Bot struct {
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"bot"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Session struct {
		Secret     string `yaml:"secret"`
		CookieName string `yaml:"cookie_name"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"session"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func LoadFromEnv() (Config, error) {
	file, err := loadFile(strings.TrimSpace(os.Getenv("MUSICWEB_CONFIG")))
	if err != nil {
		return Config{}, err
	}

	dataDir := defaultString(os.Getenv("DATA_DIR"), "./data")

	botTimeoutMs, err := parseIntWithDefault("BOT_HTTP_TIMEOUT_MS", intOr(file.Bot.TimeoutMs, 10000))
	if err != nil {
		return Config{}, err
	}
	sessionMaxAgeDays, err := parseIntWithDefault("SESSION_MAX_AGE_DAYS", intOr(file.Session.MaxAgeDays, 14))
	if err != nil {
		return Config{}, err
	}

	origins := file.Server.AllowedOrigins
	if raw := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); raw != "" {
		origins = splitCommaList(raw)
	}

	cfg := Config{
		ListenAddr:        defaultString(os.Getenv("LISTEN_ADDR"), defaultString(file.Server.ListenAddr, ":8080")),
		AllowedOrigins:    origins,
		BotAPIBase:        defaultString(os.Getenv("BOT_HTTP_API_BASE"), defaultString(file.Bot.BaseURL, "http://127.0.0.1:5001")),
		BotAPIKey:         defaultString(os.Getenv("BOT_HTTP_API_KEY"), file.Bot.APIKey),
		BotTimeout:        time.Duration(botTimeoutMs) * time.Millisecond,
		DatabasePath:      defaultString(os.Getenv("DATABASE_PATH"), defaultString(file.Database.Path, filepath.Join(dataDir, "musicbot.db"))),
		SessionSecret:     defaultString(os.Getenv("SESSION_SECRET"), file.Session.Secret),
		SessionCookieName: defaultString(os.Getenv("SESSION_COOKIE_NAME"), defaultString(file.Session.CookieName, "musicweb_session")),
		SessionMaxAge:     time.Duration(sessionMaxAgeDays) * 24 * time.Hour,
		DataDir:           dataDir,
		LogLevel:          defaultString(os.Getenv("LOG_LEVEL"), defaultString(file.Logging.Level, "info")),
		LogFilePath:       filepath.Join(dataDir, "logs", "musicweb.log"),
		LogMaxSizeMB:      10,
		LogMaxBackups:     5,
		LogMaxAgeDays:     14,
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if cfg.BotAPIBase == "" {
		return errors.New("BOT_HTTP_API_BASE is required")
	}
	if cfg.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if cfg.BotTimeout <= 0 {
		return fmt.Errorf("BOT_HTTP_TIMEOUT_MS must be > 0: got %d", cfg.BotTimeout.Milliseconds())
	}
	if cfg.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_DAYS must be > 0: got %s", cfg.SessionMaxAge)
	}
	return nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	if path == "" {
		return file, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return file, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

func parseIntWithDefault(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be integer: %w", key, err)
	}
	return v, nil
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func intOr(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

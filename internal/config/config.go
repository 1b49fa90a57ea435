package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Settings are the plugin-wide values the notifiers and the scanner read.
// They are passed to components at construction instead of being looked up
// globally.
type Settings struct {
	DefaultTimezone string
	WebhookURL      string // global Google Chat webhook
	DisplayWatchers bool
	PostUpdates     bool
	PostWikiUpdates bool
	SlackURL        string
	SlackChannel    string
	SlackUsername   string
	SlackIcon       string
	HostName        string
	Protocol        string
}

type Config struct {
	DatabaseURI     string
	Port            int
	TelegramToken   string
	ScanConcurrency int
	ScanCron        string
	HTTPTimeout     time.Duration
	LogLevel        slog.Level
	LogFormat       string

	Settings Settings
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// .env file is optional in production
	_ = godotenv.Load()

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("parse PORT: %w", err)
	}

	concurrency, err := getEnvInt("SCAN_CONCURRENCY", 4)
	if err != nil {
		return nil, fmt.Errorf("parse SCAN_CONCURRENCY: %w", err)
	}

	timeout, err := getEnvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_TIMEOUT: %w", err)
	}

	displayWatchers, err := getEnvBool("DISPLAY_WATCHERS", false)
	if err != nil {
		return nil, fmt.Errorf("parse DISPLAY_WATCHERS: %w", err)
	}

	postUpdates, err := getEnvBool("POST_UPDATES", true)
	if err != nil {
		return nil, fmt.Errorf("parse POST_UPDATES: %w", err)
	}

	postWikiUpdates, err := getEnvBool("POST_WIKI_UPDATES", false)
	if err != nil {
		return nil, fmt.Errorf("parse POST_WIKI_UPDATES: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		DatabaseURI:     os.Getenv("DATABASE_URI"),
		Port:            port,
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		ScanConcurrency: concurrency,
		ScanCron:        getEnvOrDefault("SCAN_CRON", "* * * * *"),
		HTTPTimeout:     timeout,
		LogLevel:        level,
		LogFormat:       strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
		Settings: Settings{
			DefaultTimezone: os.Getenv("DEFAULT_TIMEZONE"),
			WebhookURL:      os.Getenv("GOOGLE_CHAT_WEBHOOK_URL"),
			DisplayWatchers: displayWatchers,
			PostUpdates:     postUpdates,
			PostWikiUpdates: postWikiUpdates,
			SlackURL:        os.Getenv("SLACK_URL"),
			SlackChannel:    os.Getenv("SLACK_CHANNEL"),
			SlackUsername:   getEnvOrDefault("SLACK_USERNAME", "redmine"),
			SlackIcon:       os.Getenv("SLACK_ICON"),
			HostName:        os.Getenv("HOST_NAME"),
			Protocol:        getEnvOrDefault("PROTOCOL", "http"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}
	if c.ScanConcurrency < 1 {
		return fmt.Errorf("SCAN_CONCURRENCY must be at least 1, got %d", c.ScanConcurrency)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger described by LOG_LEVEL and LOG_FORMAT.
func (c *Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// URL returns the public link of a tracker path, relative when no host is set.
func (s Settings) URL(path string) string {
	if s.HostName == "" {
		return path
	}
	return fmt.Sprintf("%s://%s%s", s.Protocol, s.HostName, path)
}

func (s Settings) IssueURL(issueID int64) string {
	return s.URL(fmt.Sprintf("/issues/%d", issueID))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}

// getEnvBool also accepts the "1"/"0" the plugin settings used.
func getEnvBool(key string, defaultValue bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(v)
}

// Package config provides client configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iklavya/coach"
	"github.com/iklavya/coach/api"
	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	APIURL        string
	Token         string
	TranscriptDir string
	LogFile       string
	LogLevel      slog.Level
	Telemetry     bool
	TelemetryDir  string
	MaxContent    int
}

// Load reads configuration from the environment. Variables from envFile
// fill in anything the process environment does not set; a missing file is
// ignored.
func Load(envFile string) (*Config, error) {
	fileEnv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileEnv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", envFile, err)
		}
	}
	return FromEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

// FromEnv builds a Config from lookup, which reports a variable's value and
// whether it is set.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	e := env(lookup)
	home := homeDir()

	level, err := parseLevel(e.str("COACH_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		APIURL:        strings.TrimRight(e.str("COACH_API_URL", api.DefaultBaseURL), "/"),
		Token:         e.str("COACH_TOKEN", ""),
		TranscriptDir: e.str("COACH_TRANSCRIPT_DIR", filepath.Join(home, "transcripts")),
		LogFile:       e.str("COACH_LOG_FILE", filepath.Join(home, "logs", "coach.log")),
		LogLevel:      level,
		Telemetry:     e.boolean("COACH_TELEMETRY", false),
		TelemetryDir:  e.str("COACH_TELEMETRY_DIR", filepath.Join(home, "telemetry")),
		MaxContent:    e.integer("COACH_MAX_CONTENT", coach.DefaultMaxContent),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("COACH_API_URL cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("COACH_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if c.TranscriptDir == "" {
		return fmt.Errorf("COACH_TRANSCRIPT_DIR cannot be empty")
	}
	if c.LogFile == "" {
		return fmt.Errorf("COACH_LOG_FILE cannot be empty")
	}
	if c.Telemetry && c.TelemetryDir == "" {
		return fmt.Errorf("COACH_TELEMETRY_DIR cannot be empty when telemetry is on")
	}
	if c.MaxContent <= 0 {
		return fmt.Errorf("COACH_MAX_CONTENT must be > 0")
	}
	return nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".coach")
	}
	return ".coach"
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("COACH_LOG_LEVEL: %w", err)
	}
	return l, nil
}

type env func(string) (string, bool)

func (e env) str(key, fallback string) string {
	if value, ok := e(key); ok {
		return value
	}
	return fallback
}

func (e env) boolean(key string, fallback bool) bool {
	value, ok := e(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func (e env) integer(key string, fallback int) int {
	value, ok := e(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

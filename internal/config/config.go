// Package config resolves runtime settings from the environment, a .env file
// in the working directory, and key files under ~/.restream.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for settings that are not provided by the environment.
const (
	DefaultRacetimeURL = "https://racetime.gg"
	DefaultMidosURL    = "https://midos.house/api/v1/graphql"
	DefaultRacetimeRPM = 60
	DefaultMidosRPM    = 60
	DefaultAPIAddr     = ":8080"
	DefaultLogLevel    = "info"
)

// Dir is the per-user directory holding the database and key files.
const Dir = ".restream"

// Config holds the resolved settings.
type Config struct {
	RacetimeURL string
	MidosURL    string
	RacetimeRPM int
	MidosRPM    int
	LogLevel    string
	APIAddr     string
	CORSOrigins []string
}

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		RacetimeURL: strings.TrimRight(envOr("RACETIME_BASE_URL", DefaultRacetimeURL), "/"),
		MidosURL:    envOr("MIDOS_HOUSE_URL", DefaultMidosURL),
		RacetimeRPM: DefaultRacetimeRPM,
		MidosRPM:    DefaultMidosRPM,
		LogLevel:    envOr("LOG_LEVEL", DefaultLogLevel),
		APIAddr:     envOr("RESTREAM_API_ADDR", DefaultAPIAddr),
		CORSOrigins: splitList(os.Getenv("RESTREAM_CORS_ORIGINS")),
	}
	var err error
	if cfg.RacetimeRPM, err = envRPM("RACETIME_RPM", cfg.RacetimeRPM); err != nil {
		return nil, err
	}
	if cfg.MidosRPM, err = envRPM("MIDOS_HOUSE_RPM", cfg.MidosRPM); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envRPM(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// DefaultDBPath returns ~/.restream/races.db, or races.db in the working
// directory when the home directory cannot be resolved.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "races.db"
	}
	return filepath.Join(home, Dir, "races.db")
}

// AnthropicAPIKey returns ANTHROPIC_API_KEY, falling back to
// ~/.restream/anthropic_api_key.
func AnthropicAPIKey() (string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(home, Dir, "anthropic_api_key"))
	if err != nil {
		return "", fmt.Errorf("Anthropic API key not found: set ANTHROPIC_API_KEY or create ~/%s/anthropic_api_key", Dir)
	}
	return strings.TrimSpace(string(data)), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"RACETIME_BASE_URL", "MIDOS_HOUSE_URL", "RACETIME_RPM", "MIDOS_HOUSE_RPM", "LOG_LEVEL", "RESTREAM_API_ADDR", "RESTREAM_CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RacetimeURL != DefaultRacetimeURL {
		t.Errorf("RacetimeURL: want %s, got %s", DefaultRacetimeURL, cfg.RacetimeURL)
	}
	if cfg.RacetimeRPM != DefaultRacetimeRPM {
		t.Errorf("RacetimeRPM: want %d, got %d", DefaultRacetimeRPM, cfg.RacetimeRPM)
	}
	if cfg.MidosRPM != DefaultMidosRPM {
		t.Errorf("MidosRPM: want %d, got %d", DefaultMidosRPM, cfg.MidosRPM)
	}
	if cfg.APIAddr != DefaultAPIAddr {
		t.Errorf("APIAddr: want %s, got %s", DefaultAPIAddr, cfg.APIAddr)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Errorf("CORSOrigins: want none, got %v", cfg.CORSOrigins)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RACETIME_BASE_URL", "http://localhost:9000/")
	t.Setenv("RACETIME_RPM", "120")
	t.Setenv("MIDOS_HOUSE_RPM", "10")
	t.Setenv("RESTREAM_CORS_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RacetimeURL != "http://localhost:9000" {
		t.Errorf("RacetimeURL: want trailing slash trimmed, got %s", cfg.RacetimeURL)
	}
	if cfg.RacetimeRPM != 120 {
		t.Errorf("RacetimeRPM: want 120, got %d", cfg.RacetimeRPM)
	}
	if cfg.MidosRPM != 10 {
		t.Errorf("MidosRPM: want 10, got %d", cfg.MidosRPM)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins: want %v, got %v", want, cfg.CORSOrigins)
	}
}

func TestLoad_BadRPM(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"RACETIME_RPM", "MIDOS_HOUSE_RPM"} {
		for _, v := range []string{"fast", "0", "-3"} {
			t.Setenv(key, v)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q: want error, got nil", key, v)
			}
		}
		t.Setenv(key, "")
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: want debug from .env, got %s", cfg.LogLevel)
	}
}

func TestAnthropicAPIKey_FromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ANTHROPIC_API_KEY", "")

	if _, err := AnthropicAPIKey(); err == nil {
		t.Fatal("want error when no key is configured")
	}
	if err := os.MkdirAll(filepath.Join(home, Dir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, Dir, "anthropic_api_key"), []byte("sk-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	key, err := AnthropicAPIKey()
	if err != nil {
		t.Fatalf("AnthropicAPIKey: %v", err)
	}
	if key != "sk-test" {
		t.Errorf("want sk-test, got %q", key)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	if key, _ := AnthropicAPIKey(); key != "sk-env" {
		t.Errorf("env should win: want sk-env, got %q", key)
	}
}

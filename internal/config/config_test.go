package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonkt/weatherlight/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetLevel("error")
	os.Exit(m.Run())
}

func TestNewStoreMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.json"))
	if got := s.Get(); got != Default() {
		t.Errorf("Get() = %+v, want defaults", got)
	}
}

func TestStoreUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := NewStore(path)

	next := Default()
	next.Provider = ProviderOpenWeatherMap
	next.APIKey = "abc123"
	next.Location = "Oslo, Norway"
	next.AutoLocation = false
	next.MaxBrightness = 80
	if err := s.Update(next); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := s.Get(); got != next {
		t.Errorf("Get() = %+v, want %+v", got, next)
	}

	reloaded := NewStore(path)
	if got := reloaded.Get(); got != next {
		t.Errorf("reloaded = %+v, want %+v", got, next)
	}
}

func TestStoreKeepsFrozenFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewStore(path)
	if err := s.Update(Default()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, field := range []string{
		`"provider"`, `"unit"`, `"autoLocation"`, `"location"`, `"apiKey"`,
		`"pulse"`, `"pulseSpeed"`, `"maxBrightness"`, `"sunsetSunrise"`,
		`"tempHorizon"`, `"precipHorizon"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("persisted JSON missing field %s", field)
		}
	}
}

func TestNewStorePartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"provider":"openweathermap","pulseSpeed":2000}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got := NewStore(path).Get()
	if got.Provider != ProviderOpenWeatherMap || got.PulseSpeedMs != 2000 {
		t.Errorf("overridden fields lost: %+v", got)
	}
	if got.Unit != "C" || got.MaxBrightness != 60 || !got.Pulse {
		t.Errorf("missing fields did not default: %+v", got)
	}
}

func TestNewStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if got := NewStore(path).Get(); got != Default() {
		t.Errorf("corrupt file did not fall back to defaults: %+v", got)
	}
}

func TestSettingsValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"provider", func(s *Settings) { s.Provider = "weatherdotcom" }},
		{"unit", func(s *Settings) { s.Unit = "K" }},
		{"temp horizon", func(s *Settings) { s.TempHorizon = "next_week" }},
		{"precip horizon", func(s *Settings) { s.PrecipHorizon = "sometimes" }},
		{"brightness", func(s *Settings) { s.MaxBrightness = 150 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("invalid settings passed validation")
			}
		})
	}
}

func TestStoreUpdateRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewStore(path)

	bad := Default()
	bad.Provider = "nope"
	if err := s.Update(bad); err == nil {
		t.Fatal("Update accepted invalid settings")
	}
	if got := s.Get(); got != Default() {
		t.Errorf("failed update mutated settings: %+v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed update wrote a file")
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "0.0.0.0:9999")
	t.Setenv("LIGHT_TYPE", "LIFX")
	t.Setenv("REFRESH_INTERVAL", "30s")

	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if e.ListenAddr != "0.0.0.0:9999" || e.LightType != "LIFX" {
		t.Errorf("env overrides lost: %+v", e)
	}
	if e.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v, want 30s", e.RefreshInterval)
	}
	if e.LogLevel != "info" && os.Getenv("LOG_LEVEL") == "" {
		t.Errorf("LogLevel default = %q, want info", e.LogLevel)
	}
}

// Package config holds the two configuration layers: process level options
// read from environment variables once at startup, and user settings that
// change at runtime and persist as JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env"
	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/logging"
)

var logger = logging.New("config")

const (
	ProviderOpenMeteo      = "open-meteo"
	ProviderOpenWeatherMap = "openweathermap"

	LightTypeBusylight = "BUSYLIGHT"
	LightTypeLifx      = "LIFX"
)

// Env is the process configuration.
type Env struct {
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8686"`
	LightType       string        `env:"LIGHT_TYPE" envDefault:"BUSYLIGHT"`
	LifxGroupName   string        `env:"LIFX_GROUP_NAME" envDefault:""`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"15m"`
	ConfigPath      string        `env:"CONFIG_PATH" envDefault:""`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv reads Env from the environment.
func ParseEnv() (Env, error) {
	var e Env
	err := env.Parse(&e)
	return e, err
}

// Settings are the user facing options. The JSON field names are frozen;
// config files written by earlier desktop releases must keep loading.
type Settings struct {
	Provider      string `json:"provider"`
	Unit          string `json:"unit"`
	AutoLocation  bool   `json:"autoLocation"`
	Location      string `json:"location"`
	APIKey        string `json:"apiKey"`
	Pulse         bool   `json:"pulse"`
	PulseSpeedMs  uint64 `json:"pulseSpeed"`
	MaxBrightness uint8  `json:"maxBrightness"`
	SunsetSunrise bool   `json:"sunsetSunrise"`
	TempHorizon   string `json:"tempHorizon"`
	PrecipHorizon string `json:"precipHorizon"`
}

// Default returns the settings a fresh install starts with.
func Default() Settings {
	return Settings{
		Provider:      ProviderOpenMeteo,
		Unit:          "C",
		AutoLocation:  true,
		Location:      "",
		APIKey:        "",
		Pulse:         true,
		PulseSpeedMs:  5000,
		MaxBrightness: 60,
		SunsetSunrise: false,
		TempHorizon:   "current",
		PrecipHorizon: "immediate",
	}
}

// Validate rejects values the weather providers cannot handle.
func (s Settings) Validate() error {
	switch s.Provider {
	case ProviderOpenMeteo, ProviderOpenWeatherMap:
	default:
		return fmt.Errorf("unknown provider %q", s.Provider)
	}
	switch s.Unit {
	case "C", "F":
	default:
		return fmt.Errorf("unknown unit %q", s.Unit)
	}
	switch s.TempHorizon {
	case "current", "short_high", "today_high", "day_high":
	default:
		return fmt.Errorf("unknown temp horizon %q", s.TempHorizon)
	}
	switch s.PrecipHorizon {
	case "none", "immediate", "short", "today", "day":
	default:
		return fmt.Errorf("unknown precip horizon %q", s.PrecipHorizon)
	}
	if s.MaxBrightness > 100 {
		return fmt.Errorf("max brightness %d out of range", s.MaxBrightness)
	}
	return nil
}

// DefaultPath resolves the per user config file, in the same place the
// desktop releases kept it.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "WeatherLight", "config.json")
}

// Store serializes access to the persisted settings.
type Store struct {
	mu   sync.Mutex
	path string
	cur  Settings
}

// NewStore loads the settings at path, falling back to defaults when the
// file is missing or unreadable. An empty path selects DefaultPath. Fields
// absent from an older config file keep their defaults.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	s := &Store{path: path, cur: Default()}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.With(zap.Error(err)).Warn("Could not read settings, using defaults")
		}
		return s
	}
	next := Default()
	if err := json.Unmarshal(data, &next); err != nil {
		logger.With(zap.Error(err)).Warn("Could not parse settings, using defaults")
		return s
	}
	s.cur = next
	return s
}

// Get returns the current settings snapshot.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update validates, persists and installs new settings.
func (s *Store) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return err
	}
	s.cur = next
	return nil
}

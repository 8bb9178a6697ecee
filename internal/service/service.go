// Package service runs the weather to light pipeline: fetch on an interval,
// map the temperature to a color, and drive whichever light backend is
// wired in. Manual mode gates every weather driven write so a user override
// is never stomped by a background refresh.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/busylight"
	"github.com/jonkt/weatherlight/internal/colorscale"
	"github.com/jonkt/weatherlight/internal/config"
	"github.com/jonkt/weatherlight/internal/logging"
	"github.com/jonkt/weatherlight/internal/weather"
	"github.com/jonkt/weatherlight/lights"
)

var logger = logging.New("service")

// Fetcher is the slice of the weather service the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, cfg config.Settings) (*weather.Weather, error)
}

// ManualState is a caller supplied light override, applied only while
// manual mode is on.
type ManualState struct {
	Temp          float64 `json:"temp"`
	Pulse         bool    `json:"pulse"`
	PulseSpeedMs  uint64  `json:"pulseSpeed"`
	MaxBrightness uint8   `json:"maxBrightness"`
}

// Snapshot is the externally visible pipeline state.
type Snapshot struct {
	Status         string `json:"status"`
	Color          string `json:"color"`
	ManualMode     bool   `json:"manualMode"`
	LightConnected bool   `json:"lightConnected"`
}

type Service struct {
	store   *config.Store
	fetcher Fetcher
	light   lights.Service

	refreshEvery time.Duration
	refresh      chan struct{}

	mu      sync.Mutex
	weather *weather.Weather
	status  string
	color   string
	manual  bool
}

func New(store *config.Store, fetcher Fetcher, light lights.Service, refreshEvery time.Duration) *Service {
	return &Service{
		store:        store,
		fetcher:      fetcher,
		light:        light,
		refreshEvery: refreshEvery,
		refresh:      make(chan struct{}, 1),
		status:       "Starting",
	}
}

// Run fetches immediately, then again on every tick or RefreshNow request
// until the context ends.
func (s *Service) Run(ctx context.Context) {
	s.update(ctx)

	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.update(ctx)
		case <-s.refresh:
			s.update(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// RefreshNow requests an immediate pipeline run. Requests coalesce while
// one is already queued.
func (s *Service) RefreshNow() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (s *Service) update(ctx context.Context) {
	cfg := s.store.Get()

	if (cfg.Location == "" && !cfg.AutoLocation) ||
		(cfg.Provider == config.ProviderOpenWeatherMap && cfg.APIKey == "") {
		s.setStatus("Setup Required")
		return
	}

	w, err := s.fetcher.Fetch(ctx, cfg)
	if err != nil {
		logger.With(zap.Error(err)).Warn("Weather update failed")
		s.setStatus("Error fetching weather")
		if !s.ManualMode() {
			s.light.Off()
		}
		return
	}

	nightMode := cfg.SunsetSunrise && w.IsNight
	color := colorscale.ColorForTemp(w.Temperature)
	hex := colorscale.FormatHex(color)
	status := statusLine(w, cfg, nightMode)

	s.mu.Lock()
	s.weather = w
	s.status = status
	s.color = hex
	manual := s.manual
	s.mu.Unlock()

	logger.With(
		zap.String("status", status),
		zap.String("color", hex),
		zap.Bool("manual", manual)).
		Info("Weather updated")

	if manual {
		return
	}

	switch {
	case nightMode || color == (lights.Color{}):
		s.light.Off()
	case w.HasPrecipitation && cfg.Pulse:
		s.light.SetPulse(color, cfg.MaxBrightness, cfg.MaxBrightness/2,
			time.Duration(cfg.PulseSpeedMs)*time.Millisecond)
	default:
		s.light.SetSolid(busylight.ApplyBrightness(color, cfg.MaxBrightness))
	}
}

// statusLine renders the short form shown in the UI, e.g. "Oslo: 21°C" with
// optional " (Precip)" and " (Night)" markers.
func statusLine(w *weather.Weather, cfg config.Settings, nightMode bool) string {
	short, _, _ := strings.Cut(w.LocationName, ",")
	temp := w.Temperature
	if cfg.Unit == "F" {
		temp = temp*9.0/5.0 + 32.0
	}
	line := fmt.Sprintf("%s: %d°%s", short, int(math.Round(temp)), cfg.Unit)
	if w.HasPrecipitation {
		line += " (Precip)"
	}
	if nightMode {
		line += " (Night)"
	}
	return line
}

func (s *Service) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// SetManualMode flips the override gate. Leaving manual mode schedules a
// refresh so the weather color comes back without waiting out the interval.
func (s *Service) SetManualMode(enabled bool) {
	s.mu.Lock()
	s.manual = enabled
	s.mu.Unlock()
	if !enabled {
		s.RefreshNow()
	}
}

func (s *Service) ManualMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manual
}

// ApplyManual drives the light directly while manual mode is on. A pulse
// override is always blue; a solid override reuses the temperature scale.
func (s *Service) ApplyManual(m ManualState) {
	if !s.ManualMode() {
		return
	}
	if m.Pulse {
		blue := lights.Color{Blue: 255}
		s.light.SetPulse(blue, m.MaxBrightness, m.MaxBrightness/2,
			time.Duration(m.PulseSpeedMs)*time.Millisecond)
		return
	}
	s.light.SetSolid(busylight.ApplyBrightness(colorscale.ColorForTemp(m.Temp), m.MaxBrightness))
}

// Weather returns the last successful fetch, or nil before the first one.
func (s *Service) Weather() *weather.Weather {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weather
}

func (s *Service) Snapshot() Snapshot {
	connected := s.light.Connected()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:         s.status,
		Color:          s.color,
		ManualMode:     s.manual,
		LightConnected: connected,
	}
}

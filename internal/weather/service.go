// Package weather resolves where the machine is and what the sky is doing
// there, through one of two public providers: Open-Meteo (keyless) or
// OpenWeatherMap (API key required).
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonkt/weatherlight/internal/config"
	"github.com/jonkt/weatherlight/internal/logging"
	"github.com/jonkt/weatherlight/internal/metrics"
)

var logger = logging.New("weather")

// ErrNoLocation means neither auto detection nor the configured manual
// location produced coordinates.
var ErrNoLocation = errors.New("weather: no location set")

// Service queries the providers. The endpoint fields exist so tests can
// point it at local servers; now is injectable for the clock dependent
// horizon and night math.
type Service struct {
	client *http.Client

	openMeteoURL    string
	openMeteoGeoURL string
	owmURL          string
	owmGeoURL       string
	ipAPIURL        string

	now func() time.Time
}

func New() *Service {
	return &Service{
		client:          &http.Client{Timeout: 10 * time.Second},
		openMeteoURL:    "https://api.open-meteo.com/v1/forecast",
		openMeteoGeoURL: "https://geocoding-api.open-meteo.com/v1/search",
		owmURL:          "https://api.openweathermap.org/data/2.5",
		owmGeoURL:       "https://api.openweathermap.org/geo/1.0/direct",
		ipAPIURL:        "http://ip-api.com/json/",
		now:             time.Now,
	}
}

// Fetch resolves a location per the settings, then queries the configured
// provider. Auto detection wins when enabled and reachable; the manual
// location is the fallback.
func (s *Service) Fetch(ctx context.Context, cfg config.Settings) (*Weather, error) {
	useOWM := cfg.Provider == config.ProviderOpenWeatherMap && cfg.APIKey != ""

	var (
		lat, lon float64
		name     string
		found    bool
	)
	if cfg.AutoLocation {
		detected, err := s.DetectLocation(ctx)
		if err != nil {
			logger.With(zap.Error(err)).Debug("Auto location failed")
		} else if detected != nil {
			lat, lon = detected.Lat, detected.Lon
			name = detected.City + ", " + detected.Country
			found = true
		}
	}
	if !found && cfg.Location != "" {
		var (
			geo *Location
			err error
		)
		if useOWM {
			geo, err = s.geocodeOpenWeatherMap(ctx, cfg.Location, cfg.APIKey)
		} else {
			geo, err = s.geocodeOpenMeteo(ctx, cfg.Location)
		}
		if err != nil {
			logger.With(zap.Error(err)).Debug("Geocoding failed")
		} else if geo != nil {
			lat, lon = geo.Lat, geo.Lon
			name = geo.City
			found = true
		}
	}
	if !found {
		return nil, ErrNoLocation
	}
	if name == "" {
		name = "Unknown"
	}

	providerLabel := config.ProviderOpenMeteo
	fetch := s.fetchOpenMeteo
	if useOWM {
		providerLabel = config.ProviderOpenWeatherMap
		fetch = s.fetchOpenWeatherMap
	}
	w, err := fetch(ctx, lat, lon, name, cfg)
	if err != nil {
		metrics.WeatherFetches.WithLabelValues(providerLabel, "error").Inc()
		return nil, err
	}
	metrics.WeatherFetches.WithLabelValues(providerLabel, "ok").Inc()
	return w, nil
}

// DetectLocation asks ip-api.com where this machine appears to be. A nil
// result with nil error means the service answered but could not place us.
func (s *Service) DetectLocation(ctx context.Context) (*Location, error) {
	var out struct {
		Status  string  `json:"status"`
		Country string  `json:"country"`
		City    string  `json:"city"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := s.getJSON(ctx, s.ipAPIURL+"?fields=status,country,city,lat,lon", &out); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, nil
	}
	return &Location{Lat: out.Lat, Lon: out.Lon, City: out.City, Country: out.Country}, nil
}

// ValidateLocation checks whether a manual location resolves to somewhere.
func (s *Service) ValidateLocation(ctx context.Context, location string) ValidationResult {
	geo, err := s.geocodeOpenMeteo(ctx, location)
	if err != nil || geo == nil {
		msg := "Location not found"
		return ValidationResult{Valid: false, Error: &msg}
	}
	return ValidationResult{Valid: true, Name: &geo.City}
}

// isNight compares clock times only. Open-Meteo reports sunrise and sunset
// for sequential future days, and far from GMT the pair can arrive in
// wrapped order, where night is the span between sunset and sunrise.
func (s *Service) isNight(sun SunTimes) bool {
	if sun.Sunrise == nil || sun.Sunset == nil {
		return false
	}
	now := timeOfDay(s.now().UTC())
	sunrise := timeOfDay(sun.Sunrise.UTC())
	sunset := timeOfDay(sun.Sunset.UTC())
	if sunrise < sunset {
		return now < sunrise || now > sunset
	}
	return now < sunrise && now > sunset
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

func (s *Service) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// splitQuery separates "City, Region" style input into the search term and
// a lowercased qualifier used to pick between ambiguous matches.
func splitQuery(location string) (term, qualifier string) {
	parts := strings.Split(location, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	term = parts[0]
	if len(parts) > 1 {
		qualifier = strings.ToLower(strings.Join(parts[1:], " "))
	}
	return term, qualifier
}

func valueAt(arr []float64, i int) float64 {
	if i < len(arr) {
		return arr[i]
	}
	return 0
}

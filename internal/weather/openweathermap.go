package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/jonkt/weatherlight/internal/config"
)

type owmForecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp    float64 `json:"temp"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Pop  float64 `json:"pop"`
	Rain *struct {
		ThreeHour float64 `json:"3h"`
	} `json:"rain"`
	Snow *struct {
		ThreeHour float64 `json:"3h"`
	} `json:"snow"`
}

func (s *Service) fetchOpenWeatherMap(ctx context.Context, lat, lon float64, name string, cfg config.Settings) (*Weather, error) {
	var current struct {
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Sys struct {
			Sunrise *int64 `json:"sunrise"`
			Sunset  *int64 `json:"sunset"`
		} `json:"sys"`
	}
	currentURL := fmt.Sprintf("%s/weather?lat=%v&lon=%v&appid=%s&units=metric", s.owmURL, lat, lon, cfg.APIKey)
	if err := s.getJSON(ctx, currentURL, &current); err != nil {
		return nil, fmt.Errorf("openweathermap current: %w", err)
	}

	sun := SunTimes{
		Sunrise: unixTime(current.Sys.Sunrise),
		Sunset:  unixTime(current.Sys.Sunset),
	}

	var forecast struct {
		List []owmForecastEntry `json:"list"`
	}
	forecastURL := fmt.Sprintf("%s/forecast?lat=%v&lon=%v&appid=%s&units=metric", s.owmURL, lat, lon, cfg.APIKey)
	if err := s.getJSON(ctx, forecastURL, &forecast); err != nil {
		return nil, fmt.Errorf("openweathermap forecast: %w", err)
	}
	if forecast.List == nil {
		return nil, errors.New("openweathermap forecast: no forecast data")
	}
	list := forecast.List

	// The forecast comes in 3 hour blocks rather than hours.
	hoursLeft := 24.0 - float64(s.now().Hour())
	blocksLeftToday := int(math.Ceil(hoursLeft / 3.0))
	precipBlocks := owmPrecipWindow(cfg.PrecipHorizon, blocksLeftToday)
	tempBlocks := owmTempWindow(cfg.TempHorizon, blocksLeftToday)

	temperature := current.Main.Temp
	if tempBlocks > 0 && len(list) > 0 {
		limit := min(tempBlocks, len(list))
		for _, item := range list[:limit] {
			if item.Main.TempMax > temperature {
				temperature = item.Main.TempMax
			}
		}
	}

	hasPrecip := false
	if precipBlocks > 0 && len(list) > 0 {
		limit := min(precipBlocks, len(list))
		for _, item := range list[:limit] {
			var rain, snow float64
			if item.Rain != nil {
				rain = item.Rain.ThreeHour
			}
			if item.Snow != nil {
				snow = item.Snow.ThreeHour
			}
			if item.Pop >= 0.35 || rain >= 0.5 || snow >= 0.5 {
				hasPrecip = true
				break
			}
		}
	}

	var items []ForecastItem
	limit := min(16, len(list))
	for _, item := range list[:limit] {
		precipType := "None"
		if item.Snow != nil {
			precipType = "Snow"
		} else if item.Rain != nil {
			precipType = "Rain"
		}
		items = append(items, ForecastItem{
			Time:       time.Unix(item.Dt, 0).UTC(),
			Temp:       item.Main.Temp,
			PrecipProb: item.Pop * 100,
			PrecipType: precipType,
		})
	}

	return &Weather{
		Temperature:      temperature,
		HasPrecipitation: hasPrecip,
		LocationName:     name,
		SunTimes:         sun,
		IsNight:          s.isNight(sun),
		Provider:         "OpenWeatherMap",
		LastUpdated:      s.now().UTC(),
		DebugForecast:    items,
	}, nil
}

func (s *Service) geocodeOpenWeatherMap(ctx context.Context, location, apiKey string) (*Location, error) {
	term, qualifier := splitQuery(location)
	u := fmt.Sprintf("%s?q=%s&limit=5&appid=%s", s.owmGeoURL, url.QueryEscape(term), apiKey)

	var results []struct {
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		Name    string  `json:"name"`
		Country string  `json:"country"`
		State   string  `json:"state"`
	}
	if err := s.getJSON(ctx, u, &results); err != nil {
		return nil, fmt.Errorf("openweathermap geocode: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	best := results[0]
	if qualifier != "" {
		for _, r := range results {
			country := strings.ToLower(r.Country)
			state := strings.ToLower(r.State)
			if country == qualifier || strings.Contains(state, qualifier) ||
				strings.Contains(qualifier, state) ||
				(len(qualifier) == 2 && country == qualifier) {
				best = r
				break
			}
		}
	}

	display := best.Name + ", " + best.Country
	if best.State != "" {
		display = best.Name + ", " + best.State + ", " + best.Country
	}
	return &Location{Lat: best.Lat, Lon: best.Lon, City: display, Country: best.Country}, nil
}

// owmPrecipWindow maps a precipitation horizon onto 3 hour blocks.
func owmPrecipWindow(horizon string, blocksLeftToday int) int {
	switch horizon {
	case "none":
		return 0
	case "short":
		return 2
	case "today":
		return blocksLeftToday
	case "day":
		return 8
	default: // "immediate"
		return 1
	}
}

// owmTempWindow maps a temperature horizon onto 3 hour blocks; zero means
// "use the current reading".
func owmTempWindow(horizon string, blocksLeftToday int) int {
	switch horizon {
	case "short_high":
		return 2
	case "today_high":
		return blocksLeftToday
	case "day_high":
		return 8
	default: // "current"
		return 0
	}
}

func unixTime(ts *int64) *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Unix(*ts, 0).UTC()
	return &t
}

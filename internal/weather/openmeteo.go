package weather

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonkt/weatherlight/internal/config"
)

type openMeteoResponse struct {
	Hourly struct {
		Time                     []string  `json:"time"`
		Temperature2m            []float64 `json:"temperature_2m"`
		PrecipitationProbability []float64 `json:"precipitation_probability"`
		Rain                     []float64 `json:"rain"`
		Showers                  []float64 `json:"showers"`
		Snowfall                 []float64 `json:"snowfall"`
	} `json:"hourly"`
	Daily struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

func (s *Service) fetchOpenMeteo(ctx context.Context, lat, lon float64, name string, cfg config.Settings) (*Weather, error) {
	u := fmt.Sprintf(
		"%s?latitude=%v&longitude=%v&hourly=temperature_2m,precipitation_probability,rain,showers,snowfall&daily=sunrise,sunset&timezone=GMT&forecast_days=2",
		s.openMeteoURL, lat, lon,
	)
	var out openMeteoResponse
	if err := s.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("open-meteo forecast: %w", err)
	}

	sun := SunTimes{
		Sunrise: parseOpenMeteoTime(first(out.Daily.Sunrise)),
		Sunset:  parseOpenMeteoTime(first(out.Daily.Sunset)),
	}

	// The hourly arrays start at midnight GMT; locate the bucket for the
	// current hour instead of assuming an offset.
	nowUTC := s.now().UTC()
	currentHour := nowUTC.Format("2006-01-02T15") + ":00"
	idx := 0
	for i, ts := range out.Hourly.Time {
		if ts == currentHour {
			idx = i
			break
		}
	}

	hoursLeft := 24 - s.now().Hour()
	precipHours := openMeteoPrecipWindow(cfg.PrecipHorizon, hoursLeft)
	tempHours := openMeteoTempWindow(cfg.TempHorizon, hoursLeft)

	temps := out.Hourly.Temperature2m
	temperature := valueAt(temps, idx)
	if tempHours > 0 && temps != nil {
		limit := min(len(temps), idx+tempHours)
		maxT := -100.0
		for i := idx; i < limit; i++ {
			if temps[i] > maxT {
				maxT = temps[i]
			}
		}
		temperature = maxT
	}

	hasPrecip := false
	if precipHours > 0 {
		probs := out.Hourly.PrecipitationProbability
		limit := min(len(probs), idx+precipHours)
		for i := idx; i < limit; i++ {
			if probs[i] >= 35.0 ||
				valueAt(out.Hourly.Rain, i) >= 0.5 ||
				valueAt(out.Hourly.Showers, i) >= 0.5 ||
				valueAt(out.Hourly.Snowfall, i) >= 0.5 {
				hasPrecip = true
				break
			}
		}
	}

	var forecast []ForecastItem
	limit := min(len(out.Hourly.Time), idx+24)
	for i := idx; i < limit; i++ {
		when := nowUTC
		if t := parseOpenMeteoTime(out.Hourly.Time[i]); t != nil {
			when = *t
		}
		rain := valueAt(out.Hourly.Rain, i)
		showers := valueAt(out.Hourly.Showers, i)
		snow := valueAt(out.Hourly.Snowfall, i)
		precipType := "None"
		if snow > 0 {
			precipType = "Snow"
		} else if rain > 0 || showers > 0 {
			precipType = "Rain"
		}
		forecast = append(forecast, ForecastItem{
			Time:       when,
			Temp:       valueAt(temps, i),
			PrecipProb: valueAt(out.Hourly.PrecipitationProbability, i),
			PrecipType: precipType,
		})
	}

	return &Weather{
		Temperature:      temperature,
		HasPrecipitation: hasPrecip,
		LocationName:     name,
		SunTimes:         sun,
		IsNight:          s.isNight(sun),
		Provider:         "Open-Meteo",
		LastUpdated:      s.now().UTC(),
		DebugForecast:    forecast,
	}, nil
}

func (s *Service) geocodeOpenMeteo(ctx context.Context, location string) (*Location, error) {
	term, qualifier := splitQuery(location)
	u := fmt.Sprintf("%s?name=%s&count=10&language=en&format=json", s.openMeteoGeoURL, url.QueryEscape(term))

	var out struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Name      string  `json:"name"`
			Country   string  `json:"country"`
			Admin1    string  `json:"admin1"`
			Admin2    string  `json:"admin2"`
		} `json:"results"`
	}
	if err := s.getJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("open-meteo geocode: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}

	best := out.Results[0]
	if qualifier != "" {
		for _, r := range out.Results {
			country := strings.ToLower(r.Country)
			admin1 := strings.ToLower(r.Admin1)
			admin2 := strings.ToLower(r.Admin2)
			if strings.Contains(country, qualifier) || strings.Contains(admin1, qualifier) ||
				strings.Contains(admin2, qualifier) ||
				strings.Contains(qualifier, country) || strings.Contains(qualifier, admin1) {
				best = r
				break
			}
		}
	}

	display := best.Name + ", " + best.Country
	if best.Admin1 != "" {
		display = best.Name + ", " + best.Admin1 + ", " + best.Country
	}
	return &Location{Lat: best.Latitude, Lon: best.Longitude, City: display, Country: best.Country}, nil
}

// openMeteoPrecipWindow maps a precipitation horizon onto hourly buckets.
func openMeteoPrecipWindow(horizon string, hoursLeft int) int {
	switch horizon {
	case "none":
		return 0
	case "short":
		return 6
	case "today":
		return hoursLeft
	case "day":
		return 24
	default: // "immediate"
		return 1
	}
}

// openMeteoTempWindow maps a temperature horizon onto hourly buckets; zero
// means "use the current reading".
func openMeteoTempWindow(horizon string, hoursLeft int) int {
	switch horizon {
	case "short_high":
		return 6
	case "today_high":
		return hoursLeft
	case "day_high":
		return 24
	default: // "current"
		return 0
	}
}

// parseOpenMeteoTime parses the provider's "2006-01-02T15:04" GMT stamps.
func parseOpenMeteoTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s+":00Z")
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func first(arr []string) string {
	if len(arr) == 0 {
		return ""
	}
	return arr[0]
}

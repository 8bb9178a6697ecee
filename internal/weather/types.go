package weather

import "time"

// Weather is one provider snapshot. The JSON field names are part of the
// HTTP API surface and stay camelCase.
type Weather struct {
	Temperature      float64        `json:"temperature"`
	HasPrecipitation bool           `json:"hasPrecipitation"`
	LocationName     string         `json:"locationName"`
	SunTimes         SunTimes       `json:"sunTimes"`
	IsNight          bool           `json:"isNight"`
	Provider         string         `json:"provider"`
	LastUpdated      time.Time      `json:"lastUpdated"`
	DebugForecast    []ForecastItem `json:"debugForecast"`
}

// SunTimes may be partial; providers do not always report both ends.
type SunTimes struct {
	Sunrise *time.Time `json:"sunrise"`
	Sunset  *time.Time `json:"sunset"`
}

// ForecastItem is one hourly (Open-Meteo) or 3-hour (OpenWeatherMap) bucket
// of the short term forecast, exposed for troubleshooting.
type ForecastItem struct {
	Time       time.Time `json:"time"`
	Temp       float64   `json:"temp"`
	PrecipProb float64   `json:"precipProb"`
	PrecipType string    `json:"precipType"`
}

// Location is a resolved place. City carries the display name, which may
// already include region and country context.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

// ValidationResult reports whether a manually entered location resolves.
type ValidationResult struct {
	Valid bool    `json:"valid"`
	Name  *string `json:"name"`
	Error *string `json:"error"`
}

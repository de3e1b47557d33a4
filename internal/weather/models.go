package weather

// CurrentWeather is the normalized current-conditions view returned to clients.
type CurrentWeather struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"` // °C
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"` // percent
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"wind_speed"` // m/s
}

// ForecastEntry is a single day of the normalized forecast.
type ForecastEntry struct {
	// Datetime is the provider's slot time, formatted "2006-01-02 15:04:05" (UTC).
	Datetime    string  `json:"datetime"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Forecast holds one entry per day, ordered by Datetime ascending.
type Forecast struct {
	City     string          `json:"city"`
	Forecast []ForecastEntry `json:"forecast"`
}

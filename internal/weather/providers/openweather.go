package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-proxy/internal/weather"
)

const (
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"
	forecastDays          = 5
	forecastSlot          = "12:00:00"
)

// OpenWeatherConfig configures the OpenWeatherMap provider.
type OpenWeatherConfig struct {
	APIKey  string
	BaseURL string // defaults to the public 2.5 API
	Country string // appended to the city query, e.g. "PL"
	Lang    string
	Backoff BackoffConfig // zero value means DefaultBackoff
}

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	country string
	lang    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	backoff := cfg.Backoff
	if backoff == (BackoffConfig{}) {
		backoff = DefaultBackoff
	}

	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		country: cfg.Country,
		lang:    cfg.Lang,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// owmConditions is the shared "weather"/"main"/"wind" shape of /weather and
// /forecast list items.
type owmConditions struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

func (c owmConditions) summary() (description, icon string) {
	if len(c.Weather) == 0 {
		return "", ""
	}
	return c.Weather[0].Description, c.Weather[0].Icon
}

type owmForecastSlot struct {
	owmConditions
	Dt    int64  `json:"dt"`
	DtTxt string `json:"dt_txt"`
}

// datetime returns the slot time as "2006-01-02 15:04:05" UTC.
func (s owmForecastSlot) datetime() string {
	if s.DtTxt != "" {
		return s.DtTxt
	}
	return time.Unix(s.Dt, 0).UTC().Format(time.DateTime)
}

// Current fetches and normalizes /weather for city.
func (p *OpenWeatherProvider) Current(ctx context.Context, city string) (weather.CurrentWeather, error) {
	resp, err := p.get(ctx, "weather", city)
	if err != nil {
		return weather.CurrentWeather{}, err
	}
	defer resp.Body.Close()

	var payload owmConditions
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.CurrentWeather{}, fmt.Errorf("decode current weather: %w", err)
	}

	desc, icon := payload.summary()
	return weather.CurrentWeather{
		// The canonical city name is reported, not the upstream station name.
		City:        city,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		Description: desc,
		Icon:        icon,
		WindSpeed:   payload.Wind.Speed,
	}, nil
}

// Forecast fetches the 5 day / 3 hour forecast and reduces it to one slot per
// day: the midday slot when present, otherwise the day's first slot.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, city string) (weather.Forecast, error) {
	resp, err := p.get(ctx, "forecast", city)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []owmForecastSlot `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	return weather.Forecast{
		City:     city,
		Forecast: dailyForecast(payload.List),
	}, nil
}

func dailyForecast(slots []owmForecastSlot) []weather.ForecastEntry {
	var (
		days   []string
		picked = make(map[string]owmForecastSlot)
	)

	for _, slot := range slots {
		day, clock, ok := strings.Cut(slot.datetime(), " ")
		if !ok {
			continue
		}

		if _, seen := picked[day]; !seen {
			if len(days) == forecastDays {
				continue
			}
			days = append(days, day)
			picked[day] = slot
			continue
		}
		if clock == forecastSlot {
			picked[day] = slot
		}
	}

	out := make([]weather.ForecastEntry, 0, len(days))
	for _, day := range days {
		slot := picked[day]
		desc, icon := slot.summary()
		out = append(out, weather.ForecastEntry{
			Datetime:    slot.datetime(),
			Temperature: slot.Main.Temp,
			FeelsLike:   slot.Main.FeelsLike,
			Humidity:    slot.Main.Humidity,
			Description: desc,
			Icon:        icon,
			WindSpeed:   slot.Wind.Speed,
		})
	}
	return out
}

func (p *OpenWeatherProvider) get(ctx context.Context, endpoint, city string) (*http.Response, error) {
	if p.apiKey == "" {
		return nil, ErrNotConfigured
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		if p.lang != "" {
			values.Set("lang", p.lang)
		}

		q := city
		if p.country != "" {
			q = fmt.Sprintf("%s,%s", city, p.country)
		}
		values.Set("q", q)

		u := fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	return doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
}

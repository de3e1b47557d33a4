package weather

import (
	"context"

	"github.com/i474232898/weather-proxy/internal/history"
)

// Provider abstracts the upstream weather source (OpenWeatherMap).
type Provider interface {
	Name() string
	Current(ctx context.Context, city string) (CurrentWeather, error)
	Forecast(ctx context.Context, city string) (Forecast, error)
}

// History is the contract the search-history store must satisfy.
type History interface {
	Record(ctx context.Context, city string) (history.SearchRecord, error)
	ListRecent(ctx context.Context, limit int) ([]string, error)
}

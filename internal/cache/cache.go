package cache

import (
	"context"
	"time"
)

// Cache holds serialized weather payloads keyed by city.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Noop never stores anything; used when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte) error { return nil }

// WeatherKey and ForecastKey build the cache keys for a canonical city name.
func WeatherKey(city string) string { return "weather:current:" + city }

func ForecastKey(city string) string { return "weather:forecast:" + city }

type clock func() time.Time

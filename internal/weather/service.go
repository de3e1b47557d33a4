package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/i474232898/weather-proxy/internal/cache"
	"github.com/i474232898/weather-proxy/internal/metrics"
)

// Service resolves cities, fetches normalized weather through the cache and
// records successful lookups in the search history.
type Service struct {
	provider Provider
	history  History
	cache    cache.Cache
	cities   CityList
}

// NewService creates a new Service. A nil cache disables caching.
func NewService(provider Provider, history History, c cache.Cache, cities CityList) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		provider: provider,
		history:  history,
		cache:    c,
		cities:   cities,
	}
}

// Cities returns the supported city names.
func (s *Service) Cities() []string {
	return s.cities.Names()
}

// Resolve maps a user-supplied name to its canonical spelling.
func (s *Service) Resolve(city string) (string, error) {
	return s.cities.Resolve(city)
}

// CurrentWeather returns the current conditions for city and records the search.
// A history failure is logged and does not fail the lookup.
func (s *Service) CurrentWeather(ctx context.Context, city string) (CurrentWeather, error) {
	canonical, err := s.cities.Resolve(city)
	if err != nil {
		return CurrentWeather{}, err
	}

	cw, err := cached(ctx, s.cache, cache.WeatherKey(canonical), func(ctx context.Context) (CurrentWeather, error) {
		return s.fetchCurrent(ctx, canonical)
	})
	if err != nil {
		return CurrentWeather{}, err
	}

	s.recordSearch(ctx, canonical)
	return cw, nil
}

// Forecast returns the daily forecast for city. It does not touch the history.
func (s *Service) Forecast(ctx context.Context, city string) (Forecast, error) {
	canonical, err := s.cities.Resolve(city)
	if err != nil {
		return Forecast{}, err
	}

	return cached(ctx, s.cache, cache.ForecastKey(canonical), func(ctx context.Context) (Forecast, error) {
		return s.fetchForecast(ctx, canonical)
	})
}

// RecentSearches returns up to limit recently searched cities, newest first.
func (s *Service) RecentSearches(ctx context.Context, limit int) ([]string, error) {
	return s.history.ListRecent(ctx, limit)
}

// Refresh re-fetches current weather and forecast for city into the cache
// without recording a search.
func (s *Service) Refresh(ctx context.Context, city string) error {
	canonical, err := s.cities.Resolve(city)
	if err != nil {
		return err
	}

	var errs []error
	if cw, err := s.fetchCurrent(ctx, canonical); err != nil {
		errs = append(errs, fmt.Errorf("current: %w", err))
	} else {
		store(ctx, s.cache, cache.WeatherKey(canonical), cw)
	}
	if fc, err := s.fetchForecast(ctx, canonical); err != nil {
		errs = append(errs, fmt.Errorf("forecast: %w", err))
	} else {
		store(ctx, s.cache, cache.ForecastKey(canonical), fc)
	}
	return errors.Join(errs...)
}

func (s *Service) fetchCurrent(ctx context.Context, city string) (CurrentWeather, error) {
	cw, err := s.provider.Current(ctx, city)
	metrics.UpstreamRequests.WithLabelValues("current", metrics.Result(err)).Inc()
	if err != nil {
		slog.Warn("provider current weather failed", "provider", s.provider.Name(), "city", city, "error", err)
		return CurrentWeather{}, fmt.Errorf("fetch current weather for %s: %w", city, err)
	}
	if cw.City == "" {
		cw.City = city
	}
	return cw, nil
}

func (s *Service) fetchForecast(ctx context.Context, city string) (Forecast, error) {
	fc, err := s.provider.Forecast(ctx, city)
	metrics.UpstreamRequests.WithLabelValues("forecast", metrics.Result(err)).Inc()
	if err != nil {
		slog.Warn("provider forecast failed", "provider", s.provider.Name(), "city", city, "error", err)
		return Forecast{}, fmt.Errorf("fetch forecast for %s: %w", city, err)
	}
	fc.City = city
	if fc.Forecast == nil {
		fc.Forecast = []ForecastEntry{}
	}
	return fc, nil
}

func (s *Service) recordSearch(ctx context.Context, city string) {
	_, err := s.history.Record(ctx, city)
	metrics.HistoryWrites.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		slog.Error("search history write failed", "city", city, "error", err)
	}
}

// cached serves key from c, falling back to fetch and storing its result.
// Cache failures degrade to a miss.
func cached[T any](ctx context.Context, c cache.Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	raw, ok, err := c.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.Warn("cache read failed", "key", key, "error", err)
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return v, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.Warn("cache entry undecodable", "key", key)
	default:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	store(ctx, c, key, v)
	return v, nil
}

func store[T any](ctx context.Context, c cache.Cache, key string, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.Set(ctx, key, raw); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
}

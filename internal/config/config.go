package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-proxy/internal/weather"
)

type AppConfig struct {
	Port     string
	LogLevel string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	Country            string
	Lang               string
	HTTPTimeout        time.Duration

	// Cities is the allow-list served by /api/cities.
	Cities []string

	// HistoryDBPath is the SQLite file backing the search history.
	HistoryDBPath   string
	HistoryMaxLimit int

	CacheTTL        time.Duration // 0 disables caching
	CacheMaxEntries int
	RedisURL        string // optional; selects the Redis cache

	RefreshInterval time.Duration // 0 disables the cache warm-up job
	RefreshTopN     int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.Country = getenvDefault("WEATHER_COUNTRY", "PL")
	cfg.Lang = getenvDefault("WEATHER_LANG", "pl")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.Cities = weather.DefaultCities
	if v := strings.TrimSpace(os.Getenv("CITIES")); v != "" {
		cfg.Cities = strings.Split(v, ",")
	}

	cfg.HistoryDBPath = getenvDefault("HISTORY_DB_PATH", "search_history.db")
	cfg.HistoryMaxLimit = getenvInt("HISTORY_MAX_LIMIT", 50)
	if cfg.HistoryMaxLimit <= 0 {
		return nil, fmt.Errorf("invalid HISTORY_MAX_LIMIT: must be positive")
	}

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m"); err != nil {
		return nil, err
	}
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 500)
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	cfg.RefreshTopN = getenvInt("REFRESH_TOP_N", 5)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

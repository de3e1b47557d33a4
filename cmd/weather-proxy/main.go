package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/weather-proxy/internal/api/http"
	"github.com/i474232898/weather-proxy/internal/cache"
	"github.com/i474232898/weather-proxy/internal/config"
	"github.com/i474232898/weather-proxy/internal/history"
	"github.com/i474232898/weather-proxy/internal/metrics"
	"github.com/i474232898/weather-proxy/internal/scheduler"
	"github.com/i474232898/weather-proxy/internal/weather"
	"github.com/i474232898/weather-proxy/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	// Search history lives in SQLite; the process cannot serve without it.
	hist, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		slog.Error("failed to initialize search history", "path", cfg.HistoryDBPath, "error", err)
		os.Exit(1)
	}
	defer hist.Close()

	weatherCache := newCache(cfg)

	if cfg.OpenWeatherAPIKey == "" {
		slog.Warn("OPENWEATHER_API_KEY is not set; weather lookups will fail")
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:  cfg.OpenWeatherAPIKey,
		BaseURL: cfg.OpenWeatherBaseURL,
		Country: cfg.Country,
		Lang:    cfg.Lang,
	})

	service := weather.NewService(provider, hist, weatherCache, weather.NewCityList(cfg.Cities))

	// Keeps cache entries for recently searched cities warm.
	if cfg.CacheTTL > 0 {
		sched := scheduler.New(service, cfg.RefreshInterval, cfg.RefreshTopN)
		if err := sched.Start(); err != nil {
			slog.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-proxy",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-proxy",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	httpapi.RegisterRoutes(app, service, cfg.HistoryMaxLimit)

	go func() {
		slog.Info("weather-proxy listening", "port", cfg.Port, "history_db", cfg.HistoryDBPath)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	slog.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	if closer, ok := weatherCache.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("closing weather cache failed", "error", err)
		}
	}
}

// newCache picks Redis when configured, otherwise the in-process cache.
// A Redis connection failure falls back to memory rather than aborting.
func newCache(cfg *config.AppConfig) cache.Cache {
	if cfg.CacheTTL <= 0 {
		slog.Info("weather cache disabled")
		return cache.Noop{}
	}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err == nil {
			slog.Info("weather cache backed by redis", "ttl", cfg.CacheTTL)
			return rc
		}
		slog.Warn("redis unavailable; using in-memory cache", "error", err)
	}
	return cache.NewMemory(cfg.CacheTTL, cfg.CacheMaxEntries)
}

func setupLogging(level string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

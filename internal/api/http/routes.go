package httpapi

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-proxy/internal/history"
	"github.com/i474232898/weather-proxy/internal/weather"
	"github.com/i474232898/weather-proxy/internal/weather/providers"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
// historyMaxLimit bounds the ?limit= accepted by the history endpoint.
func RegisterRoutes(app *fiber.App, service *weather.Service, historyMaxLimit int) {
	api := app.Group("/api")

	api.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(service.Cities())
	})

	api.Get("/weather/:city", func(c *fiber.Ctx) error {
		var req cityParam
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cw, err := service.CurrentWeather(c.UserContext(), req.City)
		if err != nil {
			return weatherError(err, "failed to fetch weather data")
		}
		return c.JSON(cw)
	})

	api.Get("/forecast/:city", func(c *fiber.Ctx) error {
		var req cityParam
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		fc, err := service.Forecast(c.UserContext(), req.City)
		if err != nil {
			return weatherError(err, "failed to fetch forecast data")
		}
		return c.JSON(fc)
	})

	api.Get("/history", func(c *fiber.Ctx) error {
		req := historyQuery{Limit: history.DefaultLimit}
		if err := c.QueryParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be an integer")
		}
		if err := validate.Var(req.Limit, "min=1"); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
		}
		if req.Limit > historyMaxLimit {
			req.Limit = historyMaxLimit
		}

		cities, err := service.RecentSearches(c.UserContext(), req.Limit)
		if err != nil {
			slog.Error("listing search history failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read search history")
		}
		return c.JSON(cities)
	})
}

// ErrorHandler renders every error as {"error": "<message>"}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func weatherError(err error, fallback string) error {
	switch {
	case errors.Is(err, weather.ErrUnknownCity):
		return fiber.NewError(fiber.StatusBadRequest, "city is not in the list of supported cities")
	case errors.Is(err, providers.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no weather data for requested city")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

// cityParam holds the :city path parameter.
type cityParam struct {
	City string `validate:"required,max=64"`
}

func (p *cityParam) bind(c *fiber.Ctx) error {
	// Path params arrive percent-encoded (e.g. Krak%C3%B3w).
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return err
	}
	p.City = city
	return validate.Struct(p)
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Limit int `query:"limit"`
}

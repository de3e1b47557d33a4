package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-proxy/internal/history"
	"github.com/i474232898/weather-proxy/internal/weather"
)

type stubProvider struct {
	mu  sync.Mutex
	err error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Current(_ context.Context, city string) (weather.CurrentWeather, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return weather.CurrentWeather{}, p.err
	}
	return weather.CurrentWeather{City: city, Temperature: 20, FeelsLike: 19, Humidity: 60, Description: "cloudy", Icon: "02d", WindSpeed: 4.5}, nil
}

func (p *stubProvider) Forecast(_ context.Context, city string) (weather.Forecast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return weather.Forecast{}, p.err
	}
	return weather.Forecast{Forecast: []weather.ForecastEntry{
		{Datetime: "2025-06-01 12:00:00", Temperature: 18, Icon: "01d"},
		{Datetime: "2025-06-02 12:00:00", Temperature: 19, Icon: "02d"},
	}}, nil
}

const testHistoryMaxLimit = 20

func newTestApp(t *testing.T, provider *stubProvider) (*fiber.App, *history.Store) {
	t.Helper()

	dsn := "file:routes_" + strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "?mode=memory&cache=shared"
	store, err := history.Open(dsn)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	svc := weather.NewService(provider, store, nil, weather.NewCityList(weather.DefaultCities))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc, testHistoryMaxLimit)
	return app, store
}

func doGet(t *testing.T, app *fiber.App, target string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", target, err)
		}
	}
	return resp.StatusCode
}

func weatherPath(city string) string {
	return "/api/weather/" + url.PathEscape(city)
}

func TestCities(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	var cities []string
	if code := doGet(t, app, "/api/cities", &cities); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if len(cities) != len(weather.DefaultCities) || cities[0] != "Warszawa" {
		t.Fatalf("unexpected cities: %v", cities)
	}
}

func TestWeatherSuccessRecordsHistory(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	var body map[string]any
	if code := doGet(t, app, weatherPath("Kraków"), &body); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body["city"] != "Kraków" {
		t.Fatalf("expected city Kraków, got %v", body["city"])
	}
	for _, k := range []string{"temperature", "feels_like", "humidity", "description", "icon", "wind_speed"} {
		if _, ok := body[k]; !ok {
			t.Fatalf("missing %q in response: %v", k, body)
		}
	}

	var hist []string
	if code := doGet(t, app, "/api/history", &hist); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if len(hist) != 1 || hist[0] != "Kraków" {
		t.Fatalf("unexpected history: %v", hist)
	}
}

func TestWeatherInvalidCity(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	var body map[string]any
	if code := doGet(t, app, weatherPath("NieistniejąceMiasto"), &body); code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, code)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error field, got %v", body)
	}
}

func TestWeatherUpstreamError(t *testing.T) {
	app, store := newTestApp(t, &stubProvider{err: errors.New("Błąd API")})

	var body map[string]any
	if code := doGet(t, app, weatherPath("Warszawa"), &body); code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, code)
	}
	if _, ok := body["error"]; !ok {
		t.Fatalf("expected error field, got %v", body)
	}

	hist, err := store.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(hist) != 0 {
		t.Fatalf("failed lookups must not be recorded, got %v", hist)
	}
}

func TestDuplicateSearchesDoNotDuplicateHistory(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	for _, city := range []string{"Warszawa", "Gdańsk", "Warszawa"} {
		if code := doGet(t, app, weatherPath(city), nil); code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, code)
		}
	}

	var hist []string
	doGet(t, app, "/api/history", &hist)
	if len(hist) != 2 || hist[0] != "Warszawa" || hist[1] != "Gdańsk" {
		t.Fatalf("unexpected history: %v", hist)
	}
}

func TestHistoryEmptyIsJSONArray(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected [], got %s", raw)
	}
}

func TestHistoryLimit(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	for _, city := range []string{"Opole", "Tychy", "Lublin"} {
		doGet(t, app, weatherPath(city), nil)
	}

	var hist []string
	if code := doGet(t, app, "/api/history?limit=2", &hist); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if len(hist) != 2 || hist[0] != "Lublin" || hist[1] != "Tychy" {
		t.Fatalf("unexpected history: %v", hist)
	}

	for _, bad := range []string{"abc", "0", "-3"} {
		if code := doGet(t, app, "/api/history?limit="+bad, nil); code != http.StatusBadRequest {
			t.Fatalf("limit=%s: expected status %d, got %d", bad, http.StatusBadRequest, code)
		}
	}
}

func TestHistoryStorageFailure(t *testing.T) {
	app, store := newTestApp(t, &stubProvider{})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var body map[string]any
	if code := doGet(t, app, "/api/history", &body); code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, code)
	}

	// Weather lookups still succeed when history cannot be written.
	if code := doGet(t, app, weatherPath("Poznań"), nil); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
}

func TestForecast(t *testing.T) {
	app, store := newTestApp(t, &stubProvider{})

	var body weather.Forecast
	if code := doGet(t, app, "/api/forecast/"+url.PathEscape("Łódź"), &body); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if body.City != "Łódź" || len(body.Forecast) != 2 {
		t.Fatalf("unexpected forecast: %+v", body)
	}

	hist, _ := store.ListRecent(context.Background(), 10)
	if len(hist) != 0 {
		t.Fatalf("forecast must not record history, got %v", hist)
	}
}

func TestHistoryDefaultAndMaxLimit(t *testing.T) {
	app, _ := newTestApp(t, &stubProvider{})

	searched := weather.DefaultCities[:25]
	for _, city := range searched {
		if code := doGet(t, app, weatherPath(city), nil); code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", city, http.StatusOK, code)
		}
	}

	var hist []string
	if code := doGet(t, app, "/api/history", &hist); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if len(hist) != history.DefaultLimit {
		t.Fatalf("expected %d entries by default, got %d", history.DefaultLimit, len(hist))
	}
	if hist[0] != searched[len(searched)-1] {
		t.Fatalf("expected most recent %s first, got %v", searched[len(searched)-1], hist)
	}

	hist = nil
	if code := doGet(t, app, "/api/history?limit=1000", &hist); code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if len(hist) != testHistoryMaxLimit {
		t.Fatalf("expected limit capped at %d, got %d", testHistoryMaxLimit, len(hist))
	}
}

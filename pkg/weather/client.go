package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"maidchan/pkg/config"
)

const (
	defaultBaseURL        = "https://weather.tsukumijima.net/api/forecast"
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 1 << 20
)

// ErrUnavailable marks a failed forecast call or an undecodable response.
var ErrUnavailable = errors.New("weather forecast unavailable")

// Forecast mirrors the livedoor-compatible forecast payload. Every field is
// optional so callers can degrade one field at a time.
type Forecast struct {
	Location  *Location     `json:"location"`
	Forecasts []DayForecast `json:"forecasts"`
}

type Location struct {
	Prefecture *string `json:"prefecture"`
	District   *string `json:"district"`
}

type DayForecast struct {
	DateLabel   *string      `json:"dateLabel"`
	Telop       *string      `json:"telop"`
	Temperature *Temperature `json:"temperature"`
}

type Temperature struct {
	Max *Reading `json:"max"`
	Min *Reading `json:"min"`
}

type Reading struct {
	Celsius *string `json:"celsius"`
}

// Fetcher looks up the forecast for a city code.
type Fetcher interface {
	Forecast(ctx context.Context, city string) (Forecast, error)
}

// Client fetches forecasts over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// New builds a client from collaborator configuration.
func New(cfg config.CollaboratorConfig, log *slog.Logger) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("component", "weather.client"),
	}
}

// Forecast fetches the forecast for a numeric city code such as "130010".
func (c *Client) Forecast(ctx context.Context, city string) (Forecast, error) {
	startedAt := time.Now()
	log := c.log.With("city", city)

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: parse base url: %v", ErrUnavailable, err)
	}
	query := endpoint.Query()
	query.Set("city", city)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("forecast request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return Forecast{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Forecast{}, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Forecast{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var forecast Forecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return Forecast{}, fmt.Errorf("%w: decode body: %v", ErrUnavailable, err)
	}
	log.Debug("forecast request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "days", len(forecast.Forecasts))

	return forecast, nil
}

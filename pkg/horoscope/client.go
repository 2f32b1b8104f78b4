package horoscope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"maidchan/pkg/config"
)

const (
	defaultBaseURL        = "http://api.jugemkey.jp/api/horoscope/free"
	defaultRequestTimeout = 10 * time.Second
	maxResponseBytes      = 1 << 20

	// DateLayout is the key format the service uses for each day.
	DateLayout = "2006/01/02"
)

// ErrUnavailable marks any failure to obtain or decode a daily horoscope.
var ErrUnavailable = errors.New("horoscope unavailable")

// JST is the fixed UTC+9 zone the service keys its days by.
var JST = time.FixedZone("JST", 9*60*60)

// Entry is one sign's reading for the day.
type Entry struct {
	Rank    int    `json:"rank"`
	Sign    string `json:"sign"`
	Total   int    `json:"total"`
	Love    int    `json:"love"`
	Money   int    `json:"money"`
	Job     int    `json:"job"`
	Color   string `json:"color"`
	Item    string `json:"item"`
	Content string `json:"content"`
}

type response struct {
	Horoscope map[string][]Entry `json:"horoscope"`
}

// Fetcher returns the twelve readings for one day, ordered from Aries.
type Fetcher interface {
	Daily(ctx context.Context, date string) ([]Entry, error)
}

// Client fetches readings over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// New builds a client from collaborator configuration.
func New(cfg config.CollaboratorConfig, log *slog.Logger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
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
		log:        log.With("component", "horoscope.client"),
	}
}

// Today formats now as the service's day key.
func Today(now time.Time) string {
	return now.In(JST).Format(DateLayout)
}

// Daily returns the readings for date (YYYY/MM/DD).
func (c *Client) Daily(ctx context.Context, date string) ([]Entry, error) {
	startedAt := time.Now()
	log := c.log.With("date", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+date, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("horoscope request failed", "duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrUnavailable, err)
	}

	entries, ok := payload.Horoscope[date]
	if !ok {
		return nil, fmt.Errorf("%w: no readings for %s", ErrUnavailable, date)
	}
	log.Debug("horoscope request completed", "duration_ms", time.Since(startedAt).Milliseconds(), "entries", len(entries))

	return entries, nil
}

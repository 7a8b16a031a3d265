package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/forecast-ensemble-etl/internal/config"
	"github.com/couchcryptid/forecast-ensemble-etl/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errClientError   = errors.New("open-meteo API error")
	errMissingHourly = errors.New("response has no hourly.time series")
)

// Client fetches hourly forecasts from Open-Meteo compatible endpoints. It
// implements pipeline.Source.
type Client struct {
	httpClient     *http.Client
	timezone       string
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewClient creates a client from the fetch settings in cfg.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.FetchTimeout},
		timezone:       cfg.ForecastTimezone,
		maxRetries:     cfg.FetchMaxRetries,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     5 * time.Second,
		limiter:        rate.NewLimiter(rate.Limit(cfg.FetchRateLimit), 1),
		logger:         logger.With("component", "openmeteo"),
		breakers:       make(map[string]*gobreaker.CircuitBreaker),
	}
}

// FetchHourly requests days of hourly data for loc from model's endpoint.
func (c *Client) FetchHourly(ctx context.Context, loc domain.Location, model domain.Model, days int) (domain.HourlyTable, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(loc.Lat, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(loc.Lon, 'f', -1, 64)},
		"timezone":      {c.timezone},
		"forecast_days": {strconv.Itoa(days)},
		"hourly":        {strings.Join(domain.HourlyVariables, ",")},
	}
	fullURL := model.Endpoint + "?" + params.Encode()

	body, err := c.getWithRetry(ctx, model.Name, fullURL)
	if err != nil {
		return domain.HourlyTable{}, err
	}
	return decodeHourly(body)
}

// getWithRetry performs the GET through the model's circuit breaker, retrying
// rate-limit, server, and transport errors with exponential backoff.
func (c *Client) getWithRetry(ctx context.Context, model, fullURL string) ([]byte, error) {
	cb := c.breaker(model)
	backoff := c.initialBackoff

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			return c.get(ctx, fullURL)
		})
		if err == nil {
			return result.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit breaker open for %s: %w", model, err)
		}
		if !retryable(err) || attempt >= c.maxRetries || ctx.Err() != nil {
			return nil, err
		}

		c.logger.Debug("retrying forecast request", "model", model, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, c.maxBackoff)
	}
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", errClientError, resp.StatusCode, apiReason(body))
	}
	return body, nil
}

func (c *Client) breaker(model string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[model]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openmeteo-" + model,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: breakerSuccess,
		})
		c.breakers[model] = cb
	}
	return cb
}

// breakerSuccess keeps rejected requests and caller cancellation from
// tripping the breaker; the endpoint answered or was never asked.
func breakerSuccess(err error) bool {
	return err == nil || errors.Is(err, errClientError) || errors.Is(err, context.Canceled)
}

// retryable excludes client errors, which will not succeed on retry.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !errors.Is(err, errClientError)
}

// Open-Meteo API response types.

type response struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// decodeHourly converts the column-oriented hourly object into a table.
// Columns that are not numeric arrays are left out, which surfaces later as a
// missing-column error for required variables.
func decodeHourly(body []byte) (domain.HourlyTable, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return domain.HourlyTable{}, fmt.Errorf("decode response: %w", err)
	}
	rawTime, ok := r.Hourly[domain.VarTime]
	if !ok {
		return domain.HourlyTable{}, errMissingHourly
	}

	var times []string
	if err := json.Unmarshal(rawTime, &times); err != nil {
		return domain.HourlyTable{}, fmt.Errorf("decode hourly.time: %w", err)
	}

	table := domain.HourlyTable{
		Time:    times,
		Columns: make(map[string][]*float64, len(r.Hourly)-1),
	}
	for name, raw := range r.Hourly {
		if name == domain.VarTime {
			continue
		}
		var col []*float64
		if err := json.Unmarshal(raw, &col); err != nil {
			continue
		}
		table.Columns[name] = col
	}
	return table, nil
}

func apiReason(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Reason != "" {
		return e.Reason
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

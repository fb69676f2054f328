package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrHTTPStatus matches any non-2xx response returned by a BaseClient.
var ErrHTTPStatus = errors.New("unexpected http status")

type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// DefaultBreakerThreshold is the number of consecutive failures that opens the circuit.
const DefaultBreakerThreshold = 5

type BaseClient struct {
	name           string
	client         *resty.Client
	logger         *zap.Logger
	circuitBreaker *gobreaker.CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
	multiplier     float64
}

type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Multiplier     float64
	Threshold      int
	BreakerTimeout time.Duration
}

func NewBaseClient(name string, config ClientConfig, logger *zap.Logger) *BaseClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json")

	threshold := config.Threshold
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}

	// Circuit breaker settings
	breakerSettings := gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     0,
		Timeout:      config.BreakerTimeout,
		IsSuccessful: countsAsHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				zap.String("client", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &BaseClient{
		name:           name,
		client:         httpClient,
		logger:         logger,
		circuitBreaker: gobreaker.NewCircuitBreaker(breakerSettings),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		multiplier:     config.Multiplier,
	}
}

func (c *BaseClient) Name() string {
	return c.name
}

// Get issues a GET through the circuit breaker and returns the raw response body.
func (c *BaseClient) Get(ctx context.Context, url string, params, headers map[string]string) ([]byte, error) {
	return c.guard(func() ([]byte, error) {
		return c.doGetWithRetry(ctx, url, params, headers)
	})
}

func (c *BaseClient) guard(fn func() ([]byte, error)) ([]byte, error) {
	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func (c *BaseClient) doGetWithRetry(ctx context.Context, url string, params, headers map[string]string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Calculate exponential backoff delay
			delay := time.Duration(float64(c.retryDelay) * math.Pow(c.multiplier, float64(attempt-1)))
			c.logger.Debug("Retrying request",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetHeaders(headers).
			Get(url)
		if err != nil {
			lastErr = err
			c.logger.Warn("HTTP request failed",
				zap.String("client", c.name),
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		status := resp.StatusCode()
		if status >= 200 && status < 300 {
			c.logger.Debug("Request successful",
				zap.String("client", c.name),
				zap.String("url", url),
				zap.Int("status", status),
				zap.Int("body_size", len(resp.Body())))

			return resp.Body(), nil
		}

		lastErr = &StatusError{Status: status, Body: truncate(string(resp.Body()), 256)}

		// Don't retry on client errors (4xx) except 429 (rate limiting)
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return nil, lastErr
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded, last error: %w", lastErr)
}

// countsAsHealthy reports whether err is excluded from the breaker's failure streak:
// client errors other than 429, and caller cancellation.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

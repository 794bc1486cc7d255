// Package discord is a minimal Discord REST client covering what the sync
// worker needs: resolving channels and posting messages with a bot token.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"guildsync/internal/resilience/circuitbreaker"
	"guildsync/internal/resilience/retry"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Config contains configuration for the Discord REST client.
type Config struct {
	// BotToken authenticates requests. Sent as "Bot <token>".
	BotToken string

	// BaseURL overrides the API base, for tests.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// Client is a rate-limited Discord REST client with retry and circuit
// breaker protection.
type Client struct {
	config      Config
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

// NewClient creates a Client. The local token bucket (5 req/s, burst 5)
// stays well under Discord's global REST limit so the worker never eats into
// headroom other bots in the same application might need.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		limiter:     rate.NewLimiter(5, 5),
		breaker:     circuitbreaker.New(circuitbreaker.DiscordAPIConfig()),
		retryConfig: retry.DiscordAPIConfig(),
	}
}

// do performs one API call with rate limiting, retry and circuit breaking.
// 429 responses wait out the reported retry_after before the next attempt;
// server and network errors back off exponentially; other client errors
// fail immediately.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	delay := c.retryConfig.InitialDelay
	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doRequest(ctx, method, path, payload)
		})
		if err == nil {
			return result.([]byte), nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("discord circuit breaker open, request rejected",
				slog.String("service", "discord-api"),
				slog.String("path", path))
			return nil, err
		}

		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			slog.Warn("discord rate limit hit, backing off",
				slog.String("path", path),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			if attempt < c.retryConfig.MaxAttempts {
				if err := sleepCtx(ctx, rateLimitErr.RetryAfter); err != nil {
					return nil, err
				}
			}
			continue
		}

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < c.retryConfig.MaxAttempts {
			slog.Warn("discord request failed, retrying",
				slog.String("path", path),
				slog.String("error", err.Error()),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay))
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			delay = time.Duration(float64(delay) * c.retryConfig.Multiplier)
			if delay > c.retryConfig.MaxDelay {
				delay = c.retryConfig.MaxDelay
			}
		}
	}

	return nil, fmt.Errorf("discord request failed after %d attempts: %w", c.retryConfig.MaxAttempts, lastErr)
}

// doRequest performs a single HTTP round trip and maps the response status
// to the error taxonomy.
func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.config.BotToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Message:    "Discord rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API client error %d: %s", resp.StatusCode, string(body)),
		}
	case resp.StatusCode >= 500:
		return nil, &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Discord API server error %d: %s", resp.StatusCode, string(body)),
		}
	default:
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

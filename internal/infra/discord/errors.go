package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// RateLimitError represents a 429 response from the Discord API.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx response other than 429.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// apiError is the JSON body Discord returns with error responses.
type apiError struct {
	Message    string  `json:"message"`
	Code       int     `json:"code"`
	RetryAfter float64 `json:"retry_after"` // seconds
}

// isRetryable reports whether a request error is worth retrying inline.
// Rate limits are handled separately via their retry_after value.
func isRetryable(err error) bool {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return false
	}
	// Network errors, timeouts
	return true
}

// errorType coarsely classifies an error for the publish error metric.
func errorType(err error) string {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return "rate_limited"
	}
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return "client"
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return "server"
	}
	return "network"
}

// extractRetryAfter reads the retry_after duration from a 429 response,
// preferring the JSON body over the Retry-After header.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter * float64(time.Second))
	}

	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 5 * time.Second
}

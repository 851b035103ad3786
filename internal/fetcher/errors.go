package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NetworkError covers connection failures, DNS errors and timeouts.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// RateLimitedError is a 429 response; RetryAfter holds the raw server hint.
type RateLimitedError struct {
	HTTPError
	RetryAfter string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("429 Too Many Requests: try again after %s", e.RetryHint(time.Now()))
}

func (e *RateLimitedError) Unwrap() error { return &e.HTTPError }

// RetryHint renders the Retry-After header as "<n>s", or "a bit" when absent.
func (e *RateLimitedError) RetryHint(now time.Time) string {
	hint := strings.TrimSpace(e.RetryAfter)
	if hint == "" {
		return "a bit"
	}
	if secs, err := strconv.Atoi(hint); err == nil {
		return fmt.Sprintf("%ds", secs)
	}
	if at, err := http.ParseTime(hint); err == nil {
		secs := int(at.Sub(now).Round(time.Second) / time.Second)
		if secs < 0 {
			secs = 0
		}
		return fmt.Sprintf("%ds", secs)
	}
	return hint
}

// ParseError is a payload that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse payload: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrCircuitOpen is returned while the breaker short-circuits requests.
var ErrCircuitOpen = errors.New("circuit breaker open; skipping request")

// Reason collapses a fetch error into the message shown to users.
// A 429 is reported on its own; everything else is prefixed with label.
func Reason(label string, err error) string {
	if err == nil {
		return ""
	}
	var limited *RateLimitedError
	if errors.As(err, &limited) {
		return limited.Error()
	}
	if label == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s error: %v", label, err)
}

// Reasoner binds a label for use with Map.
func Reasoner(label string) func(error) string {
	return func(err error) string { return Reason(label, err) }
}

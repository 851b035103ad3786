package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout   = 10 * time.Second
	maxErrorBodySize = 512
)

// BreakerOptions configure the optional circuit breaker around requests.
type BreakerOptions struct {
	Enabled          bool
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// ClientOptions parameterise the HTTP fetcher.
type ClientOptions struct {
	// Name identifies the upstream in logs, spans and breaker state.
	Name string
	// Label prefixes failure reasons, e.g. "Network/HTTP".
	Label     string
	Timeout   time.Duration
	UserAgent string
	Accept    string
	Breaker   BreakerOptions
}

// Client issues single-attempt GET requests and classifies the response.
type Client struct {
	opts    ClientOptions
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewClient constructs a fetcher client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if opts.Name == "" {
		opts.Name = "http"
	}

	c := &Client{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "fetcher").Str("upstream", opts.Name).Logger(),
	}

	if opts.Breaker.Enabled {
		threshold := opts.Breaker.FailureThreshold
		if threshold == 0 {
			threshold = 3
		}
		openTimeout := opts.Breaker.OpenTimeout
		if openTimeout <= 0 {
			openTimeout = time.Minute
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        opts.Name,
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				c.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		})
	}
	return c
}

// Fetch performs Get and collapses any error into a failure reason.
func (c *Client) Fetch(ctx context.Context, url string) Outcome[json.RawMessage] {
	payload, err := c.Get(ctx, url)
	if err != nil {
		return Failure[json.RawMessage](Reason(c.opts.Label, err))
	}
	return Success(payload)
}

// Get issues exactly one GET and returns the JSON body.
// Errors are *NetworkError, *HTTPError, *RateLimitedError, *ParseError or ErrCircuitOpen.
func (c *Client) Get(ctx context.Context, url string) (json.RawMessage, error) {
	ctx, span := otel.Tracer("live-dashboard/fetcher").Start(ctx, "GET "+c.opts.Name)
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	payload, err := c.execute(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug().Err(err).Str("url", url).Msg("fetch failed")
		return nil, err
	}
	return payload, nil
}

func (c *Client) execute(ctx context.Context, url string) (json.RawMessage, error) {
	if c.breaker == nil {
		return c.do(ctx, url)
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	if err != nil {
		return nil, err
	}
	payload, _ := res.(json.RawMessage)
	return payload, nil
}

func (c *Client) do(ctx context.Context, url string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if c.opts.Accept != "" {
		req.Header.Set("Accept", c.opts.Accept)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{
			HTTPError:  HTTPError{URL: url, StatusCode: resp.StatusCode, Body: trimBody(body)},
			RetryAfter: resp.Header.Get("Retry-After"),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode, Body: trimBody(body)}
	}

	if !json.Valid(body) {
		return nil, &ParseError{Err: errors.New("response body is not valid json")}
	}
	return json.RawMessage(body), nil
}

func trimBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBodySize {
		text = text[:maxErrorBodySize]
	}
	return text
}

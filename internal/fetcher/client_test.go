package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestClientSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "dash-test/1.0" {
			t.Errorf("unexpected user agent %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("unexpected accept header %q", got)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{UserAgent: "dash-test/1.0", Accept: "application/json", Timeout: time.Second}, noopLogger())
	out := c.Fetch(context.Background(), srv.URL)
	if !out.OK() {
		t.Fatalf("expected success, got %q", out.Reason())
	}
	payload, _ := out.Value()
	if string(payload) != `{"ok":true}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestClientRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Label: "Network/HTTP", Timeout: time.Second}, noopLogger())

	_, err := c.Get(context.Background(), srv.URL)
	var limited *RateLimitedError
	if !errors.As(err, &limited) {
		t.Fatalf("expected RateLimitedError, got %T %v", err, err)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("rate limit should unwrap to an HTTPError with status 429")
	}

	out := c.Fetch(context.Background(), srv.URL)
	if out.OK() {
		t.Fatal("429 must be a failure")
	}
	if !strings.Contains(out.Reason(), "429") || !strings.Contains(out.Reason(), "30") {
		t.Fatalf("reason should mention 429 and the retry hint: %q", out.Reason())
	}
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Label: "Weather API", Timeout: time.Second}, noopLogger())
	out := c.Fetch(context.Background(), srv.URL)
	if out.OK() {
		t.Fatal("500 must be a failure")
	}
	if !strings.HasPrefix(out.Reason(), "Weather API error: 500") {
		t.Fatalf("unexpected reason %q", out.Reason())
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(ClientOptions{Timeout: time.Second}, noopLogger())
	_, err := c.Get(context.Background(), url)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T %v", err, err)
	}
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(ClientOptions{Timeout: 50 * time.Millisecond}, noopLogger())
	_, err := c.Get(context.Background(), srv.URL)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("timeout should surface as NetworkError, got %T %v", err, err)
	}
}

func TestClientParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Timeout: time.Second}, noopLogger())
	_, err := c.Get(context.Background(), srv.URL)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T %v", err, err)
	}
}

func TestClientSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{Timeout: time.Second}, noopLogger())
	_ = c.Fetch(context.Background(), srv.URL)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestClientBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		Timeout: time.Second,
		Breaker: BreakerOptions{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Hour},
	}, noopLogger())

	for i := 0; i < 2; i++ {
		if _, err := c.Get(context.Background(), srv.URL); err == nil {
			t.Fatal("502 must fail")
		}
	}
	_, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("open breaker must not hit the network, got %d calls", n)
	}
}

func TestRetryHint(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"":                              "a bit",
		"30":                            "30s",
		"Wed, 01 Jan 2025 12:00:45 GMT": "45s",
		"soon":                          "soon",
	}
	for header, want := range cases {
		e := &RateLimitedError{RetryAfter: header}
		if got := e.RetryHint(now); got != want {
			t.Errorf("RetryHint(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestOutcome(t *testing.T) {
	ok := Success(42)
	if v, good := ok.Value(); !good || v != 42 || ok.Reason() != "" {
		t.Fatalf("unexpected success outcome %#v", ok)
	}
	bad := Failure[int]("nope")
	if _, good := bad.Value(); good || bad.Reason() != "nope" {
		t.Fatalf("unexpected failure outcome %#v", bad)
	}
	if Failure[int]("").Reason() == "" {
		t.Fatal("failures always carry a reason")
	}
}

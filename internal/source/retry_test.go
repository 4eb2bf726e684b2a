package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cropintel/internal/pricing"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func buildFor(t *testing.T, url string) func() (*http.Request, error) {
	t.Helper()
	return func() (*http.Request, error) {
		return http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	}
}

func TestRetryRecoversFromServerError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := doWithRetry(context.Background(), srv.Client(), buildFor(t, srv.URL), 2, noopLogger())
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, saw %d", calls.Load())
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	start := time.Now()
	_, err := doWithRetry(context.Background(), srv.Client(), buildFor(t, srv.URL), 2, noopLogger())
	if err != nil {
		t.Fatalf("expected retry after rate limit, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("expected at least the Retry-After delay, waited only %s", elapsed)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, saw %d", calls.Load())
	}
}

func TestClientErrorFailsFast(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := doWithRetry(context.Background(), srv.Client(), buildFor(t, srv.URL), 3, noopLogger())
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if calls.Load() != 1 {
		t.Fatalf("4xx must not be retried, saw %d attempts", calls.Load())
	}
	var perr *pricing.Error
	if !errors.As(err, &perr) || perr.Retryable {
		t.Fatal("4xx error must be a non-retryable pricing error")
	}
}

func TestRetriesExhaustedReturnsLastError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := doWithRetry(context.Background(), srv.Client(), buildFor(t, srv.URL), 2, noopLogger())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected retries+1 attempts, saw %d", calls.Load())
	}
	var perr *pricing.Error
	if !errors.As(err, &perr) || !perr.Retryable {
		t.Fatal("5xx error must be a retryable pricing error")
	}
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	if backoffDelay(1) != retryBaseDelay {
		t.Fatalf("first backoff should be the base delay, got %s", backoffDelay(1))
	}
	if backoffDelay(2) != 2*retryBaseDelay {
		t.Fatalf("second backoff should double, got %s", backoffDelay(2))
	}
	if backoffDelay(40) != retryMaxDelay {
		t.Fatalf("deep backoff must cap at %s, got %s", retryMaxDelay, backoffDelay(40))
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("3"); d != 3*time.Second {
		t.Fatalf("delay-seconds: got %s", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Fatalf("empty header: got %s", d)
	}
	if d := parseRetryAfter("not-a-date"); d != 0 {
		t.Fatalf("garbage header: got %s", d)
	}
	future := time.Now().Add(2 * time.Second).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d <= 0 || d > 3*time.Second {
		t.Fatalf("http-date header: got %s", d)
	}
}

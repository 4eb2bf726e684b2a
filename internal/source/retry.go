package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cropintel/internal/pricing"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// doWithRetry issues the request built by build, retrying per policy:
// 429 waits out Retry-After, other 4xx fail fast, 5xx and transport
// errors back off exponentially (capped). Returns the response body.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error), retries int, logger zerolog.Logger) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoffDelay(attempt)); err != nil {
				return nil, pricing.WrapError(pricing.CodeTimeout, "retry wait interrupted", true, err)
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		body, retryAfter, err := doOnce(client, req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var perr *pricing.Error
		if errors.As(err, &perr) && !perr.Retryable {
			return nil, err
		}

		if retryAfter > 0 {
			logger.Debug().Dur("retry_after", retryAfter).Int("attempt", attempt+1).Msg("rate limited, honoring Retry-After")
			if err := sleepCtx(ctx, retryAfter); err != nil {
				return nil, pricing.WrapError(pricing.CodeTimeout, "retry wait interrupted", true, err)
			}
		} else {
			logger.Debug().Err(err).Int("attempt", attempt+1).Msg("fetch attempt failed")
		}
	}

	return nil, lastErr
}

// doOnce performs one attempt. retryAfter is non-zero only for 429.
func doOnce(client *http.Client, req *http.Request) (body []byte, retryAfter time.Duration, err error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, classifyTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, pricing.WrapError(pricing.CodeNetworkError, "read response body", true, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return payload, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")),
			pricing.NewErrorRetryable(pricing.CodeRateLimited, "provider rate limit hit")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, 0, pricing.NewError(pricing.CodeNetworkError,
			fmt.Sprintf("provider rejected request (%d): %s", resp.StatusCode, trimBody(payload)))
	default:
		return nil, 0, pricing.NewErrorRetryable(pricing.CodeNetworkError,
			fmt.Sprintf("provider error (%d): %s", resp.StatusCode, trimBody(payload)))
	}
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return pricing.WrapError(pricing.CodeTimeout, "provider request timed out", true, err)
	}
	return pricing.WrapError(pricing.CodeNetworkError, "provider request failed", true, err)
}

func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay || delay <= 0 {
		return retryMaxDelay
	}
	return delay
}

// parseRetryAfter accepts delay-seconds or an HTTP-date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func trimBody(payload []byte) string {
	const limit = 200
	body := strings.TrimSpace(string(payload))
	if len(body) > limit {
		return body[:limit]
	}
	return body
}

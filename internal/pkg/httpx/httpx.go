package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// StatusError is an HTTP response with a non-2xx status, carrying the raw
// body for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatusCode() int { return e.StatusCode }

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// IsRetryableStatus reports whether a status code is worth another attempt:
// 429 and any 5xx. Other 4xx are terminal.
func IsRetryableStatus(code int) bool {
	if code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryableError classifies a request error. Timeouts are retryable;
// connect errors without a status are terminal so a dead endpoint fails
// fast into the fallback path instead of burning the retry budget.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return IsRetryableStatus(sc.HTTPStatusCode())
	}
	return false
}

const (
	backoffBase = 2000 * time.Millisecond
	backoffCap  = 8000 * time.Millisecond
)

// BackoffDelay returns min(2000ms << attempt, 8000ms). No jitter: retries
// are sequential per request and upstream rate limits key on the credential,
// not the instant.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := backoffBase << uint(attempt)
	if d > backoffCap || d <= 0 {
		d = backoffCap
	}
	return d
}

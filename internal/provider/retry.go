package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// defaultMaxAttempts bounds how often a collaborator request is tried.
const defaultMaxAttempts = 4

// httpStatusError reports a non-success response from a collaborator.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// sendWithBackoff issues the request up to maxAttempts times. Transport
// errors and retryable statuses (5xx, 429) trigger another attempt after a
// growing, jittered pause; build is called per attempt so the request body
// is fresh each time. Cancelling ctx aborts the wait.
func sendWithBackoff(ctx context.Context, client *http.Client, maxAttempts int, build func() (*http.Request, error), logger *slog.Logger) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			pause := backoffFor(attempt - 1)
			logger.Warn("retrying collaborator request", "attempt", attempt, "backoff", pause)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pause):
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			logger.Warn("collaborator request failed", "attempt", attempt, "error", err)
			continue
		}

		if retryableStatus(resp.StatusCode) {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = &httpStatusError{status: resp.StatusCode, body: string(body)}
			logger.Warn("collaborator returned retryable status",
				"attempt", attempt, "status", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("gave up after %d attempts: %w", maxAttempts, lastErr)
}

// backoffFor grows quadratically with the failure count, plus jitter so
// concurrent rooms do not retry in lockstep.
func backoffFor(failures int) time.Duration {
	base := time.Duration(failures*failures) * time.Second
	return base + time.Duration(rand.Int63n(int64(base/2+1)))
}

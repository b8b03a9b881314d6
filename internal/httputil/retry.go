// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError reports a non-2xx response after the attempt budget was spent.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// maxErrorBody bounds how much of a failing response body is kept for the error.
const maxErrorBody = 512

// DoWithRetry executes an HTTP request with a bounded, fixed-delay retry
// budget. Transport errors and non-2xx responses are both treated as
// transient: the same request is re-sent until it succeeds or attempts
// attempts have been made. The delay between consecutive attempts is fixed,
// not exponential, so the total attempt count stays predictable.
//
// When attempts is less than 1 a single attempt is made. Requests with a
// body must carry GetBody (http.NewRequest sets it for common reader types)
// so the body can be replayed. If the context is cancelled during an
// inter-attempt wait the function returns ctx.Err(). After the budget is
// spent the last transport error or a *StatusError is returned.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, attempts int, delay time.Duration) (*http.Response, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("replaying request body: %w", err)
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		// Keep a bounded excerpt of the body for the error, then close it.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = &StatusError{StatusCode: resp.StatusCode, Body: string(excerpt)}
	}

	return nil, fmt.Errorf("after %d attempt(s): %w", attempts, lastErr)
}

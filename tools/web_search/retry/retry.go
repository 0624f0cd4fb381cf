// Package retry holds the request policy shared by the search providers:
// exponential backoff for transport failures and 5xx answers, plus a one-way
// switch to a fallback endpoint when the primary answers 404.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/mohammad-safakhou/horizon/internal/logging"
	"github.com/mohammad-safakhou/horizon/internal/telemetry"
	"github.com/mohammad-safakhou/horizon/models"
)

const (
	BaseBackoff = 400 * time.Millisecond
	MaxBackoff  = 30 * time.Second
	MaxJitter   = 200 * time.Millisecond
)

// HTTPError is a non-2xx answer from a search provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("search http %d: %s", e.StatusCode, e.Body)
}

// Attempt performs a single request against endpoint.
type Attempt func(ctx context.Context, endpoint string) ([]models.SearchResult, error)

// Policy drives attempts. MaxRetries is the total number of counted attempts;
// zero means no request is made. A 404 from any endpoint but the last moves
// to the next one without using up an attempt.
type Policy struct {
	MaxRetries int
	Endpoints  []string
	Sleep      func(ctx context.Context, d time.Duration) error
	Jitter     func() time.Duration
	Log        *logging.Logger
	Metrics    *telemetry.Metrics
}

// Delay is the wait after the given failed attempt (1-based), capped at
// MaxBackoff plus jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := MaxBackoff
	// past 7 doublings the base already exceeds MaxBackoff
	if attempt <= 8 {
		d = min(BaseBackoff<<(attempt-1), MaxBackoff)
	}
	return d + p.jitter()
}

func (p Policy) jitter() time.Duration {
	if p.Jitter != nil {
		return p.Jitter()
	}
	return time.Duration(rand.Int63n(int64(MaxJitter) + 1))
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes call under the policy. Exhausted retries yield an empty list
// and no error; a non-retryable HTTP status or an undecodable answer is
// returned as an error.
func (p Policy) Run(ctx context.Context, query string, call Attempt) ([]models.SearchResult, error) {
	if len(p.Endpoints) == 0 {
		return nil, errors.New("no search endpoint configured")
	}
	endpoint := 0
	attempt := 0
	for attempt < p.MaxRetries {
		results, err := call(ctx, p.Endpoints[endpoint])
		if err == nil {
			p.Metrics.SearchAttempt("success")
			if results == nil {
				results = []models.SearchResult{}
			}
			return results, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var httpErr *HTTPError
		switch {
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound && endpoint < len(p.Endpoints)-1:
			endpoint++
			p.Metrics.SearchEndpointFallback()
			p.Log.Event("search_endpoint_fallback", "query", query, "endpoint", p.Endpoints[endpoint])
			continue
		case errors.As(err, &httpErr) && httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			attempt++
			p.Metrics.SearchAttempt("http_5xx")
			if attempt >= p.MaxRetries {
				p.Log.Event("search_fail_http_5xx", "query", query, "status", httpErr.StatusCode, "attempt", attempt)
				return []models.SearchResult{}, nil
			}
		case errors.As(err, &httpErr):
			p.Metrics.SearchAttempt("http_error")
			p.Log.Event("search_http_error", "query", query, "status", httpErr.StatusCode, "error", err.Error(), "body", clip(httpErr.Body, 200))
			return nil, err
		case Transient(err):
			attempt++
			p.Metrics.SearchAttempt("transient")
			if attempt >= p.MaxRetries {
				p.Log.Event("search_fail", "query", query, "attempt", attempt, "error", err.Error())
				return []models.SearchResult{}, nil
			}
		default:
			p.Metrics.SearchAttempt("error")
			return nil, err
		}

		if err := p.sleep(ctx, p.Delay(attempt)); err != nil {
			return nil, err
		}
	}
	return []models.SearchResult{}, nil
}

// Transient reports whether err is a timeout or connection-level failure.
// Request construction errors wrapped in *url.Error, such as an unsupported
// scheme, are not transient.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

// Fetch sends req and returns the body of a 2xx answer. Any other status is
// returned as *HTTPError.
func Fetch(client *http.Client, req *http.Request) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: clip(string(body), 4096)}
	}
	return body, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

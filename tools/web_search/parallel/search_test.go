package parallel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/horizon/tools/web_search/retry"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type recorder struct {
	urls   []string
	bodies []map[string]any
	sleeps []time.Duration
}

func newSearch(rec *recorder, retries int, rt roundTripFunc) Search {
	return Search{
		ApiKey:     "key",
		MaxRetries: retries,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			rec.urls = append(rec.urls, r.URL.String())
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			rec.bodies = append(rec.bodies, body)
			return rt(r)
		})},
		Sleep: func(_ context.Context, d time.Duration) error {
			rec.sleeps = append(rec.sleeps, d)
			return nil
		},
		Jitter: func() time.Duration { return 0 },
	}
}

const okBody = `{"results": [{"title": "Grid storage", "url": "https://a.example", "excerpts": ["first", "second"]}]}`

func TestSearchRetriesTimeoutsThenSucceeds(t *testing.T) {
	rec := &recorder{}
	calls := 0
	s := newSearch(rec, 3, func(*http.Request) (*http.Response, error) {
		calls++
		if calls <= 2 {
			return nil, timeoutError{}
		}
		return respond(http.StatusOK, okBody), nil
	})

	results, err := s.Search(context.Background(), "energy storage")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Grid storage", results[0].Title)
	assert.Equal(t, "https://a.example", results[0].Link)
	assert.Equal(t, "first second", results[0].Snippet)
	assert.Len(t, rec.urls, 3)
	assert.Equal(t, []time.Duration{400 * time.Millisecond, 800 * time.Millisecond}, rec.sleeps)
}

func TestSearchGivesUpAfterTimeouts(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 3, func(*http.Request) (*http.Response, error) {
		return nil, timeoutError{}
	})
	results, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Len(t, rec.urls, 3)
	assert.Len(t, rec.sleeps, 2)
}

func TestSearch404SwitchesEndpointWithoutUsingBudget(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 1, func(r *http.Request) (*http.Response, error) {
		if r.URL.String() == PrimaryEndpoint {
			return respond(http.StatusNotFound, `{"error":"not found"}`), nil
		}
		return respond(http.StatusOK, okBody), nil
	})
	results, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, []string{PrimaryEndpoint, FallbackEndpoint}, rec.urls)
	assert.Empty(t, rec.sleeps)
}

func TestSearch404OnFallbackIsFatal(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 3, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusNotFound, `gone`), nil
	})
	_, err := s.Search(context.Background(), "q")
	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Len(t, rec.urls, 2)
}

func TestSearchZeroRetriesMakesNoCall(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 0, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	results, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, rec.urls)
}

func TestSearchWithoutKeyMakesNoCall(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 3, func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	s.ApiKey = ""
	results, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, rec.urls)
}

func TestSearchClientErrorIsFatal(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 3, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadRequest, `{"error":"bad objective"}`), nil
	})
	_, err := s.Search(context.Background(), "q")
	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Len(t, rec.urls, 1)
	assert.Empty(t, rec.sleeps)
}

func TestSearchRetries5xx(t *testing.T) {
	rec := &recorder{}
	s := newSearch(rec, 2, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, `upstream`), nil
	})
	results, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Len(t, rec.urls, 2)
	assert.Equal(t, []time.Duration{400 * time.Millisecond}, rec.sleeps)
}

func TestSearchRequestPayload(t *testing.T) {
	rec := &recorder{}
	var header string
	s := newSearch(rec, 3, func(r *http.Request) (*http.Response, error) {
		header = r.Header.Get("x-api-key")
		return respond(http.StatusOK, `{"results": [{"link": "https://legacy.example", "snippet": "s"}]}`), nil
	})
	results, err := s.Search(context.Background(), "climate migration")
	require.NoError(t, err)
	assert.Equal(t, "key", header)

	body := rec.bodies[0]
	assert.Equal(t, "climate migration", body["objective"])
	assert.Equal(t, []any{"climate migration"}, body["search_queries"])
	assert.Equal(t, "base", body["processor"])
	assert.EqualValues(t, DefaultMaxResults, body["max_results"])
	assert.EqualValues(t, DefaultMaxCharsPerResult, body["max_chars_per_result"])

	require.Len(t, results, 1)
	assert.Equal(t, "N/A", results[0].Title)
	assert.Equal(t, "https://legacy.example", results[0].Link)
	assert.Equal(t, "s", results[0].Snippet)
}

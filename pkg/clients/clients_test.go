package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/opendota-datasource/pkg/config"
	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
	"github.com/ajitpratap0/opendota-datasource/pkg/json"
)

func newTestClient(t *testing.T) *HTTPClient {
	t.Helper()
	c := NewHTTPClient(DefaultHTTPConfig(), zaptest.NewLogger(t))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestFetchJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"match_id":7890123456789012345}]`)
		case "/object":
			fmt.Fprint(w, `{"rank_tier":80}`+"\n")
		case "/html":
			fmt.Fprint(w, `<html>rate limited</html>`)
		case "/status":
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":"down"}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t)
	ctx := context.Background()

	t.Run("array", func(t *testing.T) {
		v, err := c.FetchJSON(ctx, srv.URL+"/ok")
		require.NoError(t, err)
		rows := v.([]interface{})
		assert.Equal(t, json.Number("7890123456789012345"), rows[0].(map[string]interface{})["match_id"])
	})

	t.Run("object with trailing newline", func(t *testing.T) {
		v, err := c.FetchJSON(ctx, srv.URL+"/object")
		require.NoError(t, err)
		assert.Equal(t, json.Number("80"), v.(map[string]interface{})["rank_tier"])
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := c.FetchJSON(ctx, srv.URL+"/html?api_key=secret")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
		assert.NotContains(t, err.Error(), "secret")

		var typed *errors.Error
		require.ErrorAs(t, err, &typed)
		endpoint, _ := typed.Detail("endpoint")
		assert.Equal(t, srv.URL+"/html", endpoint)
	})

	t.Run("non-success status", func(t *testing.T) {
		_, err := c.FetchJSON(ctx, srv.URL+"/status")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
		assert.True(t, IsHTTPError(err, http.StatusServiceUnavailable))
		assert.True(t, IsHTTPError(err, 0))
		assert.False(t, IsHTTPError(err, http.StatusNotFound))

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Contains(t, httpErr.Body, "down")
	})

	stats := c.GetStats()
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.FailedRequests)
}

func TestFetchJSONTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchJSON(ctx, srv.URL+"/slow")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout), err.Error())
}

func TestFetchJSONCanceled(t *testing.T) {
	t.Parallel()

	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchJSON(ctx, "http://127.0.0.1:1/never")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCanceled), err.Error())
}

func TestFetchJSONConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestClient(t).FetchJSON(context.Background(), addr+"/heroes?api_key=secret")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	assert.NotContains(t, err.Error(), "secret")
}

func TestFetchJSONSizeLimit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `["`+strings.Repeat("x", 64)+`"]`)
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.MaxResponseSize = 16
	c := NewHTTPClient(cfg, zaptest.NewLogger(t))

	_, err := c.FetchJSON(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	assert.Contains(t, err.Error(), "size limit")
}

func TestProbe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/heroes" {
			fmt.Fprint(w, `[]`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t)
	assert.NoError(t, c.Probe(context.Background(), srv.URL+"/heroes"))

	err := c.Probe(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, IsHTTPError(err, http.StatusNotFound))
}

func TestHTTPConfigFromBase(t *testing.T) {
	base := config.NewBaseConfig("opendota", "opendota")
	base.Timeouts.Connection = 3 * time.Second
	base.Timeouts.Request = 7 * time.Second
	base.Performance.MaxConcurrency = 20
	base.Security.TLSSkipVerify = true

	hc := HTTPConfigFromBase(base)
	assert.Equal(t, 3*time.Second, hc.DialTimeout)
	assert.Equal(t, 7*time.Second, hc.ResponseHeaderTimeout)
	assert.Equal(t, 20, hc.MaxIdleConnsPerHost)
	assert.True(t, hc.InsecureSkipVerify)

	assert.Equal(t, DefaultHTTPConfig(), HTTPConfigFromBase(nil))
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://api.opendota.com/api/heroes", RedactURL("https://user:pw@api.opendota.com/api/heroes?api_key=k#x"))
	assert.Equal(t, "invalid-url", RedactURL("://bad"))
}

func TestCircuitBreakerTransitions(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          20 * time.Millisecond,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	}, zaptest.NewLogger(t))

	netErr := errors.New(errors.ErrorTypeNetwork, "down")
	assert.Equal(t, netErr, cb.Execute(func() error { return netErr }))
	assert.Equal(t, "closed", cb.GetState().State)
	_ = cb.Execute(func() error { return netErr })
	assert.Equal(t, "open", cb.GetState().State)

	err := cb.Execute(func() error {
		t.Fatal("must not run while open")
		return nil
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Equal(t, int64(1), cb.GetState().RejectedRequests)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, "closed", cb.GetState().State)
	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreakerIgnoresNonRetryable(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1}, nil)

	parseErr := errors.New(errors.ErrorTypeParse, "bad body")
	for i := 0; i < 3; i++ {
		assert.Equal(t, parseErr, cb.Execute(func() error { return parseErr }))
	}
	assert.Equal(t, "closed", cb.GetState().State)

	cb.RecordFailure()
	assert.Equal(t, "open", cb.GetState().State)
	cb.Reset()
	assert.Equal(t, "closed", cb.GetState().State)
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, Timeout: 10 * time.Millisecond}, nil)
	cb.RecordFailure()
	time.Sleep(15 * time.Millisecond)

	require.True(t, cb.Allow())
	assert.Equal(t, "half_open", cb.GetState().State)
	assert.False(t, cb.Allow(), "only one probe while half-open")
	cb.RecordFailure()
	assert.Equal(t, "open", cb.GetState().State)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1000, 1)
	assert.True(t, rl.Allow())
	require.NoError(t, rl.Wait(context.Background()))

	slow := NewRateLimiter(0.001, 1)
	require.True(t, slow.Allow())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := slow.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRateLimit))

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	err = slow.Wait(canceled)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCanceled))

	stats := slow.GetStats()
	assert.Equal(t, 1, stats.Burst)
	assert.Equal(t, int64(1), stats.AllowedRequests)
	assert.Equal(t, int64(2), stats.BlockedRequests)
}

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funnel-tracker/internal/config"
)

func newTestClient(attempts int) *HTTPClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{HTTPTimeout: 2 * time.Second, RetryAttempts: attempts}
	return NewHTTPClient(cfg, logger).WithBackoff(func(int) time.Duration { return time.Millisecond })
}

func TestDoJSONDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Acme", in["name"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p-1"}`))
	}))
	defer srv.Close()

	var out struct {
		ID string `json:"id"`
	}
	err := newTestClient(1).DoJSON(context.Background(), Request{
		Method:  http.MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"apikey": "secret"},
		Body:    map[string]string{"name": "Acme"},
		Target:  &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", out.ID)
}

func TestDoJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out []map[string]interface{}
	err := newTestClient(3).DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL, Target: &out})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoJSONGivesUpAfterAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(2).DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retry attempts failed")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := newTestClient(3).DoJSON(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoJSONHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(5).WithBackoff(func(int) time.Duration { return time.Hour })
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.DoJSON(ctx, Request{Method: http.MethodGet, URL: srv.URL})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package runpod

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-execution-service/internal/config"
	"model-execution-service/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) (*runpodClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(&config.RemoteConfig{
		BaseURL:     srv.URL + "/",
		APIKey:      "secret-key",
		MaxRetries:  maxRetries,
		RetryDelay:  time.Millisecond,
		Timeout:     5 * time.Second,
		SyncTimeout: 5 * time.Second,
	}).(*runpodClient)
	return client, &calls
}

func TestClient_Submit_Success(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ep-1/run", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"input": map[string]interface{}{"text": "hi"}}, body)

		_, _ = w.Write([]byte(`{"id":"job-1","status":"IN_QUEUE"}`))
	}, 2)

	job, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, domain.RemoteStatusInQueue, job.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_Submit_RetriesServerErrorsThenFails(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("worker crashed"))
	}, 2)

	_, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.KindRemote, de.Kind)
	assert.Equal(t, http.StatusInternalServerError, de.Details["status_code"])
	assert.Equal(t, "worker crashed", de.Details["body"])
}

func TestClient_Submit_RateLimitIsNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, 2)

	_, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.StatusTooManyRequests, domain.RemoteStatusCode(err))

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, domain.CodeRateLimited, de.Code)
}

func TestClient_Submit_ClientErrorIsNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, 3)

	_, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.StatusUnauthorized, domain.RemoteStatusCode(err))
}

func TestClient_Submit_RecoversAfterServerError(t *testing.T) {
	var attempt int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempt, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"job-2","status":"IN_PROGRESS"}`))
	}, 2)

	job, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "job-2", job.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestClient_ZeroRetriesMakesOneAttempt(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 0)

	_, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.StatusServiceUnavailable, domain.RemoteStatusCode(err))
}

func TestClient_GetStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/ep-1/status/job-7", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"job-7","status":"COMPLETED","output":{"url":"https://x"},"executionTime":2.5}`))
	}, 0)

	status, err := client.GetStatus(context.Background(), "ep-1", "job-7")
	require.NoError(t, err)
	assert.Equal(t, domain.RemoteStatusCompleted, status.Status)
	assert.Equal(t, map[string]interface{}{"url": "https://x"}, status.Output)
	require.NotNil(t, status.ExecutionTimeMs())
	assert.Equal(t, int64(2500), *status.ExecutionTimeMs())
}

func TestClient_Cancel(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ep-1/cancel/job-7", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"job-7","status":"CANCELLED"}`))
	}, 0)

	require.NoError(t, client.Cancel(context.Background(), "ep-1", "job-7"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_SubmitSync(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ep-1/runsync", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"input":{"prompt":"ping"}}`, string(body))
		_, _ = w.Write([]byte(`{"id":"sync-1","status":"COMPLETED","output":"pong"}`))
	}, 0)

	status, err := client.SubmitSync(context.Background(), "ep-1", map[string]interface{}{"prompt": "ping"})
	require.NoError(t, err)
	assert.Equal(t, "sync-1", status.ID)
	assert.Equal(t, "pong", status.Output)
}

func TestClient_MalformedResponse(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, 2)

	_, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_TransportErrorIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(&config.RemoteConfig{
		BaseURL:    url,
		APIKey:     "k",
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})

	_, err := client.Submit(context.Background(), "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Equal(t, 0, domain.RemoteStatusCode(err))
}

func TestClient_ContextCancelledDuringRetryDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(&config.RemoteConfig{
		BaseURL:    srv.URL,
		APIKey:     "k",
		MaxRetries: 5,
		RetryDelay: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Submit(ctx, "ep-1", map[string]interface{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, domain.RemoteStatusCode(err))
}

func TestNewClient_RateLimiter(t *testing.T) {
	unlimited := NewClient(&config.RemoteConfig{BaseURL: "http://x"}).(*runpodClient)
	assert.True(t, unlimited.limiter.Limit() > 1e9)

	limited := NewClient(&config.RemoteConfig{BaseURL: "http://x", RateLimit: 5, RateBurst: 2}).(*runpodClient)
	assert.Equal(t, float64(5), float64(limited.limiter.Limit()))
	assert.Equal(t, 2, limited.limiter.Burst())
}

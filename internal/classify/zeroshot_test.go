package classify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/infra"
)

func newTestZeroShot(t *testing.T, url string, breaker *infra.CircuitBreaker) *ZeroShotClient {
	t.Helper()
	return NewZeroShotClient(ZeroShotConfig{
		APIURL:      url,
		APIKey:      "hf_test",
		Model:       "facebook/bart-large-mnli",
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		LoadingWait: time.Millisecond,
		RatePerSec:  1000,
		Burst:       10,
	}, breaker)
}

func TestZeroShotClient_Success(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/facebook/bart-large-mnli", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))

		var req hfRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "paid 500 via upi", req.Inputs)
		assert.Equal(t, ModeLabels, req.Parameters.CandidateLabels)

		json.NewEncoder(w).Encode(map[string]any{
			"sequence": req.Inputs,
			"labels":   []string{"UPI", "Bank Transfer"},
			"scores":   []float64{0.91, 0.09},
		})
	}))
	defer srv.Close()

	zs := newTestZeroShot(t, srv.URL, nil)
	preds, err := zs.Classify(context.Background(), "paid 500 via upi", ModeLabels)
	require.NoError(t, err)
	assert.Equal(t, []Prediction{{"UPI", 0.91}, {"Bank Transfer", 0.09}}, preds)
	assert.EqualValues(t, 1, calls.Load())
}

func TestZeroShotClient_RetriesWhileLoading(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"Model facebook/bart-large-mnli is currently loading","estimated_time":20.0}`))
			return
		}
		w.Write([]byte(`{"labels":["Electricity","Other"],"scores":[0.8,0.2]}`))
	}))
	defer srv.Close()

	zs := newTestZeroShot(t, srv.URL, nil)
	preds, err := zs.Classify(context.Background(), "bescom bill", BillLabels)
	require.NoError(t, err)
	assert.Equal(t, "Electricity", preds[0].Label)
	assert.EqualValues(t, 2, calls.Load())
}

func TestZeroShotClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer srv.Close()

	breaker := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "t", FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Hour})
	zs := newTestZeroShot(t, srv.URL, breaker)

	_, err := zs.Classify(context.Background(), "x", ModeLabels)
	assert.ErrorIs(t, err, ErrModelLoading)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, infra.StateClosed, breaker.GetState(), "a cold model is not a failure")
}

func TestZeroShotClient_Unauthorized(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status code", http.StatusUnauthorized, `{"error":"Invalid credentials in Authorization header"}`},
		{"error body", http.StatusBadRequest, `{"error":"Unauthorized"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestZeroShot(t, srv.URL, nil).Classify(context.Background(), "x", ModeLabels)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.EqualValues(t, 1, calls.Load(), "unauthorized must not be retried")
		})
	}
}

func TestZeroShotClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	breaker := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "t", FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Hour})
	zs := newTestZeroShot(t, srv.URL, breaker)

	for i := 0; i < 2; i++ {
		_, err := zs.Classify(context.Background(), "x", ModeLabels)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := zs.Classify(context.Background(), "x", ModeLabels)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestZeroShotClient_CancelledDuringLoadingWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"currently loading"}`))
	}))
	defer srv.Close()

	zs := NewZeroShotClient(ZeroShotConfig{
		APIURL: srv.URL, Model: "m", MaxAttempts: 5, LoadingWait: time.Minute, RatePerSec: 1000, Burst: 10,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := zs.Classify(ctx, "x", ModeLabels)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

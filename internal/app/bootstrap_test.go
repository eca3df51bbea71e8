package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/domain"
	"spendsense/internal/infra"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	cfg := infra.DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func TestBootstrap_Initialize(t *testing.T) {
	b := NewBootstrap(testConfig(t))
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Initialize(ctx))
	require.NotNil(t, b.Store)
	require.NotNil(t, b.Hub)
	require.NotNil(t, b.Categorizer)

	records, err := b.Services.Records.Ingest(ctx, "u1", []domain.SMSMessage{
		{SMS: "Rs 120 paid to Swiggy via UPI", Sender: "HDFCBK"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Food & Dining", records[0].Category)

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"spendsense"`)
}

func TestBootstrap_OpenStoreIsIdempotent(t *testing.T) {
	b := NewBootstrap(testConfig(t))
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.OpenStore(ctx))
	store := b.Store
	require.NoError(t, b.OpenStore(ctx))
	assert.Same(t, store, b.Store)
}

func TestBootstrap_ZeroShotChainRegistersBreaker(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.Provider = "zeroshot"
	cfg.Cache.Backend = "none"

	b := NewBootstrap(cfg)
	defer b.Close()
	require.NoError(t, b.Initialize(context.Background()))

	rec := httptest.NewRecorder()
	b.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), `spendsense_circuit_breaker_state{name="zeroshot"} 0`))
}

func TestBootstrap_RedisUnavailable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Classifier.Provider = "zeroshot"
	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = "127.0.0.1:1"

	b := NewBootstrap(cfg)
	defer b.Close()
	assert.Error(t, b.Initialize(context.Background()))
}
